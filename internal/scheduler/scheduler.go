package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"PortfolioSentinel/internal/model"
	"PortfolioSentinel/internal/portfolio"
	"PortfolioSentinel/internal/recorder"
	"PortfolioSentinel/internal/report"
	"PortfolioSentinel/internal/strategy"
)

// ErrBatchRunning is returned when a batch is requested while another runs.
var ErrBatchRunning = errors.New("an evaluation batch is already running")

// MarketSource supplies per-ticker market snapshots.
type MarketSource interface {
	Collect(symbol string) *model.MarketSnapshot
}

// BatchResult is the outcome of one evaluation batch.
type BatchResult struct {
	ID       string
	At       time.Time
	Alert    *model.MarketAlert
	Results  []strategy.Result
	Markdown string
}

// Verdicts returns the successful verdicts in input order.
func (b *BatchResult) Verdicts() []*model.Verdict {
	var out []*model.Verdict
	for _, r := range b.Results {
		if r.Verdict != nil {
			out = append(out, r.Verdict)
		}
	}
	return out
}

// Scheduler runs evaluation batches on a cron schedule or on demand.
type Scheduler struct {
	Cron     *cron.Cron
	Market   MarketSource // nil skips the market refresh
	Book     *portfolio.Book
	Engine   *strategy.Engine
	Recorder recorder.Recorder
	Currency string
	// Publish receives the markdown report of every batch; nil discards it.
	Publish func(md string)

	running    sync.Mutex
	collectors int
	log        zerolog.Logger
	now        func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(market MarketSource, book *portfolio.Book, engine *strategy.Engine, rec recorder.Recorder, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Market:     market,
		Book:       book,
		Engine:     engine,
		Recorder:   rec,
		collectors: 4,
		log:        log.With().Str("component", "scheduler").Logger(),
		now:        time.Now,
	}
}

// Register schedules the evaluation batch over every tracked ticker.
func (s *Scheduler) Register(ctx context.Context, evaluateCron string) error {
	if _, err := s.Cron.AddFunc(evaluateCron, func() {
		if _, err := s.RunBatch(ctx, nil); err != nil {
			s.log.Error().Err(err).Msg("scheduled evaluation failed")
		}
	}); err != nil {
		return fmt.Errorf("register evaluate task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunBatch refreshes market data, evaluates tickers (all tracked tickers when
// empty) against one alert snapshot, records the verdicts and publishes the report.
func (s *Scheduler) RunBatch(ctx context.Context, tickers []string) (*BatchResult, error) {
	if !s.running.TryLock() {
		return nil, ErrBatchRunning
	}
	defer s.running.Unlock()

	batch := &BatchResult{ID: uuid.NewString(), At: s.now().UTC()}
	log := s.log.With().Str("batch", batch.ID).Logger()

	alert, err := s.Recorder.CurrentAlert()
	if err != nil {
		log.Warn().Err(err).Msg("current alert unavailable, evaluating without one")
	}
	batch.Alert = alert

	if len(tickers) == 0 {
		tickers = s.Book.Tickers()
	}
	var (
		known   []string
		missing []strategy.Result
	)
	for _, t := range tickers {
		t = portfolio.NormalizeTicker(t)
		if _, ok := s.Book.Security(t); !ok {
			missing = append(missing, strategy.Result{Ticker: t, Err: fmt.Errorf("%w: %s", portfolio.ErrUnknownTicker, t)})
			continue
		}
		known = append(known, t)
	}
	log.Info().Int("tickers", len(known)).Int("unknown", len(missing)).Msg("evaluation batch started")

	closes, err := s.refresh(ctx, known)
	if err != nil {
		return nil, err
	}

	total := s.Book.TotalValue().InexactFloat64()
	inputs := make([]strategy.Input, 0, len(known))
	for _, t := range known {
		sec, _ := s.Book.Security(t)
		inputs = append(inputs, strategy.Input{
			Security:       sec,
			Position:       s.Book.Position(t),
			PortfolioValue: total,
			WeeklyCloses:   closes[t],
		})
	}
	batch.Results = append(s.Engine.EvaluateBatch(inputs, alert), missing...)

	entries := make([]recorder.AuditEntry, len(batch.Results))
	for i, r := range batch.Results {
		entries[i] = recorder.AuditEntry{Ticker: r.Ticker, Verdict: r.Verdict, Err: r.Err}
	}
	if err := s.Recorder.RecordVerdicts(batch.ID, batch.At, entries); err != nil {
		log.Error().Err(err).Msg("record verdicts")
	}

	batch.Markdown = report.FormatBatch(s.reportOf(batch))
	if s.Publish != nil {
		s.Publish(batch.Markdown)
	}
	s.logSummary(log, batch)
	return batch, nil
}

// refresh collects snapshots concurrently and applies them to the book. It
// returns the weekly closes per ticker; a ticker without data simply has none.
func (s *Scheduler) refresh(ctx context.Context, tickers []string) (map[string][]float64, error) {
	closes := make(map[string][]float64, len(tickers))
	if s.Market == nil {
		return closes, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.collectors)
	for _, t := range tickers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snap := s.Market.Collect(t)
			if err := s.Book.ApplyMarketData(snap); err != nil {
				s.log.Warn().Err(err).Str("symbol", t).Msg("apply market data")
			}
			mu.Lock()
			closes[t] = snap.WeeklyCloses
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("market refresh: %w", err)
	}
	return closes, nil
}

func (s *Scheduler) reportOf(b *BatchResult) report.Batch {
	rb := report.Batch{
		ID:             b.ID,
		At:             b.At,
		Alert:          b.Alert,
		Verdicts:       b.Verdicts(),
		PortfolioValue: s.Book.TotalValue(),
		Currency:       s.Currency,
	}
	for _, r := range strategy.Failed(b.Results) {
		rb.Failures = append(rb.Failures, report.Failure{Ticker: r.Ticker, Err: r.Err.Error()})
	}
	return rb
}

func (s *Scheduler) logSummary(log zerolog.Logger, b *BatchResult) {
	actions := zerolog.Dict()
	counts := map[model.Action]int{}
	for _, v := range b.Verdicts() {
		counts[v.Action]++
	}
	for a, n := range counts {
		actions = actions.Int(string(a), n)
	}
	level := "none"
	if b.Alert != nil {
		level = string(b.Alert.Level)
	}
	log.Info().
		Str("alert", level).
		Int("evaluated", len(b.Verdicts())).
		Int("failed", len(strategy.Failed(b.Results))).
		Dict("actions", actions).
		Msg("evaluation batch finished")
}
