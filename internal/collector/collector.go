package collector

import (
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"PortfolioSentinel/internal/calculator"
	"PortfolioSentinel/internal/model"
)

// DefaultWeeks is enough history for a 30-week WMA plus its slope lookback.
const DefaultWeeks = 60

// Collector fetches market snapshots and memoizes them per symbol.
type Collector struct {
	Fetcher Fetcher
	Weeks   int

	fresh *cache.Cache // symbol -> snapshot, expires after the TTL; nil disables memoization
	last  *cache.Cache // symbol -> last snapshot, never expires
	log   zerolog.Logger
	now   func() time.Time
}

// NewCollector creates a new Collector. A non-positive ttl disables memoization.
func NewCollector(fetcher Fetcher, weeks int, ttl time.Duration, log zerolog.Logger) *Collector {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	c := &Collector{
		Fetcher: fetcher,
		Weeks:   weeks,
		last:    cache.New(cache.NoExpiration, 0),
		log:     log.With().Str("component", "collector").Str("provider", fetcher.Name()).Logger(),
		now:     time.Now,
	}
	if ttl > 0 {
		c.fresh = cache.New(ttl, 2*ttl)
	}
	return c
}

// Collect returns the market snapshot for symbol. It never fails: a field the
// provider could not supply is filled from the last good snapshot (marking the
// result stale) or left nil.
func (c *Collector) Collect(symbol string) *model.MarketSnapshot {
	if c.fresh != nil {
		if v, ok := c.fresh.Get(symbol); ok {
			return cloneSnapshot(v.(*model.MarketSnapshot))
		}
	}

	snap := &model.MarketSnapshot{Symbol: symbol, FetchedAt: c.now()}
	var prev *model.MarketSnapshot
	if v, ok := c.last.Get(symbol); ok {
		prev = v.(*model.MarketSnapshot)
	}

	// Price
	if price, err := c.Fetcher.FetchCurrentPrice(symbol); err != nil || price <= 0 {
		c.log.Warn().Err(err).Str("symbol", symbol).Float64("price", price).Msg("current price unavailable")
		if prev != nil && prev.CurrentPrice != nil {
			snap.CurrentPrice = model.Float(*prev.CurrentPrice)
			snap.Stale = true
		}
	} else {
		snap.CurrentPrice = model.Float(price)
	}

	// Weekly closes
	if bars, err := c.Fetcher.FetchWeeklyBars(symbol, c.Weeks); err != nil || len(bars) == 0 {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("weekly bars unavailable")
		if prev != nil && len(prev.WeeklyCloses) > 0 {
			snap.WeeklyCloses = append([]float64(nil), prev.WeeklyCloses...)
			snap.Stale = true
		}
	} else {
		snap.WeeklyCloses = calculator.Closes(bars)
	}

	// Fundamentals
	if f, err := c.Fetcher.FetchFundamentals(symbol); err != nil || f == nil {
		ev := c.log.Warn()
		if errors.Is(err, ErrUnsupported) {
			ev = c.log.Debug()
		}
		ev.Err(err).Str("symbol", symbol).Msg("fundamentals unavailable")
		if prev != nil && prev.CashOnHand != nil && prev.QuarterlyBurn != nil {
			snap.CashOnHand = model.Float(*prev.CashOnHand)
			snap.QuarterlyBurn = model.Float(*prev.QuarterlyBurn)
			snap.Stale = true
		}
	} else {
		snap.CashOnHand = model.Float(f.CashOnHand)
		snap.QuarterlyBurn = model.Float(f.QuarterlyBurn)
	}

	if c.fresh != nil {
		c.fresh.SetDefault(symbol, snap)
	}
	c.last.Set(symbol, snap, cache.NoExpiration)
	c.log.Debug().Str("symbol", symbol).Bool("stale", snap.Stale).Int("weeks", len(snap.WeeklyCloses)).Msg("snapshot collected")
	return cloneSnapshot(snap)
}

// Invalidate drops the memoized snapshot for symbol. The last good copy is kept.
func (c *Collector) Invalidate(symbol string) {
	if c.fresh != nil {
		c.fresh.Delete(symbol)
	}
}

func cloneSnapshot(s *model.MarketSnapshot) *model.MarketSnapshot {
	out := *s
	if s.CurrentPrice != nil {
		out.CurrentPrice = model.Float(*s.CurrentPrice)
	}
	if s.CashOnHand != nil {
		out.CashOnHand = model.Float(*s.CashOnHand)
	}
	if s.QuarterlyBurn != nil {
		out.QuarterlyBurn = model.Float(*s.QuarterlyBurn)
	}
	out.WeeklyCloses = append([]float64(nil), s.WeeklyCloses...)
	return &out
}
