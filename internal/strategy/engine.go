package strategy

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"PortfolioSentinel/internal/calculator"
	"PortfolioSentinel/internal/config"
	"PortfolioSentinel/internal/model"
)

// ErrMissingTicker is returned for an input without a ticker.
var ErrMissingTicker = errors.New("security has no ticker")

// Input is one ticker's immutable evaluation snapshot.
type Input struct {
	Security       model.Security
	Position       *model.Position // nil when nothing is held
	PortfolioValue float64
	WeeklyCloses   []float64
	Alert          *model.MarketAlert
}

// Engine is the investment decision engine. It holds no mutable state, so one
// Engine may evaluate many inputs concurrently.
type Engine struct {
	cfg        config.Engine
	phases     PhaseClassifier
	aggregator *Aggregator
	sizer      *Sizer
	gate       *Gatekeeper
}

// Option customizes an Engine.
type Option func(*Engine)

// WithPhaseClassifier replaces the lifecycle classifier.
func WithPhaseClassifier(c PhaseClassifier) Option {
	return func(e *Engine) { e.phases = c }
}

// WithGuards replaces the gatekeeper's decision list.
func WithGuards(guards ...Guard) Option {
	return func(e *Engine) { e.gate = NewGatekeeper(guards...) }
}

// NewEngine validates cfg and builds an engine. Invalid parameters fail here,
// never during an evaluation.
func NewEngine(cfg config.Engine, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	e := &Engine{cfg: cfg, phases: DefaultPhaseClassifier(), gate: NewGatekeeper()}
	e.aggregator = NewAggregator(&e.cfg)
	e.sizer = NewSizer(&e.cfg)
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate computes the verdict for one input. Missing data degrades to neutral
// defaults and is listed in the verdict's data gaps.
func (e *Engine) Evaluate(in Input) (*model.Verdict, error) {
	sec := in.Security
	if sec.Ticker == "" {
		return nil, ErrMissingTicker
	}

	v := &model.Verdict{Ticker: sec.Ticker}
	note := func(format string, args ...any) { v.Reasoning = append(v.Reasoning, fmt.Sprintf(format, args...)) }
	gap := func(msg string) {
		v.DataGaps = append(v.DataGaps, msg)
		v.Reasoning = append(v.Reasoning, "data gap: "+msg)
	}

	if in.Alert != nil {
		v.AlertLevel = in.Alert.Level
		note("market alert %s (stock %.0f%% / cash %.0f%% / hedge %.0f%%)",
			in.Alert.Level, in.Alert.StockPct, in.Alert.CashPct, in.Alert.HedgePct)
	}

	price := sec.CurrentPrice
	if price != nil && !(*price > 0 && !math.IsInf(*price, 1)) {
		note("security price %v is not usable", *price)
		price = nil
	}
	if price == nil && in.Position != nil && in.Position.CurrentPrice > 0 && !math.IsInf(in.Position.CurrentPrice, 1) {
		price = model.Float(in.Position.CurrentPrice)
		note("security price missing, using position price %.2f", *price)
	}

	// Trend
	trend := calculator.ClassifyTrendFromCloses(price, in.WeeklyCloses, e.cfg.WMAPeriod, e.cfg.SlopeLookback)
	v.TrendPhase = trend.Phase
	if trend.Known() {
		note("trend %s: price %+.1f%% vs %d-week WMA %.2f, slope %+.1f%%",
			trend.Phase, trend.PriceVsWMAPct, e.cfg.WMAPeriod, trend.WMA, trend.SlopePct)
	}

	// Runway
	runway := calculator.CalculateRunway(sec.CashOnHand, sec.QuarterlyBurn)
	v.RunwayStatus = runway.Status
	v.RunwayMonths = runway.Months
	switch {
	case runway.Infinite:
		note("runway unlimited (cash-flow positive)")
	case runway.Months != nil:
		note("runway %.1f months (%s)", *runway.Months, runway.Status)
	case runway.Status == model.RunwayDanger:
		note("runway forced to danger: %v", runway.Flags)
	}

	// Lifecycle
	phase, _ := e.phases.Classify(&sec)
	v.LifecyclePhase = phase.Phase
	if phase.Matched != "" {
		note("lifecycle %s (from %s %q)", phase.Phase, phase.Source, phase.Matched)
	} else {
		note("lifecycle %s (from %s)", phase.Phase, phase.Source)
	}

	// Price lines
	lines := calculator.EvaluatePriceLines(price, sec.GreenLine, sec.RedLine, sec.GreyLine)
	v.PriceZone = lines.Zone
	v.TradingSignal = lines.Signal
	v.RiskToFloorPct = lines.RiskToFloorPct
	v.UpsideToCeilingPct = lines.UpsideToCeilingPct
	if lines.Zone == model.ZoneUnknown {
		gap("price zone unknown: " + lines.Reason)
	} else {
		note("price zone %s, %.1f%% above floor, %.1f%% to ceiling", lines.Zone, *lines.RiskToFloorPct, *lines.UpsideToCeilingPct)
	}
	if lines.GreyBreached {
		note("price at or below the grey danger line")
	}

	// Aggregate
	agg := e.aggregator.Aggregate(PillarInput{
		Conviction:   sec.ConvictionScore,
		Milestones:   sec.MilestoneCount,
		RedFlags:     sec.RedFlagCount,
		Runway:       runway,
		DilutionRisk: sec.DilutionRisk,
		Trend:        trend,
	})
	v.BuyConfidence = agg.Confidence
	v.SignalStrength = agg.Strength
	v.Blocked = agg.Blocked
	v.BlockReasons = agg.BlockReasons
	v.Components = agg.Components
	for _, g := range agg.DataGaps {
		gap(g)
	}
	v.Reasoning = append(v.Reasoning, agg.Notes...)
	note("buy confidence %.1f (%s)", agg.Confidence, agg.Strength)
	if agg.Blocked {
		note("blocked: %s", v.BlockReason())
	}

	// Sizing
	sizing, err := e.sizer.Size(SizingInput{
		AssetClass: sec.AssetClass,
		Conviction: sec.ConvictionScore,
		Phase:      phase.Phase,
		Runway:     runway,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sec.Ticker, err)
	}
	for _, g := range sizing.DataGaps {
		gap(g)
	}
	v.MaxAllocationCap = sizing.MaxCap
	v.TargetWeight = sizing.TargetWeight
	if len(sizing.Applied) > 0 {
		note("cap %.2f%% = base %.0f%% with %v", sizing.MaxCap, sizing.BaseCap, sizing.Applied)
	} else {
		note("cap %.2f%% = base %.0f%%", sizing.MaxCap, sizing.BaseCap)
	}

	// Position
	gate := GateInput{
		Conviction:   sec.ConvictionScore,
		Runway:       runway,
		Phase:        phase.Phase,
		Zone:         lines.Zone,
		Blocked:      agg.Blocked,
		Price:        price,
		Target:       sec.Target(),
		TargetWeight: sizing.TargetWeight,
		MaxCap:       sizing.MaxCap,
	}
	if in.Position != nil && in.Position.Held() {
		pos := *in.Position
		if price != nil {
			pos.CurrentPrice = *price
		}
		v.CurrentWeight = pos.Weight(decimal.NewFromFloat(in.PortfolioValue))
		gate.Held = true
		gate.AvgCost = pos.AvgCost
		gate.CurrentWeight = v.CurrentWeight
		note("holding %.2f%% of portfolio (target %.2f%%)", v.CurrentWeight, sizing.TargetWeight)
	}

	// Action
	decision := e.gate.Decide(gate)
	v.Action = decision.Action
	v.ActionGuard = decision.Guard
	note("action %s: %s", decision.Action, decision.Reason)

	return v, nil
}
