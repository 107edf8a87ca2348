package strategy

import (
	"fmt"
	"math"

	"PortfolioSentinel/internal/calculator"
	"PortfolioSentinel/internal/config"
	"PortfolioSentinel/internal/model"
)

// Pillar scoring constants.
const (
	neutralScore = 50.0

	milestoneBonus    = 3.0
	milestoneBonusMax = 15.0
	redFlagPenalty    = 10.0
	dilutionPenalty   = 20.0

	healthyFloor     = 80.0
	healthyFullAt    = 36.0 // months at which a healthy runway scores 100
	cautionFloor     = 50.0
	cautionSpan      = 29.0
	dangerCeil       = 30.0
	infiniteRunwayPt = 100.0

	advanceScore      = 80.0
	advanceSlopeBonus = 15.0
	baseScore         = 60.0
	topScore          = 40.0
	declineScore      = 15.0
)

// strengthBands maps buy confidence to a signal strength, highest first.
var strengthBands = []struct {
	MinScore float64
	Strength model.SignalStrength
}{
	{80, model.StrengthStrongBuy},
	{60, model.StrengthBuy},
	{40, model.StrengthWeakBuy},
	{20, model.StrengthNeutral},
}

func mapStrength(confidence float64) model.SignalStrength {
	for _, b := range strengthBands {
		if confidence >= b.MinScore {
			return b.Strength
		}
	}
	return model.StrengthAvoid
}

// PillarInput is everything the aggregator scores.
type PillarInput struct {
	Conviction   *int
	Milestones   int
	RedFlags     int
	Runway       calculator.Runway
	DilutionRisk bool
	Trend        calculator.Trend
}

// Aggregate is the combined buy-confidence result.
type Aggregate struct {
	Confidence   float64
	Strength     model.SignalStrength
	Blocked      bool
	BlockReasons []string
	Components   model.ComponentScores
	Notes        []string
	DataGaps     []string
}

type blockRule struct {
	name  string
	check func(cfg *config.Engine, in PillarInput) bool
}

// blockRules override the weighted sum whenever one of them holds.
var blockRules = []blockRule{
	{"trend in decline below its weighted moving average", func(_ *config.Engine, in PillarInput) bool {
		return in.Trend.Phase == model.TrendDecline && in.Trend.BelowWMA
	}},
	{"cash runway in danger", func(_ *config.Engine, in PillarInput) bool {
		return in.Runway.Status == model.RunwayDanger
	}},
	{"too many red flags", func(cfg *config.Engine, in PillarInput) bool {
		return in.RedFlags >= cfg.RedFlagBlockCount
	}},
}

// Aggregator combines the thesis, valuation and trend pillars.
type Aggregator struct {
	cfg *config.Engine
}

// NewAggregator returns an aggregator over validated engine parameters.
func NewAggregator(cfg *config.Engine) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate scores the pillars, sums them by weight and applies the hard blocks.
func (a *Aggregator) Aggregate(in PillarInput) Aggregate {
	var out Aggregate

	thesis, ok := thesisScore(in.Conviction, in.Milestones, in.RedFlags)
	if !ok {
		out.DataGaps = append(out.DataGaps, "conviction score missing, thesis pillar set to neutral")
	}
	valuation := valuationScore(in.Runway, in.DilutionRisk)
	if in.Runway.Status == model.RunwayUnknown {
		out.DataGaps = append(out.DataGaps, "cash figures missing, valuation pillar set to neutral")
	}
	trend := trendScore(in.Trend)
	if !in.Trend.Known() {
		out.DataGaps = append(out.DataGaps, "not enough price history, trend pillar set to neutral")
	}

	out.Components = model.ComponentScores{Thesis: thesis, Valuation: valuation, Trend: trend}
	w := a.cfg.Weights
	out.Confidence = clamp(w.Thesis*thesis+w.Valuation*valuation+w.Trend*trend, 0, 100)
	out.Notes = append(out.Notes, fmt.Sprintf("pillars: thesis %.0f x %.2f, valuation %.0f x %.2f, trend %.0f x %.2f",
		thesis, w.Thesis, valuation, w.Valuation, trend, w.Trend))

	for _, rule := range blockRules {
		if rule.check(a.cfg, in) {
			out.Blocked = true
			out.BlockReasons = append(out.BlockReasons, rule.name)
		}
	}
	if out.Blocked {
		out.Confidence = math.Min(out.Confidence, a.cfg.BlockedConfidenceCap)
		out.Strength = model.StrengthAvoid
		return out
	}
	out.Strength = mapStrength(out.Confidence)
	return out
}

// thesisScore scales conviction to 0-100 and adjusts it for milestones and red flags.
// It returns false when no conviction score is available.
func thesisScore(conviction *int, milestones, redFlags int) (float64, bool) {
	if conviction == nil {
		return neutralScore, false
	}
	score := float64(*conviction) * 10
	score += math.Min(float64(max(milestones, 0))*milestoneBonus, milestoneBonusMax)
	score -= float64(max(redFlags, 0)) * redFlagPenalty
	return clamp(score, 0, 100), true
}

func valuationScore(r calculator.Runway, dilution bool) float64 {
	var score float64
	switch r.Status {
	case model.RunwayHealthy:
		if r.Infinite || r.Months == nil {
			score = infiniteRunwayPt
		} else {
			frac := (*r.Months - calculator.RunwayHealthyAbove) / (healthyFullAt - calculator.RunwayHealthyAbove)
			score = healthyFloor + clamp(frac, 0, 1)*(100-healthyFloor)
		}
	case model.RunwayCaution:
		months := calculator.RunwayDangerBelow
		if r.Months != nil {
			months = *r.Months
		}
		frac := (months - calculator.RunwayDangerBelow) / (calculator.RunwayHealthyAbove - calculator.RunwayDangerBelow)
		score = cautionFloor + clamp(frac, 0, 1)*cautionSpan
	case model.RunwayDanger:
		if r.Months != nil {
			score = dangerCeil * clamp(*r.Months/calculator.RunwayDangerBelow, 0, 1)
		}
	default:
		score = neutralScore
	}
	if dilution {
		score -= dilutionPenalty
	}
	return clamp(score, 0, 100)
}

func trendScore(t calculator.Trend) float64 {
	switch t.Phase {
	case model.TrendAdvance:
		// a steeper rising average earns up to the full bonus at +10% over the lookback
		return advanceScore + clamp(t.SlopePct/10, 0, 1)*advanceSlopeBonus
	case model.TrendBase:
		return baseScore
	case model.TrendTop:
		return topScore
	case model.TrendDecline:
		return declineScore
	default:
		return neutralScore
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
