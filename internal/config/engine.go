package config

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"PortfolioSentinel/internal/model"
)

var (
	ErrWeightsSum        = errors.New("pillar weights must sum to 1.0")
	ErrUnknownAssetClass = errors.New("unknown asset class")
	ErrMissingAssetClass = errors.New("missing base cap for asset class")
)

// Weights are the pillar weights of the buy-confidence sum.
type Weights struct {
	Thesis    float64 `yaml:"thesis"`
	Valuation float64 `yaml:"valuation"`
	Trend     float64 `yaml:"trend"`
}

// Sum returns the total of all pillar weights.
func (w Weights) Sum() float64 { return w.Thesis + w.Valuation + w.Trend }

// TargetBand maps a minimum conviction score to a target weight in percent.
type TargetBand struct {
	MinScore int     `yaml:"min_score"`
	Weight   float64 `yaml:"weight"`
}

// Engine holds every tunable of the decision engine.
type Engine struct {
	Weights                 Weights            `yaml:"weights"`
	BaseCaps                map[string]float64 `yaml:"base_caps"`
	TargetWeights           []TargetBand       `yaml:"target_weights"`
	MaxUpsideMultiplier     float64            `yaml:"max_upside_multiplier"`
	LowConvictionBelow      int                `yaml:"low_conviction_below"`
	LowConvictionMultiplier float64            `yaml:"low_conviction_multiplier"`
	CautionMultiplier       float64            `yaml:"caution_multiplier"`
	InflectionMultiplier    float64            `yaml:"inflection_multiplier"`
	BlockedConfidenceCap    float64            `yaml:"blocked_confidence_cap"`
	RedFlagBlockCount       int                `yaml:"red_flag_block_count"`
	WMAPeriod               int                `yaml:"wma_period"`
	SlopeLookback           int                `yaml:"slope_lookback"`
	Workers                 int                `yaml:"workers"`
}

// DefaultEngine returns the stock engine parameters.
func DefaultEngine() Engine {
	return Engine{
		Weights: Weights{Thesis: 0.60, Valuation: 0.25, Trend: 0.15},
		BaseCaps: map[string]float64{
			string(model.AssetCoreGrower):       12,
			string(model.AssetHighBetaCyclical): 8,
			string(model.AssetBinaryOutcome):    3,
			string(model.AssetTurnaround):       2,
		},
		TargetWeights: []TargetBand{
			{MinScore: 9, Weight: 15},
			{MinScore: 8, Weight: 12},
			{MinScore: 7, Weight: 10},
			{MinScore: 6, Weight: 5},
			{MinScore: 5, Weight: 3},
			{MinScore: 0, Weight: 0},
		},
		MaxUpsideMultiplier:     1.2,
		LowConvictionBelow:      7,
		LowConvictionMultiplier: 0.5,
		CautionMultiplier:       0.7,
		InflectionMultiplier:    1.2,
		BlockedConfidenceCap:    19,
		RedFlagBlockCount:       3,
		WMAPeriod:               30,
		SlopeLookback:           4,
		Workers:                 8,
	}
}

// BaseCap returns the configured cap for an asset class.
func (e *Engine) BaseCap(class model.AssetClass) (float64, bool) {
	c, ok := e.BaseCaps[string(class)]
	return c, ok
}

// SmallestBaseCap returns the most conservative configured cap.
func (e *Engine) SmallestBaseCap() float64 {
	smallest := math.Inf(1)
	for _, c := range e.BaseCaps {
		smallest = math.Min(smallest, c)
	}
	if math.IsInf(smallest, 1) {
		return 0
	}
	return smallest
}

// TargetWeightFor looks up the target weight for a conviction score.
// Bands are matched highest MinScore first.
func (e *Engine) TargetWeightFor(score int) float64 {
	for _, b := range e.sortedBands() {
		if score >= b.MinScore {
			return b.Weight
		}
	}
	return 0
}

func (e *Engine) sortedBands() []TargetBand {
	bands := make([]TargetBand, len(e.TargetWeights))
	copy(bands, e.TargetWeights)
	sort.Slice(bands, func(i, j int) bool { return bands[i].MinScore > bands[j].MinScore })
	return bands
}

// Validate rejects parameter sets that would make every evaluation wrong.
func (e *Engine) Validate() error {
	for name, w := range map[string]float64{"thesis": e.Weights.Thesis, "valuation": e.Weights.Valuation, "trend": e.Weights.Trend} {
		if !within(w, 0, 1) {
			return fmt.Errorf("engine.weights.%s must be within [0,1], got %v", name, w)
		}
	}
	if sum := e.Weights.Sum(); !(math.Abs(sum-1.0) <= 1e-9) {
		return fmt.Errorf("%w: got %v", ErrWeightsSum, sum)
	}

	for key, c := range e.BaseCaps {
		if !model.AssetClass(key).Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownAssetClass, key)
		}
		if !within(c, 0, 100) || c == 0 {
			return fmt.Errorf("engine.base_caps.%s must be within (0,100], got %v", key, c)
		}
	}
	for _, class := range model.AssetClasses {
		if _, ok := e.BaseCaps[string(class)]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingAssetClass, class)
		}
	}

	if len(e.TargetWeights) == 0 {
		return errors.New("engine.target_weights must not be empty")
	}
	for _, b := range e.TargetWeights {
		if !within(b.Weight, 0, 100) {
			return fmt.Errorf("engine.target_weights: weight for score %d out of range: %v", b.MinScore, b.Weight)
		}
	}

	if !within(e.MaxUpsideMultiplier, 1, math.MaxFloat64) {
		return fmt.Errorf("engine.max_upside_multiplier must be >= 1, got %v", e.MaxUpsideMultiplier)
	}
	if !within(e.InflectionMultiplier, 1, math.MaxFloat64) {
		return fmt.Errorf("engine.inflection_multiplier must be >= 1, got %v", e.InflectionMultiplier)
	}
	if !within(e.LowConvictionMultiplier, 0, 1) {
		return fmt.Errorf("engine.low_conviction_multiplier must be within [0,1], got %v", e.LowConvictionMultiplier)
	}
	if !within(e.CautionMultiplier, 0, 1) {
		return fmt.Errorf("engine.caution_multiplier must be within [0,1], got %v", e.CautionMultiplier)
	}
	if !within(e.BlockedConfidenceCap, 0, 100) {
		return fmt.Errorf("engine.blocked_confidence_cap must be within [0,100], got %v", e.BlockedConfidenceCap)
	}
	if e.RedFlagBlockCount < 1 {
		return fmt.Errorf("engine.red_flag_block_count must be positive, got %d", e.RedFlagBlockCount)
	}
	if e.WMAPeriod < 2 {
		return fmt.Errorf("engine.wma_period must be >= 2, got %d", e.WMAPeriod)
	}
	if e.SlopeLookback < 1 {
		return fmt.Errorf("engine.slope_lookback must be >= 1, got %d", e.SlopeLookback)
	}
	if e.Workers < 1 {
		return fmt.Errorf("engine.workers must be >= 1, got %d", e.Workers)
	}
	return nil
}

// within reports lo <= v <= hi. NaN is never within any range.
func within(v, lo, hi float64) bool { return v >= lo && v <= hi }
