package strategy

import (
	"errors"
	"fmt"
	"math"

	"PortfolioSentinel/internal/calculator"
	"PortfolioSentinel/internal/config"
	"PortfolioSentinel/internal/model"
)

// ErrUnknownAssetClass is returned for a security whose asset class has no configured cap.
var ErrUnknownAssetClass = errors.New("unknown asset class")

// Sizing is the allocation recommendation for one ticker. All weights are in percent.
type Sizing struct {
	BaseCap            float64
	UpsideMultiplier   float64
	DownsideMultiplier float64
	MaxCap             float64
	TargetWeight       float64
	Applied            []string
	DataGaps           []string
}

// SizingInput is what the sizer needs from a security.
type SizingInput struct {
	AssetClass model.AssetClass
	Conviction *int
	Phase      model.LifecyclePhase
	Runway     calculator.Runway
}

// Sizer turns conviction, lifecycle and runway into a maximum allocation cap.
type Sizer struct {
	cfg *config.Engine
}

// NewSizer returns a sizer over validated engine parameters.
func NewSizer(cfg *config.Engine) *Sizer {
	return &Sizer{cfg: cfg}
}

// Size computes the cap and target weight. Downward multipliers compound freely;
// upward ones are capped at the configured upside multiplier.
func (s *Sizer) Size(in SizingInput) (Sizing, error) {
	var out Sizing

	if in.AssetClass == "" {
		out.BaseCap = s.cfg.SmallestBaseCap()
		out.DataGaps = append(out.DataGaps, "asset class missing, using the smallest base cap")
	} else {
		base, ok := s.cfg.BaseCap(in.AssetClass)
		if !ok {
			return Sizing{}, fmt.Errorf("%w: %q", ErrUnknownAssetClass, in.AssetClass)
		}
		out.BaseCap = base
	}

	up, down := 1.0, 1.0
	if in.Conviction == nil || *in.Conviction < s.cfg.LowConvictionBelow {
		down *= s.cfg.LowConvictionMultiplier
		out.Applied = append(out.Applied, fmt.Sprintf("low conviction x%.2f", s.cfg.LowConvictionMultiplier))
	}
	switch in.Runway.Status {
	case model.RunwayDanger:
		down = 0
		out.Applied = append(out.Applied, "runway danger x0 (hard stop)")
	case model.RunwayCaution:
		down *= s.cfg.CautionMultiplier
		out.Applied = append(out.Applied, fmt.Sprintf("runway caution x%.2f", s.cfg.CautionMultiplier))
	}
	if in.Phase == model.PhaseActiveInflection {
		up *= s.cfg.InflectionMultiplier
		out.Applied = append(out.Applied, fmt.Sprintf("active inflection x%.2f", s.cfg.InflectionMultiplier))
	}

	up = math.Min(up, s.cfg.MaxUpsideMultiplier)
	out.UpsideMultiplier = up
	out.DownsideMultiplier = down
	out.MaxCap = math.Min(out.BaseCap*up*down, out.BaseCap*s.cfg.MaxUpsideMultiplier)

	if in.Conviction == nil {
		out.DataGaps = append(out.DataGaps, "conviction score missing, target weight set to zero")
	} else {
		out.TargetWeight = s.cfg.TargetWeightFor(*in.Conviction)
	}
	out.TargetWeight = math.Min(out.TargetWeight, out.MaxCap)
	return out, nil
}
