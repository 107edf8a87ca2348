package calculator

import (
	"math"

	"PortfolioSentinel/internal/model"
)

// Runway flags explain why a runway was forced to a status.
const (
	FlagMissingInput     = "missing cash or burn"
	FlagInvalidInput     = "non-finite cash or burn"
	FlagNegativeCash     = "negative cash on hand"
	FlagZeroDivisor      = "zero monthly burn divisor"
	FlagCashFlowPositive = "cash-flow positive"
)

// Runway band edges in months.
const (
	RunwayHealthyAbove = 12.0
	RunwayDangerBelow  = 6.0
)

// Runway is the months-of-survival estimate for a company.
// Months is nil when the runway is infinite or could not be computed.
type Runway struct {
	Months   *float64
	Status   model.RunwayStatus
	Infinite bool
	Flags    []string
}

// AtLeast reports whether the runway covers at least months.
func (r Runway) AtLeast(months float64) bool {
	if r.Infinite {
		return true
	}
	return r.Months != nil && *r.Months >= months
}

// CalculateRunway derives runway months from cash on hand and the most recent
// quarterly burn (negative means net outflow). It never panics and never returns
// NaN; bad arithmetic resolves to Danger with a flag.
func CalculateRunway(cash, quarterlyBurn *float64) Runway {
	if cash == nil || quarterlyBurn == nil {
		return Runway{Status: model.RunwayUnknown, Flags: []string{FlagMissingInput}}
	}
	c, b := *cash, *quarterlyBurn
	if !finite(c) || !finite(b) {
		return Runway{Status: model.RunwayDanger, Flags: []string{FlagInvalidInput}}
	}
	if c < 0 {
		return Runway{Months: model.Float(0), Status: model.RunwayDanger, Flags: []string{FlagNegativeCash}}
	}
	if b >= 0 {
		return Runway{Status: model.RunwayHealthy, Infinite: true, Flags: []string{FlagCashFlowPositive}}
	}

	monthly := math.Abs(b) / 3
	if monthly == 0 {
		return Runway{Status: model.RunwayDanger, Flags: []string{FlagZeroDivisor}}
	}
	months := c / monthly
	if !finite(months) {
		return Runway{Status: model.RunwayDanger, Flags: []string{FlagInvalidInput}}
	}
	return Runway{Months: &months, Status: RunwayStatusFor(months)}
}

// RunwayStatusFor buckets a finite month count.
func RunwayStatusFor(months float64) model.RunwayStatus {
	switch {
	case months > RunwayHealthyAbove:
		return model.RunwayHealthy
	case months >= RunwayDangerBelow:
		return model.RunwayCaution
	default:
		return model.RunwayDanger
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
