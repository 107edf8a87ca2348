package strategy

import (
	"fmt"
	"math"

	"PortfolioSentinel/internal/calculator"
	"PortfolioSentinel/internal/model"
)

// Gate thresholds.
const (
	HardExitBelow       = 4
	FreeRideProfitPct   = 150.0
	BubbleTargetFactor  = 1.5
	SniperConviction    = 9
	SniperRunwayMonths  = 18.0
	AccumulateFromScore = 7
)

// GateInput is the snapshot the guard list is evaluated against.
type GateInput struct {
	Conviction    *int
	Runway        calculator.Runway
	Phase         model.LifecyclePhase
	Zone          model.PriceZone
	Blocked       bool
	Price         *float64
	Target        *float64
	AvgCost       float64
	Held          bool
	CurrentWeight float64
	TargetWeight  float64
	MaxCap        float64
}

func (in GateInput) conviction() (int, bool) {
	if in.Conviction == nil {
		return 0, false
	}
	return *in.Conviction, true
}

func (in GateInput) priceAndTarget() (float64, float64, bool) {
	if in.Price == nil || in.Target == nil || !(*in.Target > 0) || math.IsInf(*in.Target, 1) {
		return 0, 0, false
	}
	return *in.Price, *in.Target, true
}

func (in GateInput) profitPct() (float64, bool) {
	if !in.Held || in.AvgCost <= 0 || in.Price == nil {
		return 0, false
	}
	return (*in.Price - in.AvgCost) / in.AvgCost * 100, true
}

// Guard is one (predicate, action) pair of the decision list.
type Guard struct {
	Name   string
	Action model.Action
	When   func(in GateInput) bool
	Reason func(in GateInput) string
}

// Decision is the outcome of the guard list.
type Decision struct {
	Action model.Action
	Guard  string
	Reason string
}

// DefaultGuards is the priority-ordered decision list. Solvency and thesis checks
// come before any opportunity check.
var DefaultGuards = []Guard{
	{
		Name:   "thesis-broken",
		Action: model.ActionHardExit,
		When: func(in GateInput) bool {
			c, ok := in.conviction()
			return ok && c < HardExitBelow
		},
		Reason: func(in GateInput) string {
			return fmt.Sprintf("conviction %d is below %d, thesis broken", *in.Conviction, HardExitBelow)
		},
	},
	{
		Name:   "runway-danger",
		Action: model.ActionSell,
		When:   func(in GateInput) bool { return in.Runway.Status == model.RunwayDanger },
		Reason: func(GateInput) string { return "cash runway in danger" },
	},
	{
		Name:   "over-weight",
		Action: model.ActionTrim,
		When:   func(in GateInput) bool { return in.Held && in.CurrentWeight > in.MaxCap },
		Reason: func(in GateInput) string {
			return fmt.Sprintf("weight %.1f%% exceeds cap %.1f%%", in.CurrentWeight, in.MaxCap)
		},
	},
	{
		Name:   "free-ride",
		Action: model.ActionFreeRide,
		When: func(in GateInput) bool {
			p, t, ok := in.priceAndTarget()
			profit, held := in.profitPct()
			return ok && held && p >= t && profit >= FreeRideProfitPct
		},
		Reason: func(in GateInput) string {
			profit, _ := in.profitPct()
			return fmt.Sprintf("target reached with %.0f%% profit, trim half and ride the rest", profit)
		},
	},
	{
		Name:   "bubble",
		Action: model.ActionSell,
		When: func(in GateInput) bool {
			p, t, ok := in.priceAndTarget()
			return ok && p > t*BubbleTargetFactor
		},
		Reason: func(in GateInput) string {
			return fmt.Sprintf("price %.2f is more than %.1fx the target %.2f", *in.Price, BubbleTargetFactor, *in.Target)
		},
	},
	{
		Name:   "target-reached",
		Action: model.ActionHold,
		When: func(in GateInput) bool {
			p, t, ok := in.priceAndTarget()
			return ok && p >= t
		},
		Reason: func(in GateInput) string { return fmt.Sprintf("price at or above target %.2f", *in.Target) },
	},
	{
		Name:   "blocked",
		Action: model.ActionHold,
		When:   func(in GateInput) bool { return in.Blocked },
		Reason: func(GateInput) string { return "hard block active, no buy authorized" },
	},
	// wait-time companies take no new money, whatever the conviction
	{
		Name:   "not-investable",
		Action: model.ActionHold,
		When:   func(in GateInput) bool { return in.Phase == model.PhaseWaitTime },
		Reason: func(GateInput) string { return "company is in wait-time, no new money" },
	},
	{
		Name:   "sniper",
		Action: model.ActionSniper,
		When: func(in GateInput) bool {
			c, ok := in.conviction()
			return ok && c >= SniperConviction &&
				in.Runway.AtLeast(SniperRunwayMonths) &&
				(in.Zone == model.ZoneDeepValue || in.Zone == model.ZoneBuy)
		},
		Reason: func(in GateInput) string {
			return fmt.Sprintf("max conviction %d with %s price and long runway", *in.Conviction, in.Zone)
		},
	},
	{
		Name:   "accumulate",
		Action: model.ActionAccumulate,
		When: func(in GateInput) bool {
			c, ok := in.conviction()
			return ok && c >= AccumulateFromScore && in.CurrentWeight < in.TargetWeight
		},
		Reason: func(in GateInput) string {
			return fmt.Sprintf("weight %.1f%% below target %.1f%%", in.CurrentWeight, in.TargetWeight)
		},
	},
	{
		Name:   "default",
		Action: model.ActionHold,
		When:   func(GateInput) bool { return true },
		Reason: func(GateInput) string { return "no rule fired" },
	},
}

// Gatekeeper evaluates a guard list; the first matching guard wins.
type Gatekeeper struct {
	guards []Guard
}

// NewGatekeeper returns a gatekeeper over guards, or DefaultGuards when none are given.
func NewGatekeeper(guards ...Guard) *Gatekeeper {
	if len(guards) == 0 {
		guards = DefaultGuards
	}
	return &Gatekeeper{guards: guards}
}

// Decide walks the guard list in order.
func (g *Gatekeeper) Decide(in GateInput) Decision {
	for _, guard := range g.guards {
		if guard.When(in) {
			return Decision{Action: guard.Action, Guard: guard.Name, Reason: guard.Reason(in)}
		}
	}
	return Decision{Action: model.ActionHold, Guard: "none", Reason: "empty guard list"}
}
