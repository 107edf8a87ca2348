package model

import "fmt"

// AssetClass drives the base allocation cap of a position.
type AssetClass string

const (
	AssetCoreGrower       AssetClass = "core-grower"
	AssetHighBetaCyclical AssetClass = "high-beta-cyclical"
	AssetBinaryOutcome    AssetClass = "binary-outcome"
	AssetTurnaround       AssetClass = "turnaround"
)

// AssetClasses lists every supported asset class.
var AssetClasses = []AssetClass{AssetCoreGrower, AssetHighBetaCyclical, AssetBinaryOutcome, AssetTurnaround}

// Valid reports whether a is one of the known asset classes.
func (a AssetClass) Valid() bool {
	for _, c := range AssetClasses {
		if a == c {
			return true
		}
	}
	return false
}

// LifecyclePhase is the business-lifecycle stage of a company.
type LifecyclePhase string

const (
	PhaseWaitTime         LifecyclePhase = "wait-time"
	PhaseUpcoming         LifecyclePhase = "upcoming"
	PhaseActiveInflection LifecyclePhase = "active-inflection"
)

// ParseLifecyclePhase converts a tag into a LifecyclePhase.
func ParseLifecyclePhase(s string) (LifecyclePhase, error) {
	switch p := LifecyclePhase(s); p {
	case PhaseWaitTime, PhaseUpcoming, PhaseActiveInflection:
		return p, nil
	}
	return "", fmt.Errorf("unknown lifecycle phase %q", s)
}

// Investable reports whether new money may go into a company in this phase.
func (p LifecyclePhase) Investable() bool { return p != PhaseWaitTime }

// Security is a tracked ticker with its thesis and reference prices.
// The decision engine only reads it.
type Security struct {
	Ticker          string          `json:"ticker"`
	ConvictionScore *int            `json:"conviction_score,omitempty"`
	AssetClass      AssetClass      `json:"asset_class"`
	LifecycleTag    *LifecyclePhase `json:"lifecycle_tag,omitempty"`
	CashOnHand      *float64        `json:"cash_on_hand,omitempty"`
	QuarterlyBurn   *float64        `json:"quarterly_burn,omitempty"`
	GreenLine       *float64        `json:"green_line,omitempty"`
	RedLine         *float64        `json:"red_line,omitempty"`
	GreyLine        *float64        `json:"grey_line,omitempty"`
	PriceTarget     *float64        `json:"price_target,omitempty"`
	CurrentPrice    *float64        `json:"current_price,omitempty"`
	ThesisNarrative string          `json:"thesis_narrative,omitempty"`
	NextCatalyst    string          `json:"next_catalyst,omitempty"`
	InsiderActivity string          `json:"insider_activity,omitempty"`
	MilestoneCount  int             `json:"milestone_count"`
	RedFlagCount    int             `json:"red_flag_count"`
	DilutionRisk    bool            `json:"dilution_risk"`
}

// Target returns the price target, falling back to the red line.
func (s *Security) Target() *float64 {
	if s.PriceTarget != nil {
		return s.PriceTarget
	}
	return s.RedLine
}

// Clone returns a deep copy so callers can hand out snapshots.
func (s Security) Clone() Security {
	c := s
	c.ConvictionScore = cloneInt(s.ConvictionScore)
	c.CashOnHand = cloneFloat(s.CashOnHand)
	c.QuarterlyBurn = cloneFloat(s.QuarterlyBurn)
	c.GreenLine = cloneFloat(s.GreenLine)
	c.RedLine = cloneFloat(s.RedLine)
	c.GreyLine = cloneFloat(s.GreyLine)
	c.PriceTarget = cloneFloat(s.PriceTarget)
	c.CurrentPrice = cloneFloat(s.CurrentPrice)
	if s.LifecycleTag != nil {
		t := *s.LifecycleTag
		c.LifecycleTag = &t
	}
	return c
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
