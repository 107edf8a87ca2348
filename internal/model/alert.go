package model

import (
	"fmt"
	"time"
)

// AlertLevel is the traffic-light market regime.
type AlertLevel string

const (
	AlertGreen  AlertLevel = "green"
	AlertYellow AlertLevel = "yellow"
	AlertOrange AlertLevel = "orange"
	AlertRed    AlertLevel = "red"
)

// ParseAlertLevel validates a level name.
func ParseAlertLevel(s string) (AlertLevel, error) {
	switch l := AlertLevel(s); l {
	case AlertGreen, AlertYellow, AlertOrange, AlertRed:
		return l, nil
	}
	return "", fmt.Errorf("unknown alert level %q", s)
}

// MarketAlert is one row of the append-only alert log.
// EffectiveUntil is nil for the currently active row.
type MarketAlert struct {
	ID             int64      `json:"id"`
	Level          AlertLevel `json:"level"`
	StockPct       float64    `json:"stock_pct"`
	CashPct        float64    `json:"cash_pct"`
	HedgePct       float64    `json:"hedge_pct"`
	Note           string     `json:"note,omitempty"`
	EffectiveFrom  time.Time  `json:"effective_from"`
	EffectiveUntil *time.Time `json:"effective_until,omitempty"`
}

// Active reports whether this is the current row.
func (a *MarketAlert) Active() bool { return a.EffectiveUntil == nil }
