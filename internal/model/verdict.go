package model

import "strings"

// TrendPhase is the Weinstein stage of a ticker.
type TrendPhase string

const (
	TrendUnknown TrendPhase = "unknown"
	TrendBase    TrendPhase = "base"
	TrendAdvance TrendPhase = "advance"
	TrendTop     TrendPhase = "top"
	TrendDecline TrendPhase = "decline"
)

// RunwayStatus buckets the months of cash a company has left.
type RunwayStatus string

const (
	RunwayUnknown RunwayStatus = "unknown"
	RunwayHealthy RunwayStatus = "healthy"
	RunwayCaution RunwayStatus = "caution"
	RunwayDanger  RunwayStatus = "danger"
)

// PriceZone classifies the current price against the green and red lines.
type PriceZone string

const (
	ZoneUnknown    PriceZone = "unknown"
	ZoneDeepValue  PriceZone = "deep-value"
	ZoneBuy        PriceZone = "buy-zone"
	ZoneAccumulate PriceZone = "accumulate"
	ZoneFairValue  PriceZone = "fair-value"
	ZoneSell       PriceZone = "sell-zone"
	ZoneOvervalued PriceZone = "overvalued"
)

// TradingSignal is the price-line trading hint derived from max-buy and start-sell bounds.
type TradingSignal string

const (
	TradeUnknown       TradingSignal = "unknown"
	TradeAggressiveBuy TradingSignal = "aggressive-buy"
	TradeBuy           TradingSignal = "buy"
	TradeHold          TradingSignal = "hold"
	TradeSell          TradingSignal = "sell"
	TradeStrongSell    TradingSignal = "strong-sell"
)

// SignalStrength is the banded form of buy confidence.
type SignalStrength string

const (
	StrengthStrongBuy SignalStrength = "strong-buy"
	StrengthBuy       SignalStrength = "buy"
	StrengthWeakBuy   SignalStrength = "weak-buy"
	StrengthNeutral   SignalStrength = "neutral"
	StrengthAvoid     SignalStrength = "avoid"
)

// Action is the final recommendation for a ticker.
type Action string

const (
	ActionHardExit   Action = "hard-exit"
	ActionSell       Action = "sell"
	ActionTrim       Action = "trim"
	ActionFreeRide   Action = "free-ride"
	ActionHold       Action = "hold"
	ActionSniper     Action = "sniper"
	ActionAccumulate Action = "accumulate"
)

// ComponentScores are the three pillar scores, each 0-100.
type ComponentScores struct {
	Thesis    float64 `json:"thesis"`
	Valuation float64 `json:"valuation"`
	Trend     float64 `json:"trend"`
}

// Verdict is the full output of one evaluation. It is a plain record.
type Verdict struct {
	Ticker             string          `json:"ticker"`
	AlertLevel         AlertLevel      `json:"alert_level,omitempty"`
	BuyConfidence      float64         `json:"buy_confidence"`
	SignalStrength     SignalStrength  `json:"signal_strength"`
	Blocked            bool            `json:"blocked"`
	BlockReasons       []string        `json:"block_reasons,omitempty"`
	Components         ComponentScores `json:"components"`
	TrendPhase         TrendPhase      `json:"trend_phase"`
	RunwayMonths       *float64        `json:"runway_months,omitempty"`
	RunwayStatus       RunwayStatus    `json:"runway_status"`
	LifecyclePhase     LifecyclePhase  `json:"lifecycle_phase"`
	PriceZone          PriceZone       `json:"price_zone"`
	TradingSignal      TradingSignal   `json:"trading_signal"`
	RiskToFloorPct     *float64        `json:"risk_to_floor_pct,omitempty"`
	UpsideToCeilingPct *float64        `json:"upside_to_ceiling_pct,omitempty"`
	MaxAllocationCap   float64         `json:"max_allocation_cap"`
	TargetWeight       float64         `json:"target_weight"`
	CurrentWeight      float64         `json:"current_weight"`
	Action             Action          `json:"action"`
	ActionGuard        string          `json:"action_guard"`
	Reasoning          []string        `json:"reasoning"`
	DataGaps           []string        `json:"data_gaps,omitempty"`
}

// BlockReason joins the block reasons into a single line.
func (v *Verdict) BlockReason() string {
	return strings.Join(v.BlockReasons, "; ")
}
