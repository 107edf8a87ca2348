package model

import "github.com/shopspring/decimal"

// Position is a holding as reported by the portfolio subsystem.
type Position struct {
	Ticker       string  `json:"ticker"`
	Shares       float64 `json:"shares"`
	AvgCost      float64 `json:"avg_cost"`
	CurrentPrice float64 `json:"current_price"`
}

// MarketValue is shares times current price.
func (p Position) MarketValue() decimal.Decimal {
	return decimal.NewFromFloat(p.Shares).Mul(decimal.NewFromFloat(p.CurrentPrice))
}

// CostBasis is shares times average cost.
func (p Position) CostBasis() decimal.Decimal {
	return decimal.NewFromFloat(p.Shares).Mul(decimal.NewFromFloat(p.AvgCost))
}

// UnrealizedPL is market value minus cost basis.
func (p Position) UnrealizedPL() decimal.Decimal {
	return p.MarketValue().Sub(p.CostBasis())
}

// UnrealizedPLPct returns the gain over average cost in percent, or false
// when the average cost is not usable.
func (p Position) UnrealizedPLPct() (float64, bool) {
	if p.AvgCost <= 0 {
		return 0, false
	}
	cur := decimal.NewFromFloat(p.CurrentPrice)
	cost := decimal.NewFromFloat(p.AvgCost)
	return cur.Sub(cost).Div(cost).Mul(decimal.NewFromInt(100)).InexactFloat64(), true
}

// Weight returns the position's share of totalValue in percent.
// A non-positive total yields zero.
func (p Position) Weight(totalValue decimal.Decimal) float64 {
	if !totalValue.IsPositive() {
		return 0
	}
	return p.MarketValue().Div(totalValue).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// Held reports whether any shares are held.
func (p Position) Held() bool { return p.Shares > 0 }
