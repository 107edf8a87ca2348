package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MarketSnapshot is what the market-data collector hands to the engine.
// Any field may be nil (or empty) when the provider could not supply it.
type MarketSnapshot struct {
	Symbol        string
	CurrentPrice  *float64
	WeeklyCloses  []float64
	CashOnHand    *float64
	QuarterlyBurn *float64
	Stale         bool
	FetchedAt     time.Time
}

// Float returns a pointer to v. Handy for building nullable inputs.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
