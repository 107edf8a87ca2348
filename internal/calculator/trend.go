package calculator

import (
	"math"

	"PortfolioSentinel/internal/model"
)

type priceSide int

const (
	priceBelow priceSide = iota
	priceAt
	priceAbove
)

type slopeDir int

const (
	slopeFalling slopeDir = iota
	slopeFlat
	slopeRising
)

// weinsteinTable is the stage table over (price vs WMA) x (WMA slope).
// At-the-line and flat-slope cells never resolve to Advance or Decline.
var weinsteinTable = map[priceSide]map[slopeDir]model.TrendPhase{
	priceAbove: {slopeRising: model.TrendAdvance, slopeFlat: model.TrendTop, slopeFalling: model.TrendTop},
	priceAt:    {slopeRising: model.TrendBase, slopeFlat: model.TrendBase, slopeFalling: model.TrendTop},
	priceBelow: {slopeRising: model.TrendBase, slopeFlat: model.TrendBase, slopeFalling: model.TrendDecline},
}

// Trend is the result of a Weinstein classification.
type Trend struct {
	Phase         model.TrendPhase
	WMA           float64
	PriorWMA      float64
	SlopePct      float64 // change of the WMA over the lookback, in percent
	PriceVsWMAPct float64
	BelowWMA      bool
}

// Known reports whether the classifier had enough data.
func (t Trend) Known() bool { return t.Phase != model.TrendUnknown }

// ClassifyTrend classifies price against an already computed WMA series.
// The slope compares the last WMA value with the one slopeLookback periods earlier.
func ClassifyTrend(price *float64, wma []float64, slopeLookback int) Trend {
	unknown := Trend{Phase: model.TrendUnknown}
	if price == nil || *price <= 0 || math.IsNaN(*price) || math.IsInf(*price, 0) {
		return unknown
	}
	if slopeLookback < 1 || len(wma) < slopeLookback+1 {
		return unknown
	}

	cur := wma[len(wma)-1]
	prior := wma[len(wma)-1-slopeLookback]
	if !finite(cur) || !finite(prior) || cur <= 0 || prior <= 0 {
		return unknown
	}

	side := priceAt
	switch {
	case *price > cur:
		side = priceAbove
	case *price < cur:
		side = priceBelow
	}
	dir := slopeFlat
	switch {
	case cur > prior:
		dir = slopeRising
	case cur < prior:
		dir = slopeFalling
	}

	return Trend{
		Phase:         weinsteinTable[side][dir],
		WMA:           cur,
		PriorWMA:      prior,
		SlopePct:      (cur - prior) / prior * 100,
		PriceVsWMAPct: (*price - cur) / cur * 100,
		BelowWMA:      side == priceBelow,
	}
}

// ClassifyTrendFromCloses computes the WMA over closes and classifies price against it.
// Fewer than period+slopeLookback closes yields an Unknown phase.
func ClassifyTrendFromCloses(price *float64, closes []float64, period, slopeLookback int) Trend {
	if len(closes) < period+slopeLookback {
		return Trend{Phase: model.TrendUnknown}
	}
	wma, err := WeightedMovingAverage(closes, period)
	if err != nil {
		return Trend{Phase: model.TrendUnknown}
	}
	return ClassifyTrend(price, wma, slopeLookback)
}
