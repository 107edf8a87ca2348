package calculator

import "PortfolioSentinel/internal/model"

// Price line multipliers.
const (
	BuyZoneBand     = 1.05 // upper edge of the buy zone, over the green line
	AccumulateCeil  = 0.85 // fair value starts at red x 0.85
	OvervaluedFloor = 1.15 // overvalued starts at red x 1.15
	StartSellFactor = 0.95
	MaxBuyFactor    = BuyZoneBand
)

// PriceLines is the price-line evaluation of a ticker.
type PriceLines struct {
	Zone               model.PriceZone
	Signal             model.TradingSignal
	RiskToFloorPct     *float64
	UpsideToCeilingPct *float64
	MaxBuyPrice        *float64
	StartSellPrice     *float64
	GreyBreached       bool
	Reason             string
}

type zoneRule struct {
	zone  model.PriceZone
	match func(p, green, red float64) bool
}

// zoneRules is ordered and each rule carries both of its bounds, so the rules
// partition the price axis whenever green < red.
var zoneRules = []zoneRule{
	{model.ZoneDeepValue, func(p, g, r float64) bool { return p <= g }},
	{model.ZoneBuy, func(p, g, r float64) bool { return p > g && p <= g*BuyZoneBand }},
	{model.ZoneAccumulate, func(p, g, r float64) bool { return p > g*BuyZoneBand && p < r*AccumulateCeil }},
	{model.ZoneFairValue, func(p, g, r float64) bool { return p >= r*AccumulateCeil && p < r && p > g*BuyZoneBand }},
	{model.ZoneSell, func(p, g, r float64) bool { return p >= r && p < r*OvervaluedFloor && p > g*BuyZoneBand }},
	{model.ZoneOvervalued, func(p, g, r float64) bool { return p >= r*OvervaluedFloor && p > g*BuyZoneBand }},
}

type signalRule struct {
	signal model.TradingSignal
	match  func(p, green, maxBuy, startSell, red float64) bool
}

var signalRules = []signalRule{
	{model.TradeAggressiveBuy, func(p, g, mb, ss, r float64) bool { return p <= g }},
	{model.TradeBuy, func(p, g, mb, ss, r float64) bool { return p <= mb }},
	{model.TradeHold, func(p, g, mb, ss, r float64) bool { return p < ss }},
	{model.TradeSell, func(p, g, mb, ss, r float64) bool { return p < r }},
	{model.TradeStrongSell, func(p, g, mb, ss, r float64) bool { return true }},
}

// ClassifyZone returns the first zone whose rule matches.
func ClassifyZone(price, green, red float64) model.PriceZone {
	for _, rule := range zoneRules {
		if rule.match(price, green, red) {
			return rule.zone
		}
	}
	return model.ZoneUnknown
}

// EvaluatePriceLines computes offsets, zone and trading signal.
// Missing or non-finite lines and a non-positive price yield the unknown zone.
func EvaluatePriceLines(current, green, red, grey *float64) PriceLines {
	out := PriceLines{Zone: model.ZoneUnknown, Signal: model.TradeUnknown}
	switch {
	case current == nil || !finite(*current) || *current <= 0:
		out.Reason = "current price unavailable"
		return out
	case green == nil || red == nil:
		out.Reason = "green or red line missing"
		return out
	case !finite(*green) || !finite(*red):
		out.Reason = "green or red line is not a number"
		return out
	case *green <= 0 || *green >= *red:
		out.Reason = "green line must be positive and below the red line"
		return out
	}

	p, g, r := *current, *green, *red
	risk := (p - g) / p * 100
	upside := (r - p) / p * 100
	maxBuy := g * MaxBuyFactor
	startSell := r * StartSellFactor

	out.RiskToFloorPct = &risk
	out.UpsideToCeilingPct = &upside
	out.MaxBuyPrice = &maxBuy
	out.StartSellPrice = &startSell
	out.Zone = ClassifyZone(p, g, r)
	for _, rule := range signalRules {
		if rule.match(p, g, maxBuy, startSell, r) {
			out.Signal = rule.signal
			break
		}
	}
	if grey != nil && finite(*grey) && *grey > 0 && p <= *grey {
		out.GreyBreached = true
	}
	return out
}
