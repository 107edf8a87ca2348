package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"PortfolioSentinel/internal/model"
	"PortfolioSentinel/internal/recorder"
)

// actionRank orders actions from most to least urgent.
var actionRank = map[model.Action]int{
	model.ActionHardExit:   0,
	model.ActionSell:       1,
	model.ActionTrim:       2,
	model.ActionFreeRide:   3,
	model.ActionSniper:     4,
	model.ActionAccumulate: 5,
	model.ActionHold:       6,
}

// SortVerdicts orders verdicts by action urgency, then by buy confidence
// (highest first), then by ticker.
func SortVerdicts(vs []*model.Verdict) {
	sort.SliceStable(vs, func(i, j int) bool {
		ri, rj := actionRank[vs[i].Action], actionRank[vs[j].Action]
		if ri != rj {
			return ri < rj
		}
		if vs[i].BuyConfidence != vs[j].BuyConfidence {
			return vs[i].BuyConfidence > vs[j].BuyConfidence
		}
		return vs[i].Ticker < vs[j].Ticker
	})
}

// Failure is a ticker the batch could not evaluate.
type Failure struct {
	Ticker string
	Err    string
}

// Batch is everything a batch report shows.
type Batch struct {
	ID             string
	At             time.Time
	Alert          *model.MarketAlert
	Verdicts       []*model.Verdict
	Failures       []Failure
	PortfolioValue decimal.Decimal
	Currency       string
}

// FormatBatch renders a batch as markdown: a summary table followed by one
// section per verdict.
func FormatBatch(b Batch) string {
	verdicts := append([]*model.Verdict(nil), b.Verdicts...)
	SortVerdicts(verdicts)
	currency := b.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Portfolio verdicts | %s\n\n", b.At.Format("2006-01-02 15:04"))
	if b.ID != "" {
		fmt.Fprintf(&sb, "Batch `%s`\n\n", b.ID)
	}
	if b.Alert != nil {
		sb.WriteString(FormatAlert(b.Alert))
		sb.WriteString("\n")
	}
	if b.PortfolioValue.IsPositive() {
		fmt.Fprintf(&sb, "Portfolio value: **%s**\n\n", FormatMoney(b.PortfolioValue, currency))
	}

	if len(verdicts) > 0 {
		sb.WriteString("| Ticker | Action | Confidence | Zone | Trend | Runway | Cap | Target | Weight |\n")
		sb.WriteString("|---|---|---|---|---|---|---|---|---|\n")
		for _, v := range verdicts {
			fmt.Fprintf(&sb, "| %s | %s | %.1f | %s | %s | %s | %.1f%% | %.1f%% | %.1f%% |\n",
				v.Ticker, actionLabel(v), v.BuyConfidence, v.PriceZone, v.TrendPhase,
				runwayLabel(v), v.MaxAllocationCap, v.TargetWeight, v.CurrentWeight)
		}
		sb.WriteString("\n")
	}

	if len(b.Failures) > 0 {
		sb.WriteString("## Failed\n\n")
		for _, f := range b.Failures {
			fmt.Fprintf(&sb, "- **%s**: %s\n", f.Ticker, f.Err)
		}
		sb.WriteString("\n")
	}

	for _, v := range verdicts {
		sb.WriteString(FormatVerdict(v))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatVerdict renders one verdict as a markdown section.
func FormatVerdict(v *model.Verdict) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s: %s\n\n", v.Ticker, actionLabel(v))
	fmt.Fprintf(&sb, "- Buy confidence: %.1f (%s)\n", v.BuyConfidence, v.SignalStrength)
	fmt.Fprintf(&sb, "- Pillars: thesis %.0f, valuation %.0f, trend %.0f\n",
		v.Components.Thesis, v.Components.Valuation, v.Components.Trend)
	if v.Blocked {
		fmt.Fprintf(&sb, "- **Blocked**: %s\n", v.BlockReason())
	}
	fmt.Fprintf(&sb, "- Trend: %s | Runway: %s | Lifecycle: %s\n", v.TrendPhase, runwayLabel(v), v.LifecyclePhase)
	fmt.Fprintf(&sb, "- Price zone: %s (%s)", v.PriceZone, v.TradingSignal)
	if v.RiskToFloorPct != nil && v.UpsideToCeilingPct != nil {
		fmt.Fprintf(&sb, ", %+.1f%% to floor, %+.1f%% to ceiling", -*v.RiskToFloorPct, *v.UpsideToCeilingPct)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "- Sizing: cap %.2f%%, target %.2f%%, current %.2f%%\n", v.MaxAllocationCap, v.TargetWeight, v.CurrentWeight)
	if len(v.DataGaps) > 0 {
		fmt.Fprintf(&sb, "- Data gaps: %s\n", strings.Join(v.DataGaps, "; "))
	}
	if len(v.Reasoning) > 0 {
		sb.WriteString("\n<details><summary>Reasoning</summary>\n\n")
		for _, r := range v.Reasoning {
			fmt.Fprintf(&sb, "1. %s\n", r)
		}
		sb.WriteString("\n</details>\n")
	}
	return sb.String()
}

// FormatAlert renders the market alert line.
func FormatAlert(a *model.MarketAlert) string {
	if a == nil {
		return "No market alert has been set.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Market alert: **%s** (stock %.0f%% / cash %.0f%% / hedge %.0f%%) since %s",
		strings.ToUpper(string(a.Level)), a.StockPct, a.CashPct, a.HedgePct, a.EffectiveFrom.Format("2006-01-02"))
	if a.EffectiveUntil != nil {
		fmt.Fprintf(&sb, " until %s", a.EffectiveUntil.Format("2006-01-02"))
	}
	if a.Note != "" {
		fmt.Fprintf(&sb, ": %s", a.Note)
	}
	sb.WriteString("\n")
	return sb.String()
}

// FormatAlertHistory renders alerts newest first as a markdown list.
func FormatAlertHistory(alerts []model.MarketAlert) string {
	if len(alerts) == 0 {
		return "No market alert has been set.\n"
	}
	var sb strings.Builder
	for i := range alerts {
		sb.WriteString("- ")
		sb.WriteString(FormatAlert(&alerts[i]))
	}
	return sb.String()
}

// FormatVerdictHistory renders audit rows newest first as a markdown table.
func FormatVerdictHistory(ticker string, records []recorder.VerdictRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("No verdicts recorded for %s.\n", ticker)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s verdict history\n\n", ticker)
	sb.WriteString("| Recorded | Alert | Action | Confidence | Note |\n")
	sb.WriteString("|---|---|---|---:|---|\n")
	for _, r := range records {
		note := ""
		switch {
		case r.Error != "":
			note = "error: " + r.Error
		case r.Blocked && r.Verdict != nil:
			note = "blocked: " + r.Verdict.BlockReason()
		case r.Blocked:
			note = "blocked"
		}
		alert := string(r.AlertLevel)
		if alert == "" {
			alert = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %.1f | %s |\n",
			r.RecordedAt.Format("2006-01-02 15:04"), alert, strings.ToUpper(string(r.Action)), r.Confidence, note)
	}
	return sb.String()
}

// Render returns md unchanged, or styled for a terminal when pretty is set.
func Render(md string, pretty bool) (string, error) {
	if !pretty {
		return md, nil
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

func actionLabel(v *model.Verdict) string {
	label := strings.ToUpper(string(v.Action))
	if v.Action == model.ActionFreeRide {
		label += " (sell half)"
	}
	return label
}

func runwayLabel(v *model.Verdict) string {
	switch {
	case v.RunwayMonths != nil:
		return fmt.Sprintf("%.1f mo (%s)", *v.RunwayMonths, v.RunwayStatus)
	case v.RunwayStatus == model.RunwayHealthy:
		return "unlimited"
	default:
		return string(v.RunwayStatus)
	}
}
