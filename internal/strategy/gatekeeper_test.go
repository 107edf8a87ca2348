package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"PortfolioSentinel/internal/calculator"
	"PortfolioSentinel/internal/model"
)

func TestGatekeeper_Decide(t *testing.T) {
	longRunway := calculator.Runway{Months: model.Float(24), Status: model.RunwayHealthy}
	tests := []struct {
		name  string
		in    GateInput
		want  model.Action
		guard string
	}{
		{
			name:  "broken thesis beats everything",
			in:    GateInput{Conviction: model.Int(2), Runway: longRunway, Zone: model.ZoneDeepValue, Price: model.Float(20), Target: model.Float(10)},
			want:  model.ActionHardExit,
			guard: "thesis-broken",
		},
		{
			name:  "danger runway sells",
			in:    GateInput{Conviction: model.Int(9), Runway: calculator.Runway{Months: model.Float(4), Status: model.RunwayDanger}, Zone: model.ZoneDeepValue},
			want:  model.ActionSell,
			guard: "runway-danger",
		},
		{
			name:  "over cap trims",
			in:    GateInput{Conviction: model.Int(9), Runway: longRunway, Held: true, CurrentWeight: 14, MaxCap: 12, Zone: model.ZoneDeepValue},
			want:  model.ActionTrim,
			guard: "over-weight",
		},
		{
			name: "free ride after a big gain",
			in: GateInput{Conviction: model.Int(8), Runway: longRunway, Held: true, AvgCost: 4,
				Price: model.Float(10), Target: model.Float(10), CurrentWeight: 5, MaxCap: 12},
			want:  model.ActionFreeRide,
			guard: "free-ride",
		},
		{
			name:  "bubble sells",
			in:    GateInput{Conviction: model.Int(8), Runway: longRunway, Price: model.Float(16), Target: model.Float(10)},
			want:  model.ActionSell,
			guard: "bubble",
		},
		{
			name:  "target reached holds",
			in:    GateInput{Conviction: model.Int(8), Runway: longRunway, Price: model.Float(11), Target: model.Float(10), TargetWeight: 12},
			want:  model.ActionHold,
			guard: "target-reached",
		},
		{
			name:  "blocked never buys",
			in:    GateInput{Conviction: model.Int(10), Runway: longRunway, Blocked: true, Zone: model.ZoneDeepValue, TargetWeight: 15},
			want:  model.ActionHold,
			guard: "blocked",
		},
		{
			name:  "wait-time never buys",
			in:    GateInput{Conviction: model.Int(10), Runway: longRunway, Phase: model.PhaseWaitTime, Zone: model.ZoneDeepValue, TargetWeight: 15},
			want:  model.ActionHold,
			guard: "not-investable",
		},
		{
			name:  "sniper entry",
			in:    GateInput{Conviction: model.Int(9), Runway: longRunway, Phase: model.PhaseUpcoming, Zone: model.ZoneBuy},
			want:  model.ActionSniper,
			guard: "sniper",
		},
		{
			name:  "sniper needs eighteen months",
			in:    GateInput{Conviction: model.Int(9), Runway: calculator.Runway{Months: model.Float(15), Status: model.RunwayHealthy}, Zone: model.ZoneDeepValue, TargetWeight: 15},
			want:  model.ActionAccumulate,
			guard: "accumulate",
		},
		{
			name:  "accumulate toward target",
			in:    GateInput{Conviction: model.Int(7), Runway: longRunway, Zone: model.ZoneFairValue, CurrentWeight: 4, TargetWeight: 10},
			want:  model.ActionAccumulate,
			guard: "accumulate",
		},
		{
			name:  "at target holds",
			in:    GateInput{Conviction: model.Int(7), Runway: longRunway, Zone: model.ZoneFairValue, CurrentWeight: 10, TargetWeight: 10},
			want:  model.ActionHold,
			guard: "default",
		},
		{
			name:  "missing conviction holds",
			in:    GateInput{Runway: longRunway, Zone: model.ZoneDeepValue},
			want:  model.ActionHold,
			guard: "default",
		},
	}
	g := NewGatekeeper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Decide(tt.in)
			assert.Equal(t, tt.want, got.Action)
			assert.Equal(t, tt.guard, got.Guard)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestGatekeeper_CustomGuards(t *testing.T) {
	g := NewGatekeeper(Guard{
		Name:   "always-trim",
		Action: model.ActionTrim,
		When:   func(GateInput) bool { return true },
		Reason: func(GateInput) string { return "test" },
	})
	got := g.Decide(GateInput{Conviction: model.Int(1)})
	assert.Equal(t, model.ActionTrim, got.Action)
	assert.Equal(t, "always-trim", got.Guard)
}

func TestGatekeeper_ProtectiveGuardsComeFirst(t *testing.T) {
	protective := map[model.Action]bool{model.ActionHardExit: true, model.ActionSell: true, model.ActionTrim: true}
	seenOpportunity := false
	for _, g := range DefaultGuards {
		if g.Action == model.ActionSniper || g.Action == model.ActionAccumulate {
			seenOpportunity = true
		}
		if protective[g.Action] {
			assert.False(t, seenOpportunity, "guard %s comes after an opportunity guard", g.Name)
		}
	}
	assert.Equal(t, "default", DefaultGuards[len(DefaultGuards)-1].Name)
}

func TestDefaultGuards_Order(t *testing.T) {
	names := make([]string, len(DefaultGuards))
	for i, g := range DefaultGuards {
		names[i] = g.Name
	}
	assert.Equal(t, []string{
		"thesis-broken", "runway-danger", "over-weight", "free-ride", "bubble", "target-reached",
		"blocked", "not-investable", "sniper", "accumulate", "default",
	}, names)
}
