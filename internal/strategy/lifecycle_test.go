package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"PortfolioSentinel/internal/model"
)

func phasePtr(p model.LifecyclePhase) *model.LifecyclePhase { return &p }

func TestDefaultPhaseClassifier(t *testing.T) {
	tests := []struct {
		name   string
		sec    model.Security
		phase  model.LifecyclePhase
		source PhaseSource
	}{
		{
			name:   "explicit tag",
			sec:    model.Security{LifecycleTag: phasePtr(model.PhaseUpcoming)},
			phase:  model.PhaseUpcoming,
			source: PhaseFromTag,
		},
		{
			name: "tag beats keyword evidence",
			sec: model.Security{
				LifecycleTag:    phasePtr(model.PhaseActiveInflection),
				ThesisNarrative: "Launch delayed again, no orders this quarter.",
			},
			phase:  model.PhaseActiveInflection,
			source: PhaseFromTag,
		},
		{
			name:   "waiting keywords",
			sec:    model.Security{ThesisNarrative: "Plant start-up is Delayed until spring."},
			phase:  model.PhaseWaitTime,
			source: PhaseFromKeyword,
		},
		{
			name:   "awaiting approval in catalyst",
			sec:    model.Security{NextCatalyst: "Awaiting-approval from the regulator"},
			phase:  model.PhaseWaitTime,
			source: PhaseFromKeyword,
		},
		{
			name:   "inflection keywords",
			sec:    model.Security{ThesisNarrative: "Record revenue and firing_on_all_cylinders."},
			phase:  model.PhaseActiveInflection,
			source: PhaseFromKeyword,
		},
		{
			name:   "waiting rule is checked first",
			sec:    model.Security{ThesisNarrative: "Profitable, but the new line is delayed."},
			phase:  model.PhaseWaitTime,
			source: PhaseFromKeyword,
		},
		{
			name:   "unprofitable is not profitable",
			sec:    model.Security{ThesisNarrative: "Still unprofitable, pipeline building."},
			phase:  model.PhaseUpcoming,
			source: PhaseFromDefault,
		},
		{
			name:   "no evidence",
			sec:    model.Security{ThesisNarrative: "Interesting story."},
			phase:  model.PhaseUpcoming,
			source: PhaseFromDefault,
		},
	}
	c := DefaultPhaseClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Classify(&tt.sec)
			assert.True(t, ok)
			assert.Equal(t, tt.phase, got.Phase)
			assert.Equal(t, tt.source, got.Source)
		})
	}
}

func TestExplicitTagClassifier_NoTag(t *testing.T) {
	_, ok := ExplicitTagClassifier{}.Classify(&model.Security{})
	assert.False(t, ok)
}

func TestKeywordFallbackClassifier_ReportsMatch(t *testing.T) {
	got, _ := NewKeywordFallbackClassifier().Classify(&model.Security{ThesisNarrative: "No new orders since May"})
	assert.Equal(t, model.PhaseWaitTime, got.Phase)
	assert.Equal(t, "no new orders", got.Matched)
}

func TestChainClassifier_Empty(t *testing.T) {
	got, ok := ChainClassifier{}.Classify(&model.Security{})
	assert.True(t, ok)
	assert.Equal(t, model.PhaseUpcoming, got.Phase)
}
