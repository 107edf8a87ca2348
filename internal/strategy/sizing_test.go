package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioSentinel/internal/calculator"
	"PortfolioSentinel/internal/config"
	"PortfolioSentinel/internal/model"
)

func newTestSizer(t *testing.T, mutate func(*config.Engine)) *Sizer {
	t.Helper()
	cfg := config.DefaultEngine()
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())
	return NewSizer(&cfg)
}

func TestSize(t *testing.T) {
	infinite := calculator.Runway{Status: model.RunwayHealthy, Infinite: true}
	tests := []struct {
		name       string
		in         SizingInput
		wantCap    float64
		wantTarget float64
		wantGaps   int
	}{
		{
			name:       "core grower full conviction",
			in:         SizingInput{AssetClass: model.AssetCoreGrower, Conviction: model.Int(9), Phase: model.PhaseUpcoming, Runway: infinite},
			wantCap:    12,
			wantTarget: 12,
		},
		{
			name:       "low conviction in caution",
			in:         SizingInput{AssetClass: model.AssetCoreGrower, Conviction: model.Int(6), Phase: model.PhaseUpcoming, Runway: healthyRunway(7.5)},
			wantCap:    4.2,
			wantTarget: 4.2,
		},
		{
			name:       "danger is a hard stop",
			in:         SizingInput{AssetClass: model.AssetCoreGrower, Conviction: model.Int(10), Phase: model.PhaseActiveInflection, Runway: healthyRunway(3)},
			wantCap:    0,
			wantTarget: 0,
		},
		{
			name:       "inflection raises the cap",
			in:         SizingInput{AssetClass: model.AssetHighBetaCyclical, Conviction: model.Int(8), Phase: model.PhaseActiveInflection, Runway: infinite},
			wantCap:    9.6,
			wantTarget: 9.6,
		},
		{
			name:       "target below cap",
			in:         SizingInput{AssetClass: model.AssetCoreGrower, Conviction: model.Int(7), Phase: model.PhaseUpcoming, Runway: infinite},
			wantCap:    12,
			wantTarget: 10,
		},
		{
			name:       "missing asset class uses the smallest cap",
			in:         SizingInput{Conviction: model.Int(8), Phase: model.PhaseUpcoming, Runway: infinite},
			wantCap:    2,
			wantTarget: 2,
			wantGaps:   1,
		},
		{
			name:       "missing conviction",
			in:         SizingInput{AssetClass: model.AssetBinaryOutcome, Phase: model.PhaseUpcoming, Runway: infinite},
			wantCap:    1.5,
			wantTarget: 0,
			wantGaps:   1,
		},
	}
	s := newTestSizer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Size(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantCap, got.MaxCap, 1e-9)
			assert.InDelta(t, tt.wantTarget, got.TargetWeight, 1e-9)
			assert.Len(t, got.DataGaps, tt.wantGaps)
			assert.LessOrEqual(t, got.TargetWeight, got.MaxCap)
		})
	}
}

func TestSize_UpsideIsBounded(t *testing.T) {
	s := newTestSizer(t, func(c *config.Engine) {
		c.MaxUpsideMultiplier = 1.0
		c.InflectionMultiplier = 1.5
	})
	got, err := s.Size(SizingInput{
		AssetClass: model.AssetCoreGrower,
		Conviction: model.Int(10),
		Phase:      model.PhaseActiveInflection,
		Runway:     calculator.Runway{Status: model.RunwayHealthy, Infinite: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.UpsideMultiplier)
	assert.Equal(t, 12.0, got.MaxCap)
}

func TestSize_UnknownAssetClass(t *testing.T) {
	s := newTestSizer(t, nil)
	_, err := s.Size(SizingInput{AssetClass: "meme-stock", Conviction: model.Int(8)})
	assert.ErrorIs(t, err, ErrUnknownAssetClass)
}

func TestSize_NeverExceedsBoundedBase(t *testing.T) {
	cfg := config.DefaultEngine()
	s := NewSizer(&cfg)
	phases := []model.LifecyclePhase{model.PhaseWaitTime, model.PhaseUpcoming, model.PhaseActiveInflection}
	runways := []calculator.Runway{
		{Status: model.RunwayUnknown},
		{Status: model.RunwayHealthy, Infinite: true},
		healthyRunway(2), healthyRunway(8), healthyRunway(30),
	}
	for _, class := range model.AssetClasses {
		base, _ := cfg.BaseCap(class)
		for c := 0; c <= 10; c++ {
			for _, p := range phases {
				for _, r := range runways {
					got, err := s.Size(SizingInput{AssetClass: class, Conviction: model.Int(c), Phase: p, Runway: r})
					require.NoError(t, err)
					require.GreaterOrEqual(t, got.MaxCap, 0.0)
					require.LessOrEqual(t, got.MaxCap, base*cfg.MaxUpsideMultiplier+1e-9)
					if r.Status == model.RunwayDanger {
						require.Zero(t, got.MaxCap)
					}
				}
			}
		}
	}
}
