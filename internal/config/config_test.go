package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioSentinel/internal/model"
)

func TestDefaultEngine_Valid(t *testing.T) {
	e := DefaultEngine()
	require.NoError(t, e.Validate())
	assert.InDelta(t, 1.0, e.Weights.Sum(), 1e-12)
}

func TestEngineValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *Engine)
		wantErr error
	}{
		{
			name:    "weights not summing to one",
			mutate:  func(e *Engine) { e.Weights.Trend = 0.20 },
			wantErr: ErrWeightsSum,
		},
		{
			name:    "unknown asset class key",
			mutate:  func(e *Engine) { e.BaseCaps["meme-stock"] = 1 },
			wantErr: ErrUnknownAssetClass,
		},
		{
			name:    "missing asset class key",
			mutate:  func(e *Engine) { delete(e.BaseCaps, string(model.AssetTurnaround)) },
			wantErr: ErrMissingAssetClass,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := DefaultEngine()
			tt.mutate(&e)
			err := e.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEngineValidate_Thresholds(t *testing.T) {
	mutations := map[string]func(e *Engine){
		"upside below one":     func(e *Engine) { e.MaxUpsideMultiplier = 0.9 },
		"inflection below one": func(e *Engine) { e.InflectionMultiplier = 0.8 },
		"caution above one":    func(e *Engine) { e.CautionMultiplier = 1.5 },
		"zero wma period":      func(e *Engine) { e.WMAPeriod = 0 },
		"zero slope lookback":  func(e *Engine) { e.SlopeLookback = 0 },
		"no workers":           func(e *Engine) { e.Workers = 0 },
		"empty target table":   func(e *Engine) { e.TargetWeights = nil },
		"negative weight":      func(e *Engine) { e.Weights.Thesis = -0.1; e.Weights.Valuation = 0.95 },
		"NaN trend weight":     func(e *Engine) { e.Weights.Trend = math.NaN() },
		"NaN base cap":         func(e *Engine) { e.BaseCaps[string(model.AssetBinaryOutcome)] = math.NaN() },
		"NaN target weight":    func(e *Engine) { e.TargetWeights[0].Weight = math.NaN() },
		"NaN caution":          func(e *Engine) { e.CautionMultiplier = math.NaN() },
		"NaN low conviction":   func(e *Engine) { e.LowConvictionMultiplier = math.NaN() },
		"NaN inflection":       func(e *Engine) { e.InflectionMultiplier = math.NaN() },
		"infinite upside":      func(e *Engine) { e.MaxUpsideMultiplier = math.Inf(1) },
		"NaN blocked cap":      func(e *Engine) { e.BlockedConfidenceCap = math.NaN() },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			e := DefaultEngine()
			mutate(&e)
			assert.Error(t, e.Validate())
		})
	}
}

func TestLoad_NaNWeightFailsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  weights:\n    thesis: 0.6\n    valuation: 0.25\n    trend: .nan\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, math.IsNaN(cfg.Engine.Weights.Trend))
	assert.ErrorContains(t, cfg.Validate(), "engine.weights.trend")
}

func TestTargetWeightFor(t *testing.T) {
	e := DefaultEngine()
	tests := []struct {
		score int
		want  float64
	}{
		{10, 15}, {9, 15}, {8, 12}, {7, 10}, {6, 5}, {5, 3}, {4, 0}, {0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.TargetWeightFor(tt.score), "score %d", tt.score)
	}
}

func TestSmallestBaseCap(t *testing.T) {
	e := DefaultEngine()
	assert.Equal(t, 2.0, e.SmallestBaseCap())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
engine:
  weights:
    thesis: 0.5
    valuation: 0.3
    trend: 0.2
  workers: 2
data_source:
  cache_ttl: 5m
portfolio:
  state_file: ` + filepath.Join(dir, "book.json") + `
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "x.db"))
	t.Setenv("SENTINEL_WORKERS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.5, cfg.Engine.Weights.Thesis)
	assert.Equal(t, 3, cfg.Engine.Workers)
	assert.Equal(t, 5*time.Minute, cfg.DataSource.CacheTTL)
	assert.Equal(t, filepath.Join(dir, "x.db"), cfg.Database.SQLitePath)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	// defaults survive a partial YAML engine block
	assert.Equal(t, 12.0, cfg.Engine.BaseCaps[string(model.AssetCoreGrower)])
	assert.Equal(t, 30, cfg.Engine.WMAPeriod)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "data/portfolio.json", cfg.Portfolio.StateFile)
	a, ok := cfg.AllocationFor(model.AlertRed)
	require.True(t, ok)
	assert.Equal(t, 20.0, a.Stock)
}

func TestValidate_BadConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	cfg.DataSource.Provider = "rest"
	cfg.DataSource.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg.DataSource.Provider = "yahoo"
	cfg.Alerts["purple"] = Allocation{Stock: 100}
	assert.Error(t, cfg.Validate())

	delete(cfg.Alerts, "purple")
	cfg.Alerts[string(model.AlertGreen)] = Allocation{Stock: 90, Cash: 20}
	assert.Error(t, cfg.Validate())

	cfg.Alerts[string(model.AlertGreen)] = Allocation{Stock: math.NaN(), Cash: 20}
	assert.Error(t, cfg.Validate())
}
