package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioSentinel/internal/model"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCommands_TrackHoldAlertEvaluate(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
data_source:
  provider: mock
portfolio:
  state_file: `+filepath.Join(dir, "portfolio.json")+`
database:
  sqlite_path: `+filepath.Join(dir, "sentinel.db")+`
log:
  level: error
`), 0o644))
	for _, k := range []string{"SQLITE_PATH", "PORTFOLIO_FILE", "SENTINEL_DATA_PROVIDER", "SENTINEL_DATA_BASE_URL", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	assert.Contains(t, execute(t, "track", "rklb", "--class", "core-grower", "--green", "4", "--red", "10", "--config", cfgFile),
		"tracking RKLB (core-grower)")
	execute(t, "hold", "RKLB", "--shares", "10", "--cost", "5", "--config", cfgFile)
	assert.Contains(t, execute(t, "alert", "set", "yellow", "--note", "spreads widening", "--config", cfgFile),
		"Market alert: **YELLOW** (stock 60% / cash 35% / hedge 5%)")
	assert.Contains(t, execute(t, "alert", "show", "--config", cfgFile), "YELLOW")

	out := execute(t, "evaluate", "--offline", "--json", "--config", cfgFile)
	var verdicts []model.Verdict
	require.NoError(t, json.Unmarshal([]byte(out), &verdicts))
	require.Len(t, verdicts, 1)
	v := verdicts[0]
	assert.Equal(t, "RKLB", v.Ticker)
	assert.Equal(t, model.AlertYellow, v.AlertLevel)
	assert.InDelta(t, 100, v.CurrentWeight, 1e-9)
	assert.Equal(t, model.ActionTrim, v.Action, "a single position is over any cap")

	hist := execute(t, "history", "rklb", "--config", cfgFile)
	assert.Contains(t, hist, "| yellow | TRIM |")
}

func TestReadNotes(t *testing.T) {
	notes, err := readNotes(strings.NewReader("backlog doubled"), "")
	require.NoError(t, err)
	assert.Equal(t, "backlog doubled", notes)

	_, err = readNotes(strings.NewReader(""), "-")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("first launch slipped"), 0o644))
	notes, err = readNotes(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "first launch slipped", notes)
}
