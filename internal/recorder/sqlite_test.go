package recorder

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioSentinel/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "sentinel.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestOpenAlert_VersionedLog(t *testing.T) {
	r := newTestRecorder(t)

	cur, err := r.CurrentAlert()
	require.NoError(t, err)
	assert.Nil(t, cur)

	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	first, err := r.OpenAlert(model.MarketAlert{Level: model.AlertGreen, StockPct: 80, CashPct: 20, EffectiveFrom: t0})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	t1 := t0.Add(72 * time.Hour)
	second, err := r.OpenAlert(model.MarketAlert{Level: model.AlertOrange, StockPct: 40, CashPct: 45, HedgePct: 15, Note: "credit spreads", EffectiveFrom: t1})
	require.NoError(t, err)

	cur, err = r.CurrentAlert()
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, second.ID, cur.ID)
	assert.Equal(t, model.AlertOrange, cur.Level)
	assert.Equal(t, "credit spreads", cur.Note)
	assert.True(t, cur.Active())
	assert.True(t, t1.Equal(cur.EffectiveFrom))

	history, err := r.AlertHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
	require.NotNil(t, history[1].EffectiveUntil)
	assert.True(t, t1.Equal(*history[1].EffectiveUntil))
	assert.True(t, t0.Equal(history[1].EffectiveFrom))
}

func TestOpenAlert_Rejects(t *testing.T) {
	r := newTestRecorder(t)
	_, err := r.OpenAlert(model.MarketAlert{Level: "purple", StockPct: 100})
	assert.ErrorIs(t, err, ErrInvalidAlert)
	_, err = r.OpenAlert(model.MarketAlert{Level: model.AlertRed, StockPct: 50, CashPct: 20})
	assert.ErrorIs(t, err, ErrInvalidAlert)
	_, err = r.OpenAlert(model.MarketAlert{Level: model.AlertRed, StockPct: 110, CashPct: -10})
	assert.ErrorIs(t, err, ErrInvalidAlert)

	cur, err := r.CurrentAlert()
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestOpenAlert_RejectsBackdatedStart(t *testing.T) {
	r := newTestRecorder(t)
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	first, err := r.OpenAlert(model.MarketAlert{Level: model.AlertGreen, StockPct: 80, CashPct: 20, EffectiveFrom: t0})
	require.NoError(t, err)

	_, err = r.OpenAlert(model.MarketAlert{Level: model.AlertRed, StockPct: 20, CashPct: 50, HedgePct: 30, EffectiveFrom: t0.Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrInvalidAlert)

	cur, err := r.CurrentAlert()
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, first.ID, cur.ID, "the active row is left open")

	_, err = r.OpenAlert(model.MarketAlert{Level: model.AlertRed, StockPct: 20, CashPct: 50, HedgePct: 30, EffectiveFrom: t0})
	require.NoError(t, err, "a same-instant switch is allowed")

	history, err := r.AlertHistory(10)
	require.NoError(t, err)
	for _, a := range history {
		if a.EffectiveUntil != nil {
			assert.False(t, a.EffectiveUntil.Before(a.EffectiveFrom))
		}
	}
}

func TestOpenAlert_SingleActiveRow(t *testing.T) {
	r := newTestRecorder(t)
	for i := 0; i < 5; i++ {
		_, err := r.OpenAlert(model.MarketAlert{Level: model.AlertYellow, StockPct: 60, CashPct: 35, HedgePct: 5})
		require.NoError(t, err)
	}
	var active int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM market_alerts WHERE effective_until IS NULL`).Scan(&active))
	assert.Equal(t, 1, active)

	_, err := r.db.Exec(`INSERT INTO market_alerts (level, stock_pct, cash_pct, hedge_pct, effective_from) VALUES ('red', 20, 50, 30, 0)`)
	assert.Error(t, err, "a second active row must violate the unique index")
}

func TestRecordVerdicts(t *testing.T) {
	r := newTestRecorder(t)
	at := time.Date(2026, 3, 6, 22, 30, 0, 0, time.UTC)
	v := &model.Verdict{
		Ticker:        "LUNR",
		AlertLevel:    model.AlertYellow,
		BuyConfidence: 83.2,
		Action:        model.ActionSniper,
		RunwayMonths:  model.Float(20),
		Reasoning:     []string{"runway 20.0 months (healthy)"},
	}
	err := r.RecordVerdicts("batch-1", at, []AuditEntry{
		{Ticker: "LUNR", Verdict: v},
		{Ticker: "BAD", Err: errors.New("BAD: unknown asset class")},
	})
	require.NoError(t, err)

	recs, err := r.VerdictHistory("LUNR", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "batch-1", recs[0].BatchID)
	assert.Equal(t, model.ActionSniper, recs[0].Action)
	assert.Equal(t, model.AlertYellow, recs[0].AlertLevel)
	assert.Equal(t, 83.2, recs[0].Confidence)
	assert.True(t, at.Equal(recs[0].RecordedAt))
	assert.Equal(t, v, recs[0].Verdict)

	recs, err = r.VerdictHistory("BAD", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Verdict)
	assert.Contains(t, recs[0].Error, "unknown asset class")
}

func TestRecordVerdicts_UnencodableVerdictKeepsBatch(t *testing.T) {
	r := newTestRecorder(t)
	at := time.Date(2026, 3, 6, 22, 30, 0, 0, time.UTC)
	good := &model.Verdict{Ticker: "LUNR", BuyConfidence: 70, Action: model.ActionAccumulate}
	bad := &model.Verdict{Ticker: "NAN", BuyConfidence: 50, UpsideToCeilingPct: model.Float(math.NaN()), Action: model.ActionHold}

	require.NoError(t, r.RecordVerdicts("batch-2", at, []AuditEntry{
		{Ticker: "NAN", Verdict: bad},
		{Ticker: "LUNR", Verdict: good},
	}))

	recs, err := r.VerdictHistory("LUNR", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, good, recs[0].Verdict)

	recs, err = r.VerdictHistory("NAN", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Verdict)
	assert.Equal(t, model.ActionHold, recs[0].Action)
	assert.Contains(t, recs[0].Error, "encode verdict")
}

func TestNoopRecorder(t *testing.T) {
	n := NewNoopRecorder()
	a, err := n.OpenAlert(model.MarketAlert{Level: model.AlertGreen, StockPct: 80, CashPct: 20})
	require.NoError(t, err)
	assert.False(t, a.EffectiveFrom.IsZero())
	_, err = n.OpenAlert(model.MarketAlert{Level: model.AlertGreen})
	assert.ErrorIs(t, err, ErrInvalidAlert)

	cur, err := n.CurrentAlert()
	assert.NoError(t, err)
	assert.Nil(t, cur)
	assert.NoError(t, n.RecordVerdicts("b", time.Now(), nil))
	assert.NoError(t, n.Close())
}
