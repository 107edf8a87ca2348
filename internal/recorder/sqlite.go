package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"PortfolioSentinel/internal/model"
)

// SQLiteRecorder persists alerts and verdicts to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger(), now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS market_alerts (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			level           TEXT NOT NULL,
			stock_pct       REAL NOT NULL,
			cash_pct        REAL NOT NULL,
			hedge_pct       REAL NOT NULL,
			note            TEXT NOT NULL DEFAULT '',
			effective_from  INTEGER NOT NULL,
			effective_until INTEGER
		)`,
		// at most one row may be active
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_alert_active
			ON market_alerts((effective_until IS NULL)) WHERE effective_until IS NULL`,

		`CREATE TABLE IF NOT EXISTS verdict_audit (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id       TEXT NOT NULL,
			timestamp      INTEGER NOT NULL,
			ticker         TEXT NOT NULL,
			alert_level    TEXT NOT NULL DEFAULT '',
			action         TEXT NOT NULL DEFAULT '',
			buy_confidence REAL,
			blocked        INTEGER NOT NULL DEFAULT 0,
			error          TEXT NOT NULL DEFAULT '',
			verdict_json   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdict_ticker_ts ON verdict_audit(ticker, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_verdict_batch ON verdict_audit(batch_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) OpenAlert(a model.MarketAlert) (*model.MarketAlert, error) {
	if err := validateAlert(a); err != nil {
		return nil, err
	}
	if a.EffectiveFrom.IsZero() {
		a.EffectiveFrom = r.now()
	}
	a.EffectiveFrom = a.EffectiveFrom.UTC().Truncate(time.Millisecond)
	a.EffectiveUntil = nil

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	from := a.EffectiveFrom.UnixMilli()
	var activeFrom int64
	switch err := tx.QueryRow(`SELECT effective_from FROM market_alerts WHERE effective_until IS NULL`).Scan(&activeFrom); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("read active alert: %w", err)
	case from < activeFrom:
		return nil, fmt.Errorf("%w: effective from %s is before the active alert's start %s", ErrInvalidAlert,
			a.EffectiveFrom.Format(time.RFC3339), time.UnixMilli(activeFrom).UTC().Format(time.RFC3339))
	}
	if _, err := tx.Exec(`UPDATE market_alerts SET effective_until = ? WHERE effective_until IS NULL`, from); err != nil {
		return nil, fmt.Errorf("close active alert: %w", err)
	}
	res, err := tx.Exec(`INSERT INTO market_alerts
		(level, stock_pct, cash_pct, hedge_pct, note, effective_from)
		VALUES (?,?,?,?,?,?)`,
		string(a.Level), a.StockPct, a.CashPct, a.HedgePct, a.Note, from,
	)
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("alert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit alert: %w", err)
	}

	r.log.Info().Str("level", string(a.Level)).Int64("id", a.ID).Msg("market alert opened")
	return &a, nil
}

const alertColumns = `id, level, stock_pct, cash_pct, hedge_pct, note, effective_from, effective_until`

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(s scanner) (*model.MarketAlert, error) {
	var (
		a     model.MarketAlert
		level string
		from  int64
		until sql.NullInt64
	)
	if err := s.Scan(&a.ID, &level, &a.StockPct, &a.CashPct, &a.HedgePct, &a.Note, &from, &until); err != nil {
		return nil, err
	}
	a.Level = model.AlertLevel(level)
	a.EffectiveFrom = time.UnixMilli(from).UTC()
	if until.Valid {
		t := time.UnixMilli(until.Int64).UTC()
		a.EffectiveUntil = &t
	}
	return &a, nil
}

func (r *SQLiteRecorder) CurrentAlert() (*model.MarketAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.db.QueryRow(`SELECT ` + alertColumns + ` FROM market_alerts WHERE effective_until IS NULL`)
	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current alert: %w", err)
	}
	return a, nil
}

func (r *SQLiteRecorder) AlertHistory(limit int) ([]model.MarketAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT `+alertColumns+` FROM market_alerts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("alert history: %w", err)
	}
	defer rows.Close()

	var out []model.MarketAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) RecordVerdicts(batchID string, at time.Time, entries []AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO verdict_audit
		(batch_id, timestamp, ticker, alert_level, action, buy_confidence, blocked, error, verdict_json)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	ts := at.UTC().UnixMilli()
	for _, e := range entries {
		var (
			level, action, errMsg string
			confidence            sql.NullFloat64
			blocked               bool
			payload               sql.NullString
		)
		if e.Err != nil {
			errMsg = e.Err.Error()
		}
		if v := e.Verdict; v != nil {
			level, action, blocked = string(v.AlertLevel), string(v.Action), v.Blocked
			if !math.IsNaN(v.BuyConfidence) && !math.IsInf(v.BuyConfidence, 0) {
				confidence = sql.NullFloat64{Float64: v.BuyConfidence, Valid: true}
			}
			if data, err := json.Marshal(v); err != nil {
				r.log.Warn().Err(err).Str("ticker", e.Ticker).Msg("verdict not encodable, recording the error only")
				errMsg = fmt.Sprintf("encode verdict: %v", err)
			} else {
				payload = sql.NullString{String: string(data), Valid: true}
			}
		}
		if _, err := stmt.Exec(batchID, ts, e.Ticker, level, action, confidence, blocked, errMsg, payload); err != nil {
			return fmt.Errorf("insert verdict %s: %w", e.Ticker, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verdicts: %w", err)
	}
	r.log.Debug().Str("batch", batchID).Int("rows", len(entries)).Msg("verdicts recorded")
	return nil
}

func (r *SQLiteRecorder) VerdictHistory(ticker string, limit int) ([]VerdictRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, batch_id, timestamp, ticker, alert_level, action,
		buy_confidence, blocked, error, verdict_json
		FROM verdict_audit WHERE ticker = ? ORDER BY id DESC LIMIT ?`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("verdict history: %w", err)
	}
	defer rows.Close()

	var out []VerdictRecord
	for rows.Next() {
		var (
			rec           VerdictRecord
			ts            int64
			level, action string
			confidence    sql.NullFloat64
			payload       sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.BatchID, &ts, &rec.Ticker, &level, &action,
			&confidence, &rec.Blocked, &rec.Error, &payload); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		rec.RecordedAt = time.UnixMilli(ts).UTC()
		rec.AlertLevel = model.AlertLevel(level)
		rec.Action = model.Action(action)
		rec.Confidence = confidence.Float64
		if payload.Valid {
			rec.Verdict = &model.Verdict{}
			if err := json.Unmarshal([]byte(payload.String), rec.Verdict); err != nil {
				return nil, fmt.Errorf("decode verdict %d: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
