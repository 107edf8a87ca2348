package recorder

import (
	"errors"
	"fmt"
	"math"
	"time"

	"PortfolioSentinel/internal/model"
)

// ErrInvalidAlert is returned for an alert with an unknown level or a split
// that does not add up to 100%.
var ErrInvalidAlert = errors.New("invalid market alert")

// AuditEntry is one ticker's outcome within an evaluation batch.
// Exactly one of Verdict and Err is set.
type AuditEntry struct {
	Ticker  string
	Verdict *model.Verdict
	Err     error
}

// VerdictRecord is a stored audit row.
type VerdictRecord struct {
	ID         int64
	BatchID    string
	Ticker     string
	AlertLevel model.AlertLevel
	Action     model.Action
	Confidence float64
	Blocked    bool
	Error      string
	Verdict    *model.Verdict
	RecordedAt time.Time
}

// Recorder persists the market alert log and the verdict audit trail.
type Recorder interface {
	// OpenAlert closes the active alert and makes a the active one.
	OpenAlert(a model.MarketAlert) (*model.MarketAlert, error)
	// CurrentAlert returns the active alert, or nil when none was ever set.
	CurrentAlert() (*model.MarketAlert, error)
	// AlertHistory returns up to limit alerts, newest first.
	AlertHistory(limit int) ([]model.MarketAlert, error)
	RecordVerdicts(batchID string, at time.Time, entries []AuditEntry) error
	VerdictHistory(ticker string, limit int) ([]VerdictRecord, error)
	Close() error
}

func validateAlert(a model.MarketAlert) error {
	if _, err := model.ParseAlertLevel(string(a.Level)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAlert, err)
	}
	if !(a.StockPct >= 0 && a.CashPct >= 0 && a.HedgePct >= 0) {
		return fmt.Errorf("%w: negative allocation", ErrInvalidAlert)
	}
	if sum := a.StockPct + a.CashPct + a.HedgePct; !(math.Abs(sum-100) <= 1e-6) {
		return fmt.Errorf("%w: allocation sums to %v, want 100", ErrInvalidAlert, sum)
	}
	return nil
}
