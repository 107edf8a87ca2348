package recorder

import (
	"time"

	"PortfolioSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
// Alerts are validated and echoed back but never stored.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) OpenAlert(a model.MarketAlert) (*model.MarketAlert, error) {
	if err := validateAlert(a); err != nil {
		return nil, err
	}
	if a.EffectiveFrom.IsZero() {
		a.EffectiveFrom = time.Now().UTC()
	}
	a.EffectiveUntil = nil
	return &a, nil
}

func (n *NoopRecorder) CurrentAlert() (*model.MarketAlert, error)                  { return nil, nil }
func (n *NoopRecorder) AlertHistory(_ int) ([]model.MarketAlert, error)            { return nil, nil }
func (n *NoopRecorder) RecordVerdicts(_ string, _ time.Time, _ []AuditEntry) error { return nil }
func (n *NoopRecorder) VerdictHistory(_ string, _ int) ([]VerdictRecord, error)    { return nil, nil }
func (n *NoopRecorder) Close() error                                               { return nil }
