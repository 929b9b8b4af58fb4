package recorder

import "CarrySentinel/internal/model"

// QuoteRecord is one fetched exchange rate, recorded once per batch run.
type QuoteRecord struct {
	RunID      string
	Rate       float64
	ProviderTS string
}

// BoardRecord is one computed board for one user.
type BoardRecord struct {
	RunID  string
	ChatID string
	Board  *model.Board
}

// AlertRecord is a WARNING or CRITICAL event for one user.
type AlertRecord struct {
	RunID     string
	ChatID    string
	Level     model.AlertLevel
	Quote     float64
	BreakEven float64
	Margin    float64
}

// DeliveryRecord is the outcome of one message send attempt.
type DeliveryRecord struct {
	RunID  string
	ChatID string
	Kind   string // "daily", "alert", "prompt"
	OK     bool
	Error  string
}

// Recorder persists history for later analysis. Recording failures are
// logged by callers, never fatal: history is best-effort.
type Recorder interface {
	RecordQuote(rec *QuoteRecord) error
	RecordBoard(rec *BoardRecord) error
	RecordAlert(rec *AlertRecord) error
	RecordDelivery(rec *DeliveryRecord) error
	Close() error
}
