package recorder

// NoopRecorder discards all records. Used when no database is configured
// or the SQLite recorder fails to open.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordQuote(*QuoteRecord) error       { return nil }
func (n *NoopRecorder) RecordBoard(*BoardRecord) error       { return nil }
func (n *NoopRecorder) RecordAlert(*AlertRecord) error       { return nil }
func (n *NoopRecorder) RecordDelivery(*DeliveryRecord) error { return nil }
func (n *NoopRecorder) Close() error                         { return nil }
