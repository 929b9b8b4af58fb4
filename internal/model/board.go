package model

import "time"

// AlertLevel is the tri-state decision signal of a computed board.
type AlertLevel string

const (
	AlertNone     AlertLevel = "NONE"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Board is the derived daily snapshot of a carry position. It is
// computed fresh for every report and never persisted as state.
type Board struct {
	Today      time.Time
	HorizonEnd time.Time

	ElapsedDays   int
	DayIndex      int // 1-based; may be <= 0 when the start date is in the future
	RemainingDays int

	QuoteToday float64
	LocalToday float64
	USDToday   float64 // USD realizable if exited today, after exit cost
	DeltaUSD   float64 // USDToday minus the initial USD principal

	ProjectedLocal float64 // projected local-currency value at horizon end
	BreakEven      float64 // quote at which exiting at horizon recovers the principal
	MarginFraction float64 // (BreakEven - QuoteToday) / BreakEven; NaN when BreakEven <= 0

	WarnThreshold     float64
	CriticalThreshold float64

	Level      AlertLevel
	Emoji      string
	SignalText string
}
