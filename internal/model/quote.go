package model

// Quote is a single exchange-rate observation: local currency per USD,
// plus the provider's update timestamp when it supplies one.
type Quote struct {
	Rate      float64
	UpdatedAt string
}
