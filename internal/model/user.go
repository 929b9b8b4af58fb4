package model

// Step tracks onboarding progress for a user.
type Step string

const (
	StepAskLocal Step = "ask_local"
	StepAskRate  Step = "ask_rate"
	StepAskDays  Step = "ask_days"
	StepReady    Step = "ready"
)

// Contribution is an extra local-currency deposit made after the carry
// started. It accrues from its own date until the horizon end.
type Contribution struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Amount float64 `json:"amount"`
}

// User holds one user's position parameters and conversation state.
// Position fields are pointers: nil means "not configured yet", which is
// a reportable precondition, not an error.
type User struct {
	Step            Step           `json:"step"`
	LocalToday      *float64       `json:"local_today"`
	AnnualRate      *float64       `json:"annual_rate"`
	HorizonDays     *int           `json:"horizon_days"`
	StartDate       string         `json:"start_date"` // YYYY-MM-DD
	Contributions   []Contribution `json:"contributions"`
	LastSent        string         `json:"last_sent,omitempty"`
	LastLocalUpdate string         `json:"last_local_update,omitempty"`
}

// NewUser creates a user at the start of onboarding, with the carry
// start date defaulting to today.
func NewUser(startDate string) *User {
	return &User{
		Step:          StepAskLocal,
		StartDate:     startDate,
		Contributions: []Contribution{},
	}
}
