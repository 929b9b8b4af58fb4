package carry

import (
	"fmt"
	"log"
	"math"
	"time"

	"CarrySentinel/internal/model"
)

const dateLayout = "2006-01-02"

// Alert thresholds relative to the break-even quote.
const (
	warnFactor     = 0.95
	criticalFactor = 1.00
)

// Input carries everything a board computation depends on. Today is
// passed explicitly so the engine stays a pure function; drivers resolve
// it with TodayIn.
type Input struct {
	InitialUSD    float64 // reference USD principal at carry start
	ExitCost      float64 // fraction lost when converting local currency to USD
	Today         time.Time
	StartDate     string // YYYY-MM-DD
	HorizonDays   int
	AnnualRate    float64 // nominal annual yield as a fraction, e.g. 0.45
	LocalToday    float64
	QuoteToday    float64
	Contributions []model.Contribution
}

// TodayIn returns the current calendar date in the given IANA timezone,
// normalized to midnight UTC so day arithmetic is exact.
func TodayIn(tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// Missing lists the position fields still required before a board can be
// computed. A non-empty result is a prompt for more input, not an error.
func Missing(u *model.User) []string {
	var missing []string
	if u.LocalToday == nil {
		missing = append(missing, "current local balance")
	}
	if u.AnnualRate == nil {
		missing = append(missing, "annual rate")
	}
	if u.HorizonDays == nil {
		missing = append(missing, "horizon days")
	}
	return missing
}

// ComputeBoard derives the daily carry board from a position and a fresh
// quote. It is total over float inputs: degenerate configurations yield
// NaN/Inf fields rather than an error, so a report can always be built.
func ComputeBoard(in Input) model.Board {
	start, err := ParseDate(in.StartDate)
	if err != nil {
		log.Printf("[WARN] bad start date %q, using today: %v", in.StartDate, err)
		start = in.Today
	}
	horizonEnd := start.AddDate(0, 0, in.HorizonDays)

	elapsed := daysBetween(start, in.Today)
	remaining := in.HorizonDays - elapsed
	if remaining < 0 {
		remaining = 0
	}

	usdToday := in.LocalToday * (1 - in.ExitCost) / in.QuoteToday

	// Simple (non-compounding) accrual from today to horizon end.
	projected := in.LocalToday * (1 + in.AnnualRate*float64(remaining)/365)

	// Each contribution accrues from its own date. Entries dated past the
	// horizon are excluded; unparseable dates are skipped so one corrupt
	// record cannot take down the whole board.
	for _, c := range in.Contributions {
		d, err := ParseDate(c.Date)
		if err != nil {
			log.Printf("[WARN] skipping contribution with bad date %q: %v", c.Date, err)
			continue
		}
		if d.After(horizonEnd) {
			continue
		}
		daysToHorizon := daysBetween(d, horizonEnd)
		if daysToHorizon < 0 {
			daysToHorizon = 0
		}
		projected += c.Amount * (1 + in.AnnualRate*float64(daysToHorizon)/365)
	}

	breakEven := projected * (1 - in.ExitCost) / in.InitialUSD

	margin := math.NaN()
	if breakEven > 0 {
		margin = (breakEven - in.QuoteToday) / breakEven
	}

	b := model.Board{
		Today:             in.Today,
		HorizonEnd:        horizonEnd,
		ElapsedDays:       elapsed,
		DayIndex:          elapsed + 1,
		RemainingDays:     remaining,
		QuoteToday:        in.QuoteToday,
		LocalToday:        in.LocalToday,
		USDToday:          usdToday,
		DeltaUSD:          usdToday - in.InitialUSD,
		ProjectedLocal:    projected,
		BreakEven:         breakEven,
		MarginFraction:    margin,
		WarnThreshold:     breakEven * warnFactor,
		CriticalThreshold: breakEven * criticalFactor,
	}

	// First match wins; the critical boundary is inclusive.
	switch {
	case in.QuoteToday < b.WarnThreshold:
		b.Level = model.AlertNone
		b.Emoji = "🟢"
		b.SignalText = "On track, comfortable margin."
	case in.QuoteToday < b.CriticalThreshold:
		b.Level = model.AlertWarning
		b.Emoji = "🟡"
		b.SignalText = "Near break-even, watch volatility."
	default:
		b.Level = model.AlertCritical
		b.Emoji = "🔴"
		b.SignalText = "Quote at/over break-even: the carry no longer adds USD versus principal."
	}

	return b
}
