package carry

import (
	"math"
	"reflect"
	"testing"
	"time"

	"CarrySentinel/internal/model"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func baseInput() Input {
	return Input{
		InitialUSD:  1600,
		ExitCost:    0.007,
		Today:       date("2025-01-01"),
		StartDate:   "2025-01-01",
		HorizonDays: 90,
		AnnualRate:  0.45,
		LocalToday:  2450000,
		QuoteToday:  1200,
	}
}

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.4f, want %.4f (±%.4f)", name, got, want, tol)
	}
}

func TestComputeBoard_ReferenceExample(t *testing.T) {
	b := ComputeBoard(baseInput())

	if b.DayIndex != 1 {
		t.Errorf("day index: got %d, want 1", b.DayIndex)
	}
	if b.RemainingDays != 90 {
		t.Errorf("remaining days: got %d, want 90", b.RemainingDays)
	}
	if got := b.HorizonEnd.Format("2006-01-02"); got != "2025-04-01" {
		t.Errorf("horizon end: got %s, want 2025-04-01", got)
	}
	approx(t, "usd today", b.USDToday, 2450000*0.993/1200, 1e-9)
	approx(t, "delta usd", b.DeltaUSD, b.USDToday-1600, 1e-9)
	approx(t, "projected local", b.ProjectedLocal, 2450000*(1+0.45*90.0/365.0), 1e-6)
	approx(t, "break-even", b.BreakEven, b.ProjectedLocal*0.993/1600, 1e-9)
	approx(t, "margin", b.MarginFraction, (b.BreakEven-1200)/b.BreakEven, 1e-12)
	// Coarse sanity against the known ballpark.
	approx(t, "break-even ballpark", b.BreakEven, 1689.2, 0.5)
	approx(t, "margin ballpark", b.MarginFraction, 0.2896, 0.001)
	if b.Level != model.AlertNone {
		t.Errorf("level: got %s, want NONE", b.Level)
	}
}

func TestComputeBoard_AlertBoundaries(t *testing.T) {
	// Zero rate and zero exit cost pin break-even at exactly 1000.
	in := Input{
		InitialUSD:  1000,
		Today:       date("2025-01-01"),
		StartDate:   "2025-01-01",
		HorizonDays: 90,
		LocalToday:  1000000,
	}
	tests := []struct {
		quote float64
		want  model.AlertLevel
	}{
		{900, model.AlertNone},
		{949.999, model.AlertNone},
		{950, model.AlertWarning}, // warn threshold is inclusive
		{999.999, model.AlertWarning},
		{1000, model.AlertCritical}, // critical threshold is inclusive
		{1100, model.AlertCritical},
	}
	for _, tt := range tests {
		in.QuoteToday = tt.quote
		b := ComputeBoard(in)
		approx(t, "break-even", b.BreakEven, 1000, 1e-9)
		if b.Level != tt.want {
			t.Errorf("quote %.3f: got %s, want %s", tt.quote, b.Level, tt.want)
		}
	}
}

func TestComputeBoard_NegativeMarginIsCritical(t *testing.T) {
	in := baseInput()
	in.QuoteToday = 5000 // far above any plausible break-even
	b := ComputeBoard(in)
	if b.MarginFraction >= 0 {
		t.Fatalf("expected negative margin, got %.4f", b.MarginFraction)
	}
	if b.Level != model.AlertCritical {
		t.Errorf("negative margin must be CRITICAL, got %s", b.Level)
	}
}

func TestComputeBoard_RemainingDaysClamped(t *testing.T) {
	in := baseInput()
	in.Today = date("2025-12-01") // long past the 90-day horizon
	b := ComputeBoard(in)
	if b.RemainingDays != 0 {
		t.Errorf("remaining days past horizon: got %d, want 0", b.RemainingDays)
	}
	// No accrual left: projection is just the current local value.
	approx(t, "projected local", b.ProjectedLocal, in.LocalToday, 1e-9)
}

func TestComputeBoard_FutureStartKeepsNegativeDayIndex(t *testing.T) {
	in := baseInput()
	in.StartDate = "2025-02-01"
	b := ComputeBoard(in)
	if b.ElapsedDays != -31 {
		t.Errorf("elapsed days: got %d, want -31", b.ElapsedDays)
	}
	if b.DayIndex != -30 {
		t.Errorf("day index: got %d, want -30", b.DayIndex)
	}
	if b.RemainingDays != 121 {
		t.Errorf("remaining days: got %d, want 121", b.RemainingDays)
	}
}

func TestComputeBoard_Contributions(t *testing.T) {
	in := baseInput()
	in.AnnualRate = 0.365 // 0.1% per day keeps the accrual arithmetic readable
	base := ComputeBoard(in)

	// Ten days before horizon end: ten days of simple interest.
	in.Contributions = []model.Contribution{{Date: "2025-03-22", Amount: 100000}}
	b := ComputeBoard(in)
	approx(t, "accrued contribution", b.ProjectedLocal-base.ProjectedLocal, 100000*1.01, 1e-6)

	// Exactly on horizon end: face value, zero days of interest.
	in.Contributions = []model.Contribution{{Date: "2025-04-01", Amount: 100000}}
	b = ComputeBoard(in)
	approx(t, "face-value contribution", b.ProjectedLocal-base.ProjectedLocal, 100000, 1e-6)

	// After horizon end: excluded entirely.
	in.Contributions = []model.Contribution{{Date: "2025-04-02", Amount: 100000}}
	b = ComputeBoard(in)
	approx(t, "excluded contribution", b.ProjectedLocal, base.ProjectedLocal, 1e-9)

	// A malformed date is skipped without aborting the rest.
	in.Contributions = []model.Contribution{
		{Date: "not-a-date", Amount: 500000},
		{Date: "2025-04-01", Amount: 100000},
	}
	b = ComputeBoard(in)
	approx(t, "malformed skipped", b.ProjectedLocal-base.ProjectedLocal, 100000, 1e-6)
}

func TestComputeBoard_DegenerateInputsStillProduceBoard(t *testing.T) {
	// Negative position value drives break-even below zero: margin is NaN,
	// the board is still produced and classified.
	in := baseInput()
	in.LocalToday = -100
	b := ComputeBoard(in)
	if !math.IsNaN(b.MarginFraction) {
		t.Errorf("expected NaN margin for negative break-even, got %.4f", b.MarginFraction)
	}
	if b.Level != model.AlertCritical {
		t.Errorf("quote above a negative break-even must be CRITICAL, got %s", b.Level)
	}

	// Zero principal: break-even is +Inf, margin NaN, still no panic.
	in = baseInput()
	in.InitialUSD = 0
	b = ComputeBoard(in)
	if !math.IsInf(b.BreakEven, 1) {
		t.Errorf("expected +Inf break-even for zero principal, got %.4f", b.BreakEven)
	}
	if !math.IsNaN(b.MarginFraction) {
		t.Errorf("expected NaN margin for infinite break-even, got %.4f", b.MarginFraction)
	}
}

func TestComputeBoard_Idempotent(t *testing.T) {
	in := baseInput()
	in.Contributions = []model.Contribution{{Date: "2025-02-01", Amount: 800000}}
	a := ComputeBoard(in)
	b := ComputeBoard(in)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs must yield identical boards")
	}
}

func TestMissing(t *testing.T) {
	u := model.NewUser("2025-01-01")
	if got := Missing(u); len(got) != 3 {
		t.Fatalf("fresh user: got %v, want 3 missing fields", got)
	}
	local, rate, days := 2450000.0, 0.45, 90
	u.LocalToday = &local
	u.AnnualRate = &rate
	if got := Missing(u); len(got) != 1 || got[0] != "horizon days" {
		t.Fatalf("got %v, want [horizon days]", got)
	}
	u.HorizonDays = &days
	if got := Missing(u); got != nil {
		t.Fatalf("fully configured user: got %v, want nil", got)
	}
}
