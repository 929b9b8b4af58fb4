package notifier

import (
	"strings"
	"testing"
	"time"

	"CarrySentinel/internal/model"
)

func sampleBoard() model.Board {
	return model.Board{
		Today:             time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		HorizonEnd:        time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		ElapsedDays:       2,
		DayIndex:          3,
		RemainingDays:     88,
		QuoteToday:        1200,
		LocalToday:        2450000,
		USDToday:          2027.38,
		DeltaUSD:          427.38,
		ProjectedLocal:    2715000,
		BreakEven:         1684.99,
		MarginFraction:    0.2878,
		WarnThreshold:     1600.74,
		CriticalThreshold: 1684.99,
		Level:             model.AlertNone,
		Emoji:             "🟢",
		SignalText:        "On track, comfortable margin.",
	}
}

func TestMoneyFormats(t *testing.T) {
	tests := []struct {
		in       float64
		usd, loc string
	}{
		{1200, "1,200.00", "1.200,00"},
		{2450000, "2,450,000.00", "2.450.000,00"},
		{0.5, "0.50", "0,50"},
		{-427.38, "-427.38", "-427,38"},
	}
	for _, tt := range tests {
		if got := MoneyUSD(tt.in); got != tt.usd {
			t.Errorf("MoneyUSD(%v): got %q, want %q", tt.in, got, tt.usd)
		}
		if got := MoneyLocal(tt.in); got != tt.loc {
			t.Errorf("MoneyLocal(%v): got %q, want %q", tt.in, got, tt.loc)
		}
	}
}

func TestPct(t *testing.T) {
	if got := Pct(0.2878); got != "28.78%" {
		t.Errorf("got %q, want 28.78%%", got)
	}
	if got := Pct(-0.015); got != "-1.50%" {
		t.Errorf("got %q, want -1.50%%", got)
	}
}

func TestFormatDailyReport(t *testing.T) {
	msg := FormatDailyReport(sampleBoard(), 90, "2025-01-03T12:00:00.000Z")
	for _, want := range []string{
		"Day 3/90",
		"(88 days left)",
		"Quote today: $1.200,00",
		"Local balance today: $2.450.000,00",
		"Exit today: 2,027.38 USD",
		"Δ vs start: 427.38 USD",
		"Break-even (day 90 / 2025-04-01): $1.684,99",
		"Margin vs BE: 28.78%",
		"🟢",
		"Alerts: 🟡 $1.600,74 | 🔴 $1.684,99",
		"(quote updated: 2025-01-03T12:00:00.000Z)",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("daily report missing %q in:\n%s", want, msg)
		}
	}

	// No timestamp line when the provider didn't supply one.
	msg = FormatDailyReport(sampleBoard(), 90, "")
	if strings.Contains(msg, "quote updated") {
		t.Error("unexpected quote timestamp line")
	}
}

func TestFormatAlert(t *testing.T) {
	b := sampleBoard()
	if got := FormatAlert(b); got != "" {
		t.Errorf("NONE level must produce no alert, got %q", got)
	}

	b.Level = model.AlertWarning
	warn := FormatAlert(b)
	if !strings.Contains(warn, "near break-even") {
		t.Errorf("warning alert wording missing: %q", warn)
	}

	b.Level = model.AlertCritical
	crit := FormatAlert(b)
	if !strings.Contains(crit, "break-even crossed") {
		t.Errorf("critical alert wording missing: %q", crit)
	}
	if warn == crit {
		t.Error("warning and critical alerts must be worded differently")
	}
}
