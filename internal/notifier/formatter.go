package notifier

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"CarrySentinel/internal/model"
)

// MoneyUSD formats a USD amount: comma thousands, dot decimals.
func MoneyUSD(x float64) string {
	return humanize.FormatFloat("#,###.##", x)
}

// MoneyLocal formats a local-currency amount in the Argentine style:
// dot thousands, comma decimals.
func MoneyLocal(x float64) string {
	s := strings.ReplaceAll(MoneyUSD(x), ",", "\x00")
	s = strings.ReplaceAll(s, ".", ",")
	return strings.ReplaceAll(s, "\x00", ".")
}

// Pct formats a fraction as a percentage with two decimals.
func Pct(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

// FormatDailyReport renders the full daily board message. quoteTS is the
// provider's update timestamp and is appended when non-empty.
func FormatDailyReport(b model.Board, horizonDays int, quoteTS string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📌 Carry %dd — Day %d/%d (%d days left)\n",
		horizonDays, b.DayIndex, horizonDays, b.RemainingDays))
	sb.WriteString(fmt.Sprintf("Quote today: $%s\n", MoneyLocal(b.QuoteToday)))
	sb.WriteString(fmt.Sprintf("Local balance today: $%s\n", MoneyLocal(b.LocalToday)))
	sb.WriteString(fmt.Sprintf("Exit today: %s USD (Δ vs start: %s USD)\n\n",
		MoneyUSD(b.USDToday), MoneyUSD(b.DeltaUSD)))

	sb.WriteString(fmt.Sprintf("Break-even (day %d / %s): $%s\n",
		horizonDays, b.HorizonEnd.Format("2006-01-02"), MoneyLocal(b.BreakEven)))
	sb.WriteString(fmt.Sprintf("Margin vs BE: %s\n", Pct(b.MarginFraction)))
	sb.WriteString(fmt.Sprintf("Signal: %s %s\n", b.Emoji, b.SignalText))
	sb.WriteString(fmt.Sprintf("Alerts: 🟡 $%s | 🔴 $%s",
		MoneyLocal(b.WarnThreshold), MoneyLocal(b.CriticalThreshold)))

	if quoteTS != "" {
		sb.WriteString(fmt.Sprintf("\n\n(quote updated: %s)", quoteTS))
	}
	return sb.String()
}

// FormatAlert renders the out-of-band alert message. Returns "" when the
// board's level is NONE: no alert is sent for a comfortable margin.
func FormatAlert(b model.Board) string {
	switch b.Level {
	case model.AlertWarning:
		return fmt.Sprintf(
			"⚠️ Alert: near break-even\n"+
				"Quote: $%s | BE: $%s (margin %s)\n"+
				"Exit today: %s USD (Δ %s)",
			MoneyLocal(b.QuoteToday), MoneyLocal(b.BreakEven), Pct(b.MarginFraction),
			MoneyUSD(b.USDToday), MoneyUSD(b.DeltaUSD))
	case model.AlertCritical:
		return fmt.Sprintf(
			"🛑 Alert: break-even crossed\n"+
				"Quote: $%s ≥ BE: $%s\n"+
				"The carry no longer adds USD versus your principal.\n"+
				"Exit today: %s USD (Δ %s)",
			MoneyLocal(b.QuoteToday), MoneyLocal(b.BreakEven),
			MoneyUSD(b.USDToday), MoneyUSD(b.DeltaUSD))
	default:
		return ""
	}
}
