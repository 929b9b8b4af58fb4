package chat

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"CarrySentinel/internal/carry"
	"CarrySentinel/internal/model"
	"CarrySentinel/internal/notifier"
	"CarrySentinel/internal/quote"
	"CarrySentinel/internal/store"
)

const helpText = "Commands:\n" +
	"- status → show the board now\n" +
	"- ars 2450000 → update your local balance\n" +
	"- rate 45 (or 0.45) → update the annual rate\n" +
	"- days 90 → update the horizon\n" +
	"- start 2025-12-01 → set the carry start date\n" +
	"- add 800000 → record a contribution dated today\n" +
	"- help → show this message\n"

// Handler processes incoming user messages: onboarding first, then the
// command set. All position edits go through the store, so the date
// validation here is the entry boundary the engine relies on.
type Handler struct {
	Store      *store.Store
	Quotes     quote.Fetcher
	InitialUSD float64
	ExitCost   float64
	Timezone   string
}

// NewHandler creates a chat handler.
func NewHandler(st *store.Store, quotes quote.Fetcher, initialUSD, exitCost float64, timezone string) *Handler {
	return &Handler{
		Store:      st,
		Quotes:     quotes,
		InitialUSD: initialUSD,
		ExitCost:   exitCost,
		Timezone:   timezone,
	}
}

// HandleMessage processes one message and returns the reply text. The
// user record is created on first contact.
func (h *Handler) HandleMessage(ctx context.Context, chatID, text string) string {
	today, err := carry.TodayIn(h.Timezone)
	if err != nil {
		log.Printf("[ERROR] resolve today in %q: %v", h.Timezone, err)
		return "Something went wrong on my side, try again later."
	}

	var reply string
	err = h.Store.UpdateUser(chatID, today.Format("2006-01-02"), func(u *model.User) {
		reply = h.process(ctx, u, text, today)
	})
	if err != nil {
		log.Printf("[ERROR] persist state for %s: %v", chatID, err)
	}
	return reply
}

func (h *Handler) process(ctx context.Context, u *model.User, text string, today time.Time) string {
	t := strings.TrimSpace(text)
	low := strings.ToLower(t)
	todayStr := today.Format("2006-01-02")

	if u.Step != model.StepReady {
		return h.advanceOnboarding(u, t, todayStr)
	}

	switch {
	case low == "help" || low == "/help" || low == "/start" || low == "ayuda":
		return helpText

	case low == "status" || low == "/status":
		return h.status(ctx, u, today)

	case strings.HasPrefix(low, "ars "):
		v, err := normalizeNumber(t[4:])
		if err != nil {
			return "Couldn't read that amount. Try something like: ars 2450000"
		}
		u.LocalToday = &v
		u.LastLocalUpdate = todayStr
		return "✅ Local balance updated. Send 'status' whenever you want."

	case strings.HasPrefix(low, "rate "):
		v, err := normalizeNumber(t[5:])
		if err != nil {
			return "Couldn't read that rate. Try something like: rate 45"
		}
		v = normalizeRate(v)
		u.AnnualRate = &v
		return "✅ Annual rate updated. Send 'status' whenever you want."

	case strings.HasPrefix(low, "days "):
		v, err := normalizeNumber(t[5:])
		if err != nil || v < 0 {
			return "Couldn't read that. Try something like: days 90"
		}
		d := int(v)
		u.HorizonDays = &d
		return "✅ Horizon updated. Send 'status' whenever you want."

	case strings.HasPrefix(low, "start "):
		arg := strings.TrimSpace(t[6:])
		if _, err := carry.ParseDate(arg); err != nil {
			return "That date didn't parse. Use YYYY-MM-DD, e.g.: start 2025-12-01"
		}
		u.StartDate = arg
		return fmt.Sprintf("✅ Start date set to %s. Send 'status'.", arg)

	case strings.HasPrefix(low, "add "):
		v, err := normalizeNumber(t[4:])
		if err != nil {
			return "Couldn't read that amount. Try something like: add 800000"
		}
		u.Contributions = append(u.Contributions, model.Contribution{Date: todayStr, Amount: v})
		if u.LocalToday != nil {
			nv := *u.LocalToday + v
			u.LocalToday = &nv
			u.LastLocalUpdate = todayStr
		}
		return "✅ Contribution recorded."
	}

	return "Didn't get that. Send 'help' to see the commands."
}

// advanceOnboarding consumes one answer of the three-question setup and
// moves the user forward, re-asking on bad input.
func (h *Handler) advanceOnboarding(u *model.User, text, todayStr string) string {
	switch u.Step {
	case model.StepAskLocal:
		v, err := normalizeNumber(text)
		if err != nil {
			return "How much do you hold in local currency? (e.g. 2450000)"
		}
		u.LocalToday = &v
		u.LastLocalUpdate = todayStr
		u.Step = model.StepAskRate
		return "Got it. What annual rate are you earning? (e.g. 45 or 0.45)"

	case model.StepAskRate:
		v, err := normalizeNumber(text)
		if err != nil {
			return "What annual rate are you earning? (e.g. 45 or 0.45)"
		}
		v = normalizeRate(v)
		u.AnnualRate = &v
		u.Step = model.StepAskDays
		return "Great. How many days should the carry run? (e.g. 90)"

	case model.StepAskDays:
		v, err := normalizeNumber(text)
		if err != nil || v < 0 {
			return "How many days should the carry run? (e.g. 90)"
		}
		d := int(v)
		u.HorizonDays = &d
		u.Step = model.StepReady
		return "✅ All set.\n" +
			"Send 'status' to see the board.\n" +
			"Tip: whenever your balance changes, send: ars <amount>\n"
	}
	return "Send 'status' to see the board."
}

// status computes the board on demand with a fresh quote.
func (h *Handler) status(ctx context.Context, u *model.User, today time.Time) string {
	if missing := carry.Missing(u); len(missing) > 0 {
		return fmt.Sprintf("I still need your %s. Send 'help' to see the commands.",
			strings.Join(missing, ", "))
	}

	q, err := h.Quotes.Fetch(ctx)
	if err != nil {
		log.Printf("[ERROR] fetch quote for status: %v", err)
		return "Couldn't fetch the exchange rate right now, try again in a bit."
	}

	board := carry.ComputeBoard(carry.Input{
		InitialUSD:    h.InitialUSD,
		ExitCost:      h.ExitCost,
		Today:         today,
		StartDate:     u.StartDate,
		HorizonDays:   *u.HorizonDays,
		AnnualRate:    *u.AnnualRate,
		LocalToday:    *u.LocalToday,
		QuoteToday:    q.Rate,
		Contributions: u.Contributions,
	})
	return notifier.FormatDailyReport(board, *u.HorizonDays, q.UpdatedAt)
}

// normalizeNumber accepts Argentine-style input: "2.450.000", "0,45",
// "45%", plain "2450000". Dots are thousands separators, comma is the
// decimal mark.
func normalizeNumber(s string) (float64, error) {
	t := strings.TrimSpace(strings.ToLower(s))
	t = strings.TrimSuffix(t, "%")
	t = strings.ReplaceAll(t, ".", "")
	t = strings.ReplaceAll(t, ",", ".")
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	return v, nil
}

// normalizeRate turns "45" into 0.45; values up to 1.5 are taken as
// fractions already.
func normalizeRate(v float64) float64 {
	if v > 1.5 {
		return v / 100
	}
	return v
}
