package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"CarrySentinel/internal/carry"
	"CarrySentinel/internal/model"
	"CarrySentinel/internal/notifier"
	"CarrySentinel/internal/quote"
	"CarrySentinel/internal/recorder"
	"CarrySentinel/internal/store"
)

// Sender is the outbound message surface the batch job needs.
type Sender interface {
	SendToWithRetry(ctx context.Context, chatID, text string, maxRetries int) error
}

var _ Sender = (*notifier.TelegramNotifier)(nil)

// Scheduler runs the daily report cycle on a cron schedule.
type Scheduler struct {
	Cron     *cron.Cron
	Store    *store.Store
	Quotes   quote.Fetcher
	Notifier Sender
	Recorder recorder.Recorder
	Ctx      context.Context

	InitialUSD float64
	ExitCost   float64
	Timezone   string
}

// NewScheduler creates a Scheduler.
func NewScheduler(ctx context.Context, st *store.Store, quotes quote.Fetcher, sender Sender, rec recorder.Recorder, initialUSD, exitCost float64, timezone string) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Store:      st,
		Quotes:     quotes,
		Notifier:   sender,
		Recorder:   rec,
		Ctx:        ctx,
		InitialUSD: initialUSD,
		ExitCost:   exitCost,
		Timezone:   timezone,
	}
}

// RegisterAll registers the daily report task.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunDailyNow executes the daily task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

// dailyTask is one batch cycle: one quote fetch shared by every user,
// then per-user compute-and-send. A quote failure aborts the whole cycle
// so nobody gets a board built on a stale or default rate; a delivery
// failure only affects that one user.
func (s *Scheduler) dailyTask() {
	runID := uuid.NewString()[:8]
	log.Printf("[INFO] run %s: daily cycle starting", runID)

	today, err := carry.TodayIn(s.Timezone)
	if err != nil {
		log.Printf("[ERROR] run %s: %v", runID, err)
		return
	}
	todayStr := today.Format("2006-01-02")

	q, err := s.Quotes.Fetch(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] run %s: quote fetch failed, aborting cycle: %v", runID, err)
		return
	}
	if err := s.Recorder.RecordQuote(&recorder.QuoteRecord{RunID: runID, Rate: q.Rate, ProviderTS: q.UpdatedAt}); err != nil {
		log.Printf("[ERROR] run %s: record quote: %v", runID, err)
	}

	users := s.Store.Snapshot()
	if len(users) == 0 {
		log.Printf("[INFO] run %s: no users registered yet", runID)
		return
	}

	chatIDs := make([]string, 0, len(users))
	for id := range users {
		chatIDs = append(chatIDs, id)
	}
	sort.Strings(chatIDs)

	sent := 0
	for _, chatID := range chatIDs {
		u := users[chatID]
		if u.Step != model.StepReady {
			continue
		}
		if u.LastSent == todayStr {
			continue
		}
		if s.processUser(runID, chatID, &u, q, today, todayStr) {
			sent++
		}
	}
	log.Printf("[INFO] run %s: daily cycle done, %d user(s) notified", runID, sent)
}

// processUser handles one user in the cycle. Returns true when the user
// was notified and marked as sent for today.
func (s *Scheduler) processUser(runID, chatID string, u *model.User, q model.Quote, today time.Time, todayStr string) bool {
	if missing := carry.Missing(u); len(missing) > 0 {
		prompt := fmt.Sprintf("I still need your %s before I can compute the board. Send 'help' to see the commands.",
			strings.Join(missing, ", "))
		s.deliver(runID, chatID, "prompt", prompt)
		s.markSent(runID, chatID, todayStr)
		return true
	}

	board := carry.ComputeBoard(carry.Input{
		InitialUSD:    s.InitialUSD,
		ExitCost:      s.ExitCost,
		Today:         today,
		StartDate:     u.StartDate,
		HorizonDays:   *u.HorizonDays,
		AnnualRate:    *u.AnnualRate,
		LocalToday:    *u.LocalToday,
		QuoteToday:    q.Rate,
		Contributions: u.Contributions,
	})

	msg := notifier.FormatDailyReport(board, *u.HorizonDays, q.UpdatedAt)
	if !s.deliver(runID, chatID, "daily", msg) {
		// Not marked as sent: the next cycle retries this user.
		return false
	}

	if alert := notifier.FormatAlert(board); alert != "" {
		s.deliver(runID, chatID, "alert", alert)
		if err := s.Recorder.RecordAlert(&recorder.AlertRecord{
			RunID: runID, ChatID: chatID, Level: board.Level,
			Quote: board.QuoteToday, BreakEven: board.BreakEven, Margin: board.MarginFraction,
		}); err != nil {
			log.Printf("[ERROR] run %s: record alert for %s: %v", runID, chatID, err)
		}
	}

	if err := s.Recorder.RecordBoard(&recorder.BoardRecord{RunID: runID, ChatID: chatID, Board: &board}); err != nil {
		log.Printf("[ERROR] run %s: record board for %s: %v", runID, chatID, err)
	}
	s.markSent(runID, chatID, todayStr)
	return true
}

// deliver sends one message with retry and records the outcome.
func (s *Scheduler) deliver(runID, chatID, kind, text string) bool {
	err := s.Notifier.SendToWithRetry(s.Ctx, chatID, text, 3)
	rec := &recorder.DeliveryRecord{RunID: runID, ChatID: chatID, Kind: kind, OK: err == nil}
	if err != nil {
		rec.Error = err.Error()
		log.Printf("[ERROR] run %s: deliver %s to %s: %v", runID, kind, chatID, err)
	}
	if rerr := s.Recorder.RecordDelivery(rec); rerr != nil {
		log.Printf("[ERROR] run %s: record delivery: %v", runID, rerr)
	}
	return err == nil
}

func (s *Scheduler) markSent(runID, chatID, todayStr string) {
	if err := s.Store.MarkSent(chatID, todayStr); err != nil {
		log.Printf("[ERROR] run %s: mark sent for %s: %v", runID, chatID, err)
	}
}
