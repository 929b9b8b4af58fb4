package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc queries can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			run_id      TEXT,
			rate        REAL,
			provider_ts TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_ts ON quotes(timestamp)`,

		`CREATE TABLE IF NOT EXISTS boards (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			run_id          TEXT,
			chat_id         TEXT,
			board_date      TEXT,
			day_index       INTEGER,
			remaining_days  INTEGER,
			horizon_end     TEXT,
			quote           REAL,
			local_value     REAL,
			usd_value       REAL,
			delta_usd       REAL,
			projected_local REAL,
			break_even      REAL,
			margin          REAL,
			warn_threshold  REAL,
			crit_threshold  REAL,
			level           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_boards_ts ON boards(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_boards_chat ON boards(chat_id)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			run_id     TEXT,
			chat_id    TEXT,
			level      TEXT,
			quote      REAL,
			break_even REAL,
			margin     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,

		`CREATE TABLE IF NOT EXISTS deliveries (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			run_id    TEXT,
			chat_id   TEXT,
			kind      TEXT,
			ok        INTEGER,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_ts ON deliveries(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordQuote(rec *QuoteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO quotes (timestamp, run_id, rate, provider_ts) VALUES (?,?,?,?)`,
		time.Now().Unix(), rec.RunID, rec.Rate, rec.ProviderTS)
	return err
}

func (r *SQLiteRecorder) RecordBoard(rec *BoardRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := rec.Board
	_, err := r.db.Exec(`INSERT INTO boards
		(timestamp, run_id, chat_id, board_date, day_index, remaining_days, horizon_end,
		 quote, local_value, usd_value, delta_usd, projected_local,
		 break_even, margin, warn_threshold, crit_threshold, level)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.RunID, rec.ChatID,
		b.Today.Format("2006-01-02"), b.DayIndex, b.RemainingDays, b.HorizonEnd.Format("2006-01-02"),
		b.QuoteToday, b.LocalToday, b.USDToday, b.DeltaUSD, b.ProjectedLocal,
		b.BreakEven, b.MarginFraction, b.WarnThreshold, b.CriticalThreshold, string(b.Level),
	)
	return err
}

func (r *SQLiteRecorder) RecordAlert(rec *AlertRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO alerts (timestamp, run_id, chat_id, level, quote, break_even, margin)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.RunID, rec.ChatID, string(rec.Level), rec.Quote, rec.BreakEven, rec.Margin)
	return err
}

func (r *SQLiteRecorder) RecordDelivery(rec *DeliveryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok := 0
	if rec.OK {
		ok = 1
	}
	_, err := r.db.Exec(`INSERT INTO deliveries (timestamp, run_id, chat_id, kind, ok, error)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), rec.RunID, rec.ChatID, rec.Kind, ok, rec.Error)
	return err
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
