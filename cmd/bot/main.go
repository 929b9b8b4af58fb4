package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CarrySentinel/internal/chat"
	"CarrySentinel/internal/config"
	"CarrySentinel/internal/notifier"
	"CarrySentinel/internal/quote"
	"CarrySentinel/internal/recorder"
	"CarrySentinel/internal/scheduler"
	"CarrySentinel/internal/server"
	"CarrySentinel/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CarrySentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init quote fetcher
	fetcher := quote.NewAPIFetcher(cfg.Quote.URL, cfg.Quote.Field, cfg.Proxy)
	log.Printf("[INFO] quote source: %s (field %q)", fetcher.Name(), cfg.Quote.Field)

	// Init user state store
	st, err := store.Open(cfg.StateFile)
	if err != nil {
		log.Fatalf("[FATAL] open state store: %v", err)
	}
	log.Printf("[INFO] state store: %s (%d user(s))", cfg.StateFile, st.Count())

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Proxy)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Interactive handler
	chatHandler := chat.NewHandler(st, fetcher, cfg.Carry.InitialUSD, cfg.Carry.ExitCost, cfg.Carry.Timezone)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, st, fetcher, tn, rec, cfg.Carry.InitialUSD, cfg.Carry.ExitCost, cfg.Carry.Timezone)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Interactive driver: webhook server or long polling
	var srv *server.Server
	switch cfg.Server.Mode {
	case "webhook":
		srv = server.New(cfg.Server.ListenAddr, cfg.Telegram.WebhookSecret, chatHandler, tn)
		go func() {
			if err := srv.Start(); err != nil {
				log.Fatalf("[FATAL] webhook server: %v", err)
			}
		}()
	default:
		go tn.StartPolling(ctx, chatHandler.HandleMessage)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing daily cycle now")
		go sched.RunDailyNow()
	}

	log.Println("[INFO] CarrySentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] webhook server shutdown: %v", err)
		}
	}
	log.Println("[INFO] CarrySentinel stopped")
}
