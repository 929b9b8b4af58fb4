package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken      string `yaml:"bot_token"`
		WebhookSecret string `yaml:"webhook_secret"`
	} `yaml:"telegram"`
	Quote struct {
		URL   string `yaml:"url"`
		Field string `yaml:"field"`
	} `yaml:"quote"`
	Carry struct {
		InitialUSD float64 `yaml:"initial_usd"`
		ExitCost   float64 `yaml:"exit_cost"`
		Timezone   string  `yaml:"timezone"`
	} `yaml:"carry"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	StateFile string `yaml:"state_file"`
	Database  struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
		Mode       string `yaml:"mode"` // "webhook" or "polling"
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_WEBHOOK_SECRET"); v != "" {
		cfg.Telegram.WebhookSecret = v
	}
	if v := os.Getenv("QUOTE_API_URL"); v != "" {
		cfg.Quote.URL = v
	}
	if v := os.Getenv("QUOTE_FIELD"); v != "" {
		cfg.Quote.Field = v
	}
	if v := os.Getenv("INITIAL_USD"); v != "" {
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			cfg.Carry.InitialUSD = f
		}
	}
	if v := os.Getenv("EXIT_COST"); v != "" {
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			cfg.Carry.ExitCost = f
		}
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Carry.Timezone = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.StateFile = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("SERVER_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Quote.URL == "" {
		cfg.Quote.URL = "https://dolarapi.com/v1/dolares/bolsa"
	}
	if cfg.Quote.Field == "" {
		cfg.Quote.Field = "venta"
	}
	if cfg.Carry.InitialUSD == 0 {
		cfg.Carry.InitialUSD = 1600
	}
	if cfg.Carry.ExitCost == 0 {
		cfg.Carry.ExitCost = 0.007
	}
	if cfg.Carry.Timezone == "" {
		cfg.Carry.Timezone = "America/Argentina/Buenos_Aires"
	}
	if cfg.Schedule.DailyCron == "" {
		// Every day at 09:05 local time.
		cfg.Schedule.DailyCron = "0 5 9 * * *"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "data/state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/carry_sentinel.db"
	}
	if cfg.Server.Mode == "" {
		if cfg.Server.ListenAddr != "" {
			cfg.Server.Mode = "webhook"
		} else {
			cfg.Server.Mode = "polling"
		}
	}
	if cfg.Server.Mode == "webhook" && cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and sane.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Carry.InitialUSD <= 0 {
		return fmt.Errorf("carry.initial_usd must be positive")
	}
	if c.Carry.ExitCost < 0 || c.Carry.ExitCost >= 1 {
		return fmt.Errorf("carry.exit_cost must be in [0, 1)")
	}
	if _, err := time.LoadLocation(c.Carry.Timezone); err != nil {
		return fmt.Errorf("carry.timezone: %w", err)
	}
	if c.Server.Mode != "webhook" && c.Server.Mode != "polling" {
		return fmt.Errorf("server.mode must be \"webhook\" or \"polling\"")
	}
	return nil
}
