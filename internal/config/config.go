package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PercentileBoard/internal/display"
	"PercentileBoard/internal/model"
)

// DefaultInstruments is the board shown when none is configured.
var DefaultInstruments = []model.Instrument{
	"SPY", "SPXL", "QQQ", "TQQQ", "SOXX", "SOXL", "TSLA",
	"TSLL", "NVDA", "NVDL", "GLD", "TLT", "CONL",
}

// DefaultWindows are the moving-average windows shown when none is configured.
var DefaultWindows = []model.WindowSize{20, 50, 100, 200}

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Board struct {
		Instruments []model.Instrument       `yaml:"instruments"`
		Windows     []model.WindowSize       `yaml:"windows"`
		Leverage    map[model.Instrument]int `yaml:"leverage"`
	} `yaml:"board"`
	Fetch struct {
		Concurrency   int           `yaml:"concurrency"`
		Attempts      int           `yaml:"attempts"`
		Backoff       time.Duration `yaml:"backoff"`
		RatePerSecond float64       `yaml:"rate_per_second"`
		Burst         int           `yaml:"burst"`
	} `yaml:"fetch"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file is not an error.
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

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	// Environment variable overrides
	if v := os.Getenv("GAUGER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("GAUGER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("FETCH_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("FETCH_CONCURRENCY: %w", err)
		}
		cfg.Fetch.Concurrency = n
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Board.Instruments) == 0 {
		c.Board.Instruments = append([]model.Instrument(nil), DefaultInstruments...)
	}
	if len(c.Board.Windows) == 0 {
		c.Board.Windows = append([]model.WindowSize(nil), DefaultWindows...)
	}
	if c.Board.Leverage == nil {
		c.Board.Leverage = make(map[model.Instrument]int, len(display.DefaultLeverage))
		for k, v := range display.DefaultLeverage {
			c.Board.Leverage[k] = v
		}
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.Fetch.Attempts == 0 {
		c.Fetch.Attempts = 1
	}
	if c.Fetch.Backoff == 0 {
		c.Fetch.Backoff = time.Second
	}
	if c.Fetch.RatePerSecond > 0 && c.Fetch.Burst == 0 {
		c.Fetch.Burst = 1
	}
	if c.Schedule.RefreshCron == "" {
		// Weekdays after the US close.
		c.Schedule.RefreshCron = "0 30 21 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/percentile_board.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required")
	}
	if len(c.Board.Instruments) == 0 {
		return fmt.Errorf("board.instruments must not be empty")
	}
	if len(c.Board.Windows) == 0 {
		return fmt.Errorf("board.windows must not be empty")
	}
	for _, w := range c.Board.Windows {
		if w <= 0 {
			return fmt.Errorf("board.windows: %d is not a positive window", w)
		}
	}
	for inst, m := range c.Board.Leverage {
		if m < 2 {
			return fmt.Errorf("board.leverage.%s: multiplier must be at least 2", inst)
		}
	}
	if c.Fetch.Concurrency < 0 {
		return fmt.Errorf("fetch.concurrency must not be negative")
	}
	if c.Fetch.Attempts < 1 {
		return fmt.Errorf("fetch.attempts must be at least 1")
	}
	if c.Fetch.RatePerSecond < 0 {
		return fmt.Errorf("fetch.rate_per_second must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether chat notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
