package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PercentileBoard/internal/model"
)

var overrideVars = []string{
	"GAUGER_BASE_URL", "GAUGER_API_KEY", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	"HTTPS_PROXY", "CRON_REFRESH", "SQLITE_PATH", "LOG_LEVEL", "SERVER_PORT", "FETCH_CONCURRENCY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range overrideVars {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultInstruments, cfg.Board.Instruments)
	assert.Equal(t, DefaultWindows, cfg.Board.Windows)
	assert.Equal(t, 3, cfg.Board.Leverage["SPXL"])
	assert.Equal(t, 30*time.Second, cfg.DataSource.Timeout)
	assert.Equal(t, 1, cfg.Fetch.Attempts)
	assert.Equal(t, 0, cfg.Fetch.Concurrency)
	assert.Equal(t, "0 30 21 * * 1-5", cfg.Schedule.RefreshCron)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.TelegramEnabled())

	// base_url has no default
	assert.EqualError(t, cfg.Validate(), "data_source.base_url is required")
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
data_source:
  base_url: http://localhost:9000
  timeout: 5s
board:
  instruments: [SPY, QQQ]
  windows: [20, 200]
  leverage:
    TQQQ: 3
fetch:
  concurrency: 4
  attempts: 3
  backoff: 250ms
  rate_per_second: 10
server:
  port: 9999
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://localhost:9000", cfg.DataSource.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.DataSource.Timeout)
	assert.Equal(t, []model.Instrument{"SPY", "QQQ"}, cfg.Board.Instruments)
	assert.Equal(t, []model.WindowSize{20, 200}, cfg.Board.Windows)
	assert.Equal(t, map[model.Instrument]int{"TQQQ": 3}, cfg.Board.Leverage)
	assert.Equal(t, 4, cfg.Fetch.Concurrency)
	assert.Equal(t, 3, cfg.Fetch.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Fetch.Backoff)
	assert.Equal(t, 1, cfg.Fetch.Burst)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "data_source:\n  base_url: http://from-file\n")
	t.Setenv("GAUGER_BASE_URL", "http://from-env")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env", cfg.DataSource.BaseURL)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Fetch.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "board: [not, a, map"))
	assert.ErrorContains(t, err, "parse config")

	t.Setenv("SERVER_PORT", "eighty")
	_, err = Load(writeConfig(t, ""))
	assert.ErrorContains(t, err, "SERVER_PORT")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.DataSource.BaseURL = "http://x"
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"ok", func(c *Config) {}, ""},
		{"no windows", func(c *Config) { c.Board.Windows = []model.WindowSize{} }, "board.windows must not be empty"},
		{"no instruments", func(c *Config) { c.Board.Instruments = nil }, "board.instruments must not be empty"},
		{"zero window", func(c *Config) { c.Board.Windows = []model.WindowSize{20, 0} }, "not a positive window"},
		{"leverage one", func(c *Config) { c.Board.Leverage = map[model.Instrument]int{"SPY": 1} }, "multiplier must be at least 2"},
		{"negative concurrency", func(c *Config) { c.Fetch.Concurrency = -1 }, "fetch.concurrency"},
		{"zero attempts", func(c *Config) { c.Fetch.Attempts = 0 }, "fetch.attempts"},
		{"negative rate", func(c *Config) { c.Fetch.RatePerSecond = -1 }, "fetch.rate_per_second"},
		{"telegram half set", func(c *Config) { c.Telegram.BotToken = "tok" }, "must be set together"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
