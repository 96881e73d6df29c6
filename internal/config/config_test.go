package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"StockSeeker/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"SEEKER_PRESET", "SEEKER_WORKERS", "SEEKER_CRON", "SEEKER_DATA_BASE_URL", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "RUN_ON_START"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Preset != "classic" || cfg.Screen != model.DefaultScreenConfig() {
		t.Errorf("expected classic preset, got %s %+v", cfg.Preset, cfg.Screen)
	}
	if cfg.Universe.Source != "nasdaq" || len(cfg.Universe.Exchanges) != 1 || cfg.Universe.Exchanges[0] != "N" {
		t.Errorf("expected NYSE universe by default, got %s %v", cfg.Universe.Source, cfg.Universe.Exchanges)
	}
	if cfg.DataSource.Provider != "yahoo" || cfg.DataSource.HistoryDays != 365 {
		t.Errorf("unexpected data source defaults %+v", cfg.DataSource)
	}
	if cfg.Schedule.ScreenCron != "0 30 22 * * 1-5" {
		t.Errorf("unexpected cron %s", cfg.Schedule.ScreenCron)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.TelegramEnabled() {
		t.Error("telegram should be disabled without a token")
	}
}

func TestLoad_PresetWithOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
preset: relaxed
screen:
  volume_threshold: 500000
universe:
  source: static
  symbols: [AAPL, MSFT]
data_source:
  base_url: http://bars.local
  run_timeout: 30m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Screen.OscillatorLowThreshold != -90 {
		t.Errorf("expected relaxed low threshold -90, got %v", cfg.Screen.OscillatorLowThreshold)
	}
	if cfg.Screen.VolumeThreshold != 500000 {
		t.Errorf("expected volume override 500000, got %v", cfg.Screen.VolumeThreshold)
	}
	if cfg.Screen.SMASlowWindow != 200 || cfg.Screen.CrossoverLookbackDays != 5 {
		t.Errorf("expected preset values kept, got %+v", cfg.Screen)
	}
	if cfg.DataSource.Provider != "rest" {
		t.Errorf("expected rest provider when base_url is set, got %s", cfg.DataSource.Provider)
	}
	if cfg.DataSource.RunTimeout != 30*time.Minute {
		t.Errorf("expected 30m run timeout, got %v", cfg.DataSource.RunTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEEKER_PRESET", "extended")
	t.Setenv("SEEKER_WORKERS", "3")
	t.Setenv("RUN_ON_START", "true")
	path := writeConfig(t, "preset: relaxed\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Preset != "extended" || cfg.Screen.CrossoverLookbackDays != 10 {
		t.Errorf("expected extended preset from env, got %s %+v", cfg.Preset, cfg.Screen)
	}
	if cfg.DataSource.Workers != 3 || !cfg.Schedule.RunOnStart {
		t.Errorf("unexpected env overrides: workers %d run_on_start %v", cfg.DataSource.Workers, cfg.Schedule.RunOnStart)
	}
}

func TestLoad_UnknownPreset(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "preset: turbo\n"))
	if !errors.Is(err, model.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeConfig(t, "screen: [unclosed\n")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"static without symbols", func(c *Config) { c.Universe.Source = "static" }},
		{"file without path", func(c *Config) { c.Universe.Source = "file" }},
		{"unknown universe", func(c *Config) { c.Universe.Source = "ftp" }},
		{"rest without base url", func(c *Config) { c.DataSource.Provider = "rest"; c.DataSource.BaseURL = "" }},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"zero workers", func(c *Config) { c.DataSource.Workers = 0 }},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x"; c.Telegram.ChatID = "" }},
		{"inverted thresholds", func(c *Config) { c.Screen.OscillatorLowThreshold = 150 }},
	}
	for _, tt := range tests {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		tt.mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, model.ErrConfig) {
			t.Errorf("%s: expected ErrConfig, got %v", tt.name, err)
		}
	}
}
