package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StockSeeker/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Preset   string             `yaml:"preset"`
	Screen   model.ScreenConfig `yaml:"screen"`
	Universe struct {
		Source      string   `yaml:"source"` // static, file or nasdaq
		Symbols     []string `yaml:"symbols"`
		File        string   `yaml:"file"`
		Exchanges   []string `yaml:"exchanges"`
		IncludeETFs bool     `yaml:"include_etfs"`
		URL         string   `yaml:"url"`
	} `yaml:"universe"`
	DataSource struct {
		Provider          string        `yaml:"provider"` // yahoo, rest or mock
		BaseURL           string        `yaml:"base_url"`
		APIKey            string        `yaml:"api_key"`
		HistoryDays       int           `yaml:"history_days"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
		Workers           int           `yaml:"workers"`
		RunTimeout        time.Duration `yaml:"run_timeout"`
	} `yaml:"data_source"`
	Schedule struct {
		ScreenCron string `yaml:"screen_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env (if present) and the YAML file, then applies environment
// variable overrides and defaults. The screen parameters start from the
// selected preset; keys under screen: override individual values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if v := os.Getenv("SEEKER_PRESET"); v != "" {
		cfg.Preset = v
	}
	if cfg.Preset == "" {
		cfg.Preset = model.DefaultPreset
	}
	screen, err := model.Preset(cfg.Preset)
	if err != nil {
		return nil, err
	}
	// Second pass: explicit screen keys override the preset.
	cfg.Screen = screen
	if len(data) > 0 {
		var overrides struct {
			Screen *yaml.Node `yaml:"screen"`
		}
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if overrides.Screen != nil {
			if err := overrides.Screen.Decode(&cfg.Screen); err != nil {
				return nil, fmt.Errorf("parse screen config: %w", err)
			}
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SEEKER_DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SEEKER_DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SEEKER_CRON"); v != "" {
		cfg.Schedule.ScreenCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("SEEKER_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SEEKER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DataSource.Workers = n
		}
	}
	if os.Getenv("RUN_ON_START") == "true" {
		cfg.Schedule.RunOnStart = true
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Universe.Source == "" {
		cfg.Universe.Source = "nasdaq"
	}
	if cfg.Universe.Source == "nasdaq" && len(cfg.Universe.Exchanges) == 0 {
		cfg.Universe.Exchanges = []string{"N"}
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
		if cfg.DataSource.BaseURL != "" {
			cfg.DataSource.Provider = "rest"
		}
	}
	if cfg.DataSource.HistoryDays == 0 {
		cfg.DataSource.HistoryDays = 365
	}
	if cfg.DataSource.RequestsPerSecond == 0 {
		cfg.DataSource.RequestsPerSecond = 5
	}
	if cfg.DataSource.Burst == 0 {
		cfg.DataSource.Burst = 5
	}
	if cfg.DataSource.Workers == 0 {
		cfg.DataSource.Workers = 8
	}
	if cfg.DataSource.RunTimeout == 0 {
		cfg.DataSource.RunTimeout = 2 * time.Hour
	}
	if cfg.Schedule.ScreenCron == "" {
		cfg.Schedule.ScreenCron = "0 30 22 * * 1-5"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "data/reports"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stock_seeker.db"
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 12 * time.Hour
	}
}

// Validate checks that all required fields are set. Every error wraps model.ErrConfig.
func (c *Config) Validate() error {
	if err := c.Screen.Validate(); err != nil {
		return err
	}
	switch c.Universe.Source {
	case "static":
		if len(c.Universe.Symbols) == 0 {
			return fmt.Errorf("%w: universe.symbols is required for the static universe", model.ErrConfig)
		}
	case "file":
		if c.Universe.File == "" {
			return fmt.Errorf("%w: universe.file is required for the file universe", model.ErrConfig)
		}
	case "nasdaq":
	default:
		return fmt.Errorf("%w: unknown universe.source %q (want static, file or nasdaq)", model.ErrConfig, c.Universe.Source)
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("%w: data_source.base_url is required for the rest provider", model.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown data_source.provider %q (want yahoo, rest or mock)", model.ErrConfig, c.DataSource.Provider)
	}
	if c.DataSource.HistoryDays <= 0 {
		return fmt.Errorf("%w: data_source.history_days must be positive", model.ErrConfig)
	}
	if c.DataSource.Workers <= 0 {
		return fmt.Errorf("%w: data_source.workers must be positive", model.ErrConfig)
	}
	if c.DataSource.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: data_source.requests_per_second must not be negative", model.ErrConfig)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("%w: telegram.chat_id is required when telegram.bot_token is set", model.ErrConfig)
	}
	return nil
}

// TelegramEnabled reports whether results should be sent to Telegram.
func (c *Config) TelegramEnabled() bool {
	return strings.TrimSpace(c.Telegram.BotToken) != ""
}
