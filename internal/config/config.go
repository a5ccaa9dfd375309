package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Workbook struct {
		Path       string `yaml:"path"`
		TickerName string `yaml:"ticker_name"`
		SheetName  string `yaml:"sheet_name"`
	} `yaml:"workbook"`
	Chart struct {
		Anchor string `yaml:"anchor"`
		Width  int    `yaml:"width"`
		Height int    `yaml:"height"`
	} `yaml:"chart"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file is not an error.
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

	// .env never overrides variables already set in the process environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DASHBOARD_WORKBOOK"); v != "" {
		cfg.Workbook.Path = v
	}
	if v := os.Getenv("DASHBOARD_TICKER_NAME"); v != "" {
		cfg.Workbook.TickerName = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
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
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Workbook.TickerName == "" {
		cfg.Workbook.TickerName = "TICKER"
	}
	if cfg.Workbook.SheetName == "" {
		cfg.Workbook.SheetName = "Stock Dashboard"
	}
	if cfg.Chart.Anchor == "" {
		cfg.Chart.Anchor = "K4"
	}
	if cfg.Chart.Width == 0 {
		cfg.Chart.Width = 600
	}
	if cfg.Chart.Height == 0 {
		cfg.Chart.Height = 450
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 */15 * * * 1-5"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Workbook.Path == "" {
		return fmt.Errorf("workbook.path is required")
	}
	if c.Workbook.TickerName == "" {
		return fmt.Errorf("workbook.ticker_name is required")
	}
	if c.Workbook.SheetName == "" {
		return fmt.Errorf("workbook.sheet_name is required")
	}
	if len(c.Workbook.SheetName) > 31 {
		return fmt.Errorf("workbook.sheet_name must be at most 31 characters")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether alerts should also go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
