package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"StockDashboard/internal/collector"
	"StockDashboard/internal/config"
	"StockDashboard/internal/dashboard"
	"StockDashboard/internal/notifier"
	"StockDashboard/internal/recorder"
)

// appFlags are shared by every subcommand that builds the dashboard.
type appFlags struct {
	configPath string
	workbook   string
	mock       bool
}

func (a *appFlags) register(f *flag.FlagSet) {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	f.StringVar(&a.configPath, "config", def, "Path to the YAML config file.")
	f.StringVar(&a.workbook, "workbook", "", "Workbook to update. Overrides workbook.path.")
	f.BoolVar(&a.mock, "mock", false, "Use generated prices instead of the network data source.")
}

func (a *appFlags) load() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if a.workbook != "" {
		cfg.Workbook.Path = a.workbook
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func newFetcher(cfg *config.Config, mock bool) collector.Fetcher {
	switch {
	case mock:
		return &collector.MockFetcher{Price: 150}
	case cfg.DataSource.BaseURL != "":
		return collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}

func newAlerter(cfg *config.Config) notifier.Alerter {
	alerters := notifier.MultiAlerter{notifier.NewConsoleAlerter(os.Stdout)}
	if cfg.TelegramEnabled() {
		alerters = append(alerters, notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy))
		log.Println("[INFO] Telegram alerts enabled")
	}
	return alerters
}

// openRecorder falls back to the no-op recorder when SQLite is not configured or fails to open.
func openRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func newDashboard(cfg *config.Config, mock bool) *dashboard.Dashboard {
	fetcher := newFetcher(cfg, mock)
	log.Printf("[INFO] data source: %s", fetcher.Name())
	return dashboard.New(fetcher, newAlerter(cfg), openRecorder(cfg), dashboard.OptionsFromConfig(cfg))
}
