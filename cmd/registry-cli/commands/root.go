package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"
	"tgpc-backend/lib/configutil"
	"tgpc-backend/lib/scrapers/tgpc"
	"tgpc-backend/lib/serviceutil"
	"tgpc-backend/lib/sqliteutil"
	"tgpc-backend/services/registry"
	"tgpc-backend/services/registry/db"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "registry-cli",
	Short: "registry-cli scrapes, syncs and inspects the pharmacist registry dataset.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type ScraperConfig struct {
	BaseUrl         string  `json:"base_url"`
	MinDelaySeconds float64 `json:"min_delay_seconds"`
	MaxDelaySeconds float64 `json:"max_delay_seconds"`
	LongBreakAfter  int     `json:"long_break_after"`
}

type SyncConfig struct {
	MaxChangePercent  float64 `json:"max_change_percent"`
	MinIntegrityScore float64 `json:"min_integrity_score"`
	MinRecordCount    int     `json:"min_record_count"`
	// hour of day (IST) for the daily daemon
	Hour int `json:"hour"`
}

type Config struct {
	// path of the dataset json file
	Dataset string `json:"dataset"`
	// optional sqlite mirror, empty disables it
	Database string                   `json:"database"`
	Scraper  ScraperConfig            `json:"scraper"`
	Sync     SyncConfig               `json:"sync"`
	Notify   *registry.NotifierConfig `json:"notify"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "data/pharmacists.json"
	}
	return cfg
}

func newClient(cfg Config) *tgpc.Client {
	client, err := tgpc.NewClient(tgpc.ClientOptions{
		BaseUrl: cfg.Scraper.BaseUrl,
		RateLimiter: tgpc.RateLimiterOptions{
			MinDelay:       time.Duration(cfg.Scraper.MinDelaySeconds * float64(time.Second)),
			MaxDelay:       time.Duration(cfg.Scraper.MaxDelaySeconds * float64(time.Second)),
			LongBreakAfter: cfg.Scraper.LongBreakAfter,
		},
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize council client", err)
	}
	return client
}

func newDataset(cfg Config) *registry.Dataset {
	return registry.NewDataset(registry.DatasetOptions{Path: cfg.Dataset})
}

// nil when no mirror database is configured
func openDatabase(cfg Config) *sql.DB {
	if cfg.Database == "" {
		return nil
	}
	database, err := sqliteutil.OpenDB(db.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}
	return database
}

func syncOptions(cfg Config) registry.SyncOptions {
	return registry.SyncOptions{
		MaxChangePercent:  cfg.Sync.MaxChangePercent,
		MinIntegrityScore: cfg.Sync.MinIntegrityScore,
		MinRecordCount:    cfg.Sync.MinRecordCount,
	}
}
