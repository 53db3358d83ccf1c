package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
	"tgpc-backend/lib/configutil"
	"tgpc-backend/lib/scrapers/tgpc"
	"tgpc-backend/lib/serviceutil"
	"tgpc-backend/lib/sqliteutil"
	"tgpc-backend/lib/telemetry"
	"tgpc-backend/services/registry"
	"tgpc-backend/services/registry/db"
)

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
	Hour              int     `json:"hour"`
}

type Config struct {
	Dataset  string                   `json:"dataset"`
	Database string                   `json:"database"`
	Scraper  ScraperConfig            `json:"scraper"`
	Sync     SyncConfig               `json:"sync"`
	Notify   *registry.NotifierConfig `json:"notify"`
}

func main() {
	telemetry.InitSlog(false)

	ctx := serviceutil.SignalContext()
	err := telemetry.SetupFromEnv(ctx, "registryd")
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "data/pharmacists.json"
	}

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

	var database *sql.DB
	if cfg.Database != "" {
		database, err = sqliteutil.OpenDB(db.Schema, cfg.Database)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()
	}

	service := registry.NewService(registry.ServiceOptions{
		Source:   client,
		Dataset:  registry.NewDataset(registry.DatasetOptions{Path: cfg.Dataset}),
		Database: database,
		Notifier: cfg.Notify,
		Sync: registry.SyncOptions{
			MaxChangePercent:  cfg.Sync.MaxChangePercent,
			MinIntegrityScore: cfg.Sync.MinIntegrityScore,
			MinRecordCount:    cfg.Sync.MinRecordCount,
		},
		SyncHour: cfg.Sync.Hour,
	})
	service.Start(ctx)
	slog.Info("registryd started", "dataset", cfg.Dataset)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	err = telemetry.Shutdown(shutdownCtx)
	if err != nil {
		slog.Warn("failed to shutdown telemetry", "err", err)
	}
}
