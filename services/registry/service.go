package registry

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
	"tgpc-backend/lib/timezone"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/registry")

type ServiceOptions struct {
	Source  ListingSource
	Dataset *Dataset
	// optional sqlite mirror
	Database *sql.DB
	// optional email notifications
	Notifier *NotifierConfig
	Sync     SyncOptions
	// hour of day (IST) at which the daily sync runs, defaults to 6
	SyncHour int
}

// Service runs the registry pipeline: a daily scheduled sync plus
// on-demand access to the dataset.
type Service struct {
	syncer   *Syncer
	dataset  *Dataset
	mirror   *Mirror
	syncOpts SyncOptions
	syncHour int
}

func NewService(opts ServiceOptions) Service {
	syncer := NewSyncer(opts.Source, opts.Dataset)

	var mirror *Mirror
	if opts.Database != nil {
		mirror = NewMirror(opts.Database)
		syncer.WithMirror(mirror)
	}
	if opts.Notifier != nil {
		syncer.WithNotifier(NewNotifier(*opts.Notifier))
	}

	syncHour := opts.SyncHour
	if syncHour <= 0 {
		syncHour = 6
	}
	return Service{
		syncer:   syncer,
		dataset:  opts.Dataset,
		mirror:   mirror,
		syncOpts: opts.Sync,
		syncHour: syncHour,
	}
}

func (s Service) Dataset() *Dataset {
	return s.dataset
}

func (s Service) Mirror() *Mirror {
	return s.mirror
}

// Sync runs one sync with the service's configured options.
func (s Service) Sync(ctx context.Context, opts SyncOptions) (*SyncReport, error) {
	report, err := s.syncer.Sync(ctx, opts)
	if report != nil && s.mirror != nil {
		recordErr := s.mirror.RecordSyncRun(ctx, report)
		if recordErr != nil {
			slog.WarnContext(ctx, "record sync run", "err", recordErr)
		}
	}
	return report, err
}

// Start launches the daily sync daemon. It returns immediately, the
// daemon stops when the context is cancelled.
func (s Service) Start(ctx context.Context) {
	go s.dailySyncDaemon(ctx)
}

func (s Service) dailySyncDaemon(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := timezone.Now()
			if now.Hour() != s.syncHour {
				continue
			}

			// a full listing scrape takes a while under rate limiting
			ctx, cancel := context.WithTimeout(ctx, time.Hour*4)
			report, err := s.Sync(ctx, s.syncOpts)
			cancel()

			var safetyErr *SafetyError
			if errors.As(err, &safetyErr) {
				slog.ErrorContext(
					ctx, "daily sync refused by safety checks",
					"violations", safetyErr.Violations,
				)
				continue
			}
			if err != nil {
				slog.ErrorContext(ctx, "daily sync", "err", err)
				continue
			}
			slog.InfoContext(
				ctx, "daily sync finished",
				"total", report.Total,
				"new", report.NewCount,
				"changed", report.ChangedCount,
			)
		}
	}
}
