package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"tgpc-backend/lib/scrapers/tgpc"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ListingSource produces the current pharmacist listing, normally a
// *tgpc.Client.
type ListingSource interface {
	FetchListing(ctx context.Context) ([]tgpc.ListingRow, error)
}

type SyncOptions struct {
	// refuse to apply a sync that changes more than this percentage
	// of the existing dataset, defaults to 5%
	MaxChangePercent float64
	// refuse to apply a sync whose integrity score falls below this,
	// defaults to 0.95
	MinIntegrityScore float64
	// refuse to apply a sync with fewer clean records than this,
	// defaults to 80000
	MinRecordCount int
	// run every step but never write the dataset
	DryRun bool
	// apply even when safety checks fail
	Force bool
	// skip the snapshot archive normally taken after an applied sync
	SkipArchive bool
}

func (o SyncOptions) withDefaults() SyncOptions {
	if o.MaxChangePercent <= 0 {
		o.MaxChangePercent = 5.0
	}
	if o.MinIntegrityScore <= 0 {
		o.MinIntegrityScore = 0.95
	}
	if o.MinRecordCount <= 0 {
		o.MinRecordCount = 80_000
	}
	return o
}

// SafetyError is returned when a sync trips one of the safety
// thresholds and Force is not set. The dataset is left untouched.
type SafetyError struct {
	Violations []string
}

func (e *SafetyError) Error() string {
	return fmt.Sprintf(
		"sync refused by safety checks: %s",
		strings.Join(e.Violations, "; "),
	)
}

// SyncReport summarizes one sync run.
type SyncReport struct {
	ScrapedTotal   int              `json:"scraped_total"`
	Validation     ValidationReport `json:"validation"`
	IntegrityScore float64          `json:"integrity_score"`
	NewCount       int              `json:"new_count"`
	ChangedCount   int              `json:"changed_count"`
	UnchangedCount int              `json:"unchanged_count"`
	Total          int              `json:"total"`
	ChangePercent  float64          `json:"change_percent"`
	DryRun         bool             `json:"dry_run"`
	// false when a dry run or a safety refusal kept the dataset
	// untouched
	Applied bool `json:"applied"`
	// registration numbers of new records, for notifications
	NewRegistrations []string `json:"-"`
}

// Syncer runs incremental syncs of the council registry into the
// local dataset. Mirror and Notifier are optional.
type Syncer struct {
	source   ListingSource
	dataset  *Dataset
	mirror   *Mirror
	notifier *Notifier
}

func NewSyncer(source ListingSource, dataset *Dataset) *Syncer {
	return &Syncer{source: source, dataset: dataset}
}

func (s *Syncer) WithMirror(mirror *Mirror) *Syncer {
	s.mirror = mirror
	return s
}

func (s *Syncer) WithNotifier(notifier *Notifier) *Syncer {
	s.notifier = notifier
	return s
}

// RecordFromListing converts a scraped listing row into a registry
// record. The result still needs cleaning.
func RecordFromListing(row tgpc.ListingRow) Record {
	return Record{
		SerialNumber:       strconv.Itoa(row.Serial),
		RegistrationNumber: row.RegistrationNumber,
		Name:               row.Name,
		FatherName:         row.FatherName,
		Category:           row.Category,
	}
}

// Sync scrapes the full listing, validates it, merges it into the
// existing dataset and persists the result if the safety checks pass.
func (s *Syncer) Sync(ctx context.Context, opts SyncOptions) (*SyncReport, error) {
	ctx, span := tracer.Start(ctx, "Sync")
	defer span.End()
	opts = opts.withDefaults()

	fail := func(err error) (*SyncReport, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rows, err := s.source.FetchListing(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch listing: %w", err))
	}
	scraped := make([]Record, len(rows))
	for i, row := range rows {
		scraped[i] = RecordFromListing(row)
	}

	clean, validation := ValidateAll(ctx, scraped)

	existing, err := s.dataset.Load(ctx)
	if err != nil {
		if !s.dataset.Exists() {
			existing = nil
		} else {
			return fail(fmt.Errorf("load dataset: %w", err))
		}
	}

	merged := Merge(existing, clean)
	report := &SyncReport{
		ScrapedTotal:     len(scraped),
		Validation:       validation,
		IntegrityScore:   validation.IntegrityScore(),
		NewCount:         len(merged.New),
		ChangedCount:     len(merged.Changed),
		UnchangedCount:   merged.Unchanged,
		Total:            len(merged.Records),
		ChangePercent:    merged.ChangePercent(len(existing)),
		DryRun:           opts.DryRun,
		NewRegistrations: merged.New,
	}
	span.SetAttributes(
		attribute.Int("scraped", report.ScrapedTotal),
		attribute.Int("new", report.NewCount),
		attribute.Int("changed", report.ChangedCount),
		attribute.Float64("integrity_score", report.IntegrityScore),
		attribute.Float64("change_percent", report.ChangePercent),
	)

	violations := s.safetyViolations(report, len(existing), opts)
	if len(violations) > 0 && !opts.Force {
		err := &SafetyError{Violations: violations}
		auditErr := s.dataset.Audit(ctx, AuditEntry{
			Action: "sync_refused",
			Total:  report.Total,
			Note:   err.Error(),
		})
		if auditErr != nil {
			slog.WarnContext(ctx, "write audit entry", "err", auditErr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}
	if len(violations) > 0 {
		slog.WarnContext(
			ctx, "safety checks failed but sync was forced",
			"violations", strings.Join(violations, "; "),
		)
	}

	if opts.DryRun {
		slog.InfoContext(
			ctx, "dry run, dataset untouched",
			"new", report.NewCount,
			"changed", report.ChangedCount,
		)
		err := s.dataset.Audit(ctx, AuditEntry{
			Action:     "sync_dry_run",
			Total:      report.Total,
			New:        report.NewCount,
			Changed:    report.ChangedCount,
			DryRun:     true,
			SampleRegs: sampleRegNumbers(merged.New),
		})
		if err != nil {
			slog.WarnContext(ctx, "write audit entry", "err", err)
		}
		return report, nil
	}

	err = s.dataset.Save(ctx, merged.Records)
	if err != nil {
		return fail(fmt.Errorf("save dataset: %w", err))
	}
	report.Applied = true

	if !opts.SkipArchive {
		_, err = s.dataset.Archive(ctx, "sync")
		if err != nil {
			slog.WarnContext(ctx, "archive dataset snapshot", "err", err)
		}
	}

	err = s.dataset.Audit(ctx, AuditEntry{
		Action:     "sync",
		Total:      report.Total,
		New:        report.NewCount,
		Changed:    report.ChangedCount,
		SampleRegs: sampleRegNumbers(merged.New),
	})
	if err != nil {
		slog.WarnContext(ctx, "write audit entry", "err", err)
	}

	if s.mirror != nil {
		err = s.mirror.Upsert(ctx, merged.Records)
		if err != nil {
			slog.ErrorContext(ctx, "mirror dataset to sqlite", "err", err)
		}
	}
	if s.notifier != nil && (report.NewCount > 0 || report.ChangedCount > 0) {
		err = s.notifier.NotifySync(ctx, report)
		if err != nil {
			slog.ErrorContext(ctx, "send sync notification", "err", err)
		}
	}

	slog.InfoContext(
		ctx, "sync applied",
		"total", report.Total,
		"new", report.NewCount,
		"changed", report.ChangedCount,
	)
	return report, nil
}

func (s *Syncer) safetyViolations(report *SyncReport, existingTotal int, opts SyncOptions) []string {
	var violations []string
	if report.IntegrityScore < opts.MinIntegrityScore {
		violations = append(violations, fmt.Sprintf(
			"integrity score %.3f is below minimum %.3f",
			report.IntegrityScore, opts.MinIntegrityScore,
		))
	}
	if report.Validation.Clean < opts.MinRecordCount {
		violations = append(violations, fmt.Sprintf(
			"only %d clean records scraped, minimum is %d",
			report.Validation.Clean, opts.MinRecordCount,
		))
	}
	if existingTotal > 0 && report.ChangePercent > opts.MaxChangePercent {
		violations = append(violations, fmt.Sprintf(
			"%.2f%% of the dataset would change, maximum is %.2f%%",
			report.ChangePercent, opts.MaxChangePercent,
		))
	}
	return violations
}

func sampleRegNumbers(regNos []string) []string {
	if len(regNos) <= auditSampleSize {
		return regNos
	}
	return regNos[:auditSampleSize]
}
