package registry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
)

// ValidationReport summarizes a cleaning pass over a scraped dataset.
type ValidationReport struct {
	Total      int                 `json:"total"`
	Clean      int                 `json:"clean"`
	Dropped    int                 `json:"dropped"`
	Duplicates int                 `json:"duplicates"`
	Issues     map[string][]string `json:"issues,omitempty"`
}

// IntegrityScore is the fraction of input records that survived
// cleaning, between 0 and 1.
func (r ValidationReport) IntegrityScore() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Clean) / float64(r.Total)
}

// ValidateAll cleans every record, drops the ones that fail
// validation, and deduplicates by registration number keeping the
// first occurrence.
func ValidateAll(ctx context.Context, records []Record) ([]Record, ValidationReport) {
	ctx, span := tracer.Start(ctx, "ValidateAll")
	defer span.End()

	report := ValidationReport{
		Total:  len(records),
		Issues: map[string][]string{},
	}

	seen := make(map[string]bool, len(records))
	clean := make([]Record, 0, len(records))
	for _, record := range records {
		record.Clean()

		issues := record.Validate()
		if len(issues) > 0 {
			report.Dropped++
			key := record.RegistrationNumber
			if key == "" {
				key = "serial:" + record.SerialNumber
			}
			report.Issues[key] = issues
			continue
		}

		if seen[record.RegistrationNumber] {
			report.Duplicates++
			continue
		}
		seen[record.RegistrationNumber] = true
		clean = append(clean, record)
	}

	report.Clean = len(clean)
	span.SetAttributes(
		attribute.Int("total", report.Total),
		attribute.Int("clean", report.Clean),
		attribute.Int("dropped", report.Dropped),
		attribute.Int("duplicates", report.Duplicates),
	)
	if report.Dropped > 0 || report.Duplicates > 0 {
		slog.WarnContext(
			ctx, "validation dropped records",
			"total", report.Total,
			"dropped", report.Dropped,
			"duplicates", report.Duplicates,
		)
	}
	return clean, report
}
