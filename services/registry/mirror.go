package registry

import (
	"context"
	"database/sql"
	"tgpc-backend/lib/timezone"
	"tgpc-backend/services/registry/db"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Mirror keeps a queryable sqlite copy of the json dataset. The json
// file stays the source of truth, the mirror only exists for fast
// lookups and stats.
type Mirror struct {
	db  *sql.DB
	qry *db.Queries
}

func NewMirror(database *sql.DB) *Mirror {
	return &Mirror{
		db:  database,
		qry: db.New(database),
	}
}

// Upsert replaces the mirror's contents with the given records in a
// single transaction. Records absent from the input are deleted.
func (m *Mirror) Upsert(ctx context.Context, records []Record) error {
	ctx, span := tracer.Start(ctx, "mirror.Upsert")
	defer span.End()
	span.SetAttributes(attribute.Int("records", len(records)))

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(err)
	}
	defer tx.Rollback()
	txqry := m.qry.WithTx(tx)

	// nanoseconds so that back to back upserts get distinct markers
	now := timezone.Now().UnixNano()
	for _, record := range records {
		err := txqry.UpsertPharmacist(ctx, db.UpsertPharmacistParams{
			RegistrationNumber: record.RegistrationNumber,
			SerialNumber:       record.SerialNumber,
			Name:               record.Name,
			FatherName:         record.FatherName,
			Category:           record.Category,
			UpdatedAt:          now,
		})
		if err != nil {
			return fail(err)
		}
	}
	err = txqry.DeleteStalePharmacists(ctx, now)
	if err != nil {
		return fail(err)
	}

	err = tx.Commit()
	if err != nil {
		return fail(err)
	}
	return nil
}

// Get looks a pharmacist up by normalized registration number.
func (m *Mirror) Get(ctx context.Context, registrationNumber string) (Record, error) {
	ctx, span := tracer.Start(ctx, "mirror.Get")
	defer span.End()

	row, err := m.qry.GetPharmacist(ctx, NormalizeRegistrationNumber(registrationNumber))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Record{}, err
	}
	return Record{
		SerialNumber:       row.SerialNumber,
		RegistrationNumber: row.RegistrationNumber,
		Name:               row.Name,
		FatherName:         row.FatherName,
		Category:           row.Category,
	}, nil
}

func (m *Mirror) Count(ctx context.Context) (int64, error) {
	return m.qry.CountPharmacists(ctx)
}

func (m *Mirror) CategoryCounts(ctx context.Context) ([]db.CountByCategoryRow, error) {
	return m.qry.CountByCategory(ctx)
}

// RecordSyncRun stores a sync report for later inspection.
func (m *Mirror) RecordSyncRun(ctx context.Context, report *SyncReport) error {
	applied := int64(0)
	if report.Applied {
		applied = 1
	}
	return m.qry.CreateSyncRun(ctx, db.CreateSyncRunParams{
		RanAt:          timezone.Now().Unix(),
		Total:          int64(report.Total),
		NewCount:       int64(report.NewCount),
		ChangedCount:   int64(report.ChangedCount),
		IntegrityScore: report.IntegrityScore,
		Applied:        applied,
	})
}

func (m *Mirror) LatestSyncRun(ctx context.Context) (db.SyncRun, error) {
	return m.qry.GetLatestSyncRun(ctx)
}
