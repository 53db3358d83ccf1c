package db

import (
	"context"
)

const upsertPharmacist = `
INSERT INTO pharmacists (
    registration_number, serial_number, name, father_name, category, updated_at
) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (registration_number) DO UPDATE SET
    serial_number = excluded.serial_number,
    name = excluded.name,
    father_name = excluded.father_name,
    category = excluded.category,
    updated_at = excluded.updated_at
`

type UpsertPharmacistParams struct {
	RegistrationNumber string
	SerialNumber       string
	Name               string
	FatherName         string
	Category           string
	UpdatedAt          int64
}

func (q *Queries) UpsertPharmacist(ctx context.Context, arg UpsertPharmacistParams) error {
	_, err := q.db.ExecContext(ctx, upsertPharmacist,
		arg.RegistrationNumber,
		arg.SerialNumber,
		arg.Name,
		arg.FatherName,
		arg.Category,
		arg.UpdatedAt,
	)
	return err
}

const getPharmacist = `
SELECT registration_number, serial_number, name, father_name, category, updated_at
FROM pharmacists
WHERE registration_number = ?
`

func (q *Queries) GetPharmacist(ctx context.Context, registrationNumber string) (Pharmacist, error) {
	row := q.db.QueryRowContext(ctx, getPharmacist, registrationNumber)
	var i Pharmacist
	err := row.Scan(
		&i.RegistrationNumber,
		&i.SerialNumber,
		&i.Name,
		&i.FatherName,
		&i.Category,
		&i.UpdatedAt,
	)
	return i, err
}

const countPharmacists = `
SELECT COUNT(*) FROM pharmacists
`

func (q *Queries) CountPharmacists(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPharmacists)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countByCategory = `
SELECT category, COUNT(*) AS count
FROM pharmacists
GROUP BY category
ORDER BY count DESC
`

type CountByCategoryRow struct {
	Category string
	Count    int64
}

func (q *Queries) CountByCategory(ctx context.Context) ([]CountByCategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, countByCategory)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountByCategoryRow
	for rows.Next() {
		var i CountByCategoryRow
		err := rows.Scan(&i.Category, &i.Count)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteStalePharmacists = `
DELETE FROM pharmacists WHERE updated_at < ?
`

func (q *Queries) DeleteStalePharmacists(ctx context.Context, updatedAt int64) error {
	_, err := q.db.ExecContext(ctx, deleteStalePharmacists, updatedAt)
	return err
}

const createSyncRun = `
INSERT INTO sync_runs (
    ran_at, total, new_count, changed_count, integrity_score, applied
) VALUES (?, ?, ?, ?, ?, ?)
`

type CreateSyncRunParams struct {
	RanAt          int64
	Total          int64
	NewCount       int64
	ChangedCount   int64
	IntegrityScore float64
	Applied        int64
}

func (q *Queries) CreateSyncRun(ctx context.Context, arg CreateSyncRunParams) error {
	_, err := q.db.ExecContext(ctx, createSyncRun,
		arg.RanAt,
		arg.Total,
		arg.NewCount,
		arg.ChangedCount,
		arg.IntegrityScore,
		arg.Applied,
	)
	return err
}

const getLatestSyncRun = `
SELECT id, ran_at, total, new_count, changed_count, integrity_score, applied
FROM sync_runs
ORDER BY ran_at DESC
LIMIT 1
`

func (q *Queries) GetLatestSyncRun(ctx context.Context) (SyncRun, error) {
	row := q.db.QueryRowContext(ctx, getLatestSyncRun)
	var i SyncRun
	err := row.Scan(
		&i.ID,
		&i.RanAt,
		&i.Total,
		&i.NewCount,
		&i.ChangedCount,
		&i.IntegrityScore,
		&i.Applied,
	)
	return i, err
}
