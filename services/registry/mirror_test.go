package registry

import (
	"context"
	"database/sql"
	"testing"
	"tgpc-backend/lib/testutil"
	"tgpc-backend/services/registry/db"

	"github.com/stretchr/testify/require"
)

func setupMirror(t *testing.T) *Mirror {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "registry",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)
	return NewMirror(result.DB)
}

func TestMirrorUpsert(t *testing.T) {
	mirror := setupMirror(t)
	ctx := context.Background()

	require.NoError(t, mirror.Upsert(ctx, testRecords()))

	count, err := mirror.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	record, err := mirror.Get(ctx, "ts000001")
	require.NoError(t, err)
	require.Equal(t, "Ramesh Kumar", record.Name)

	// a second upsert with fewer records drops the missing ones
	require.NoError(t, mirror.Upsert(ctx, testRecords()[:1]))
	count, err = mirror.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	_, err = mirror.Get(ctx, "TS000002")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMirrorCategoryCounts(t *testing.T) {
	mirror := setupMirror(t)
	ctx := context.Background()

	records := []Record{
		{SerialNumber: "1", RegistrationNumber: "TS000001", Name: "A", Category: "BPharm"},
		{SerialNumber: "2", RegistrationNumber: "TS000002", Name: "B", Category: "BPharm"},
		{SerialNumber: "3", RegistrationNumber: "TS000003", Name: "C", Category: "PharmD"},
	}
	require.NoError(t, mirror.Upsert(ctx, records))

	counts, err := mirror.CategoryCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, "BPharm", counts[0].Category)
	require.EqualValues(t, 2, counts[0].Count)
}

func TestMirrorSyncRuns(t *testing.T) {
	mirror := setupMirror(t)
	ctx := context.Background()

	_, err := mirror.LatestSyncRun(ctx)
	require.ErrorIs(t, err, sql.ErrNoRows)

	err = mirror.RecordSyncRun(ctx, &SyncReport{
		Total:          3,
		NewCount:       1,
		ChangedCount:   2,
		IntegrityScore: 0.98,
		Applied:        true,
	})
	require.NoError(t, err)

	run, err := mirror.LatestSyncRun(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, run.Total)
	require.EqualValues(t, 1, run.NewCount)
	require.EqualValues(t, 1, run.Applied)
	require.InDelta(t, 0.98, run.IntegrityScore, 1e-9)
}
