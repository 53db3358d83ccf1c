package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"tgpc-backend/lib/scrapers/tgpc"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rows []tgpc.ListingRow
	err  error
}

func (f fakeSource) FetchListing(ctx context.Context) ([]tgpc.ListingRow, error) {
	return f.rows, f.err
}

func testListing() []tgpc.ListingRow {
	return []tgpc.ListingRow{
		{Serial: 1, RegistrationNumber: "TS000001", Name: "RAMESH KUMAR", FatherName: "SURESH", Category: "B.Pharmacy"},
		{Serial: 2, RegistrationNumber: "TS000002", Name: "ANITA RAO", FatherName: "PRAKASH", Category: "D.Pharmacy"},
		{Serial: 3, RegistrationNumber: "TS000003", Name: "KIRAN REDDY", FatherName: "MOHAN", Category: "Pharm.D"},
	}
}

func testDataset(t *testing.T) *Dataset {
	return NewDataset(DatasetOptions{
		Path: filepath.Join(t.TempDir(), "pharmacists.json"),
	})
}

func TestSyncIntoEmptyDataset(t *testing.T) {
	dataset := testDataset(t)
	syncer := NewSyncer(fakeSource{rows: testListing()}, dataset)

	report, err := syncer.Sync(context.Background(), SyncOptions{MinRecordCount: 1})
	require.NoError(t, err)
	require.True(t, report.Applied)
	require.Equal(t, 3, report.NewCount)
	require.Equal(t, 0, report.ChangedCount)
	require.InDelta(t, 1.0, report.IntegrityScore, 1e-9)

	records, err := dataset.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "Ramesh Kumar", records[0].Name)
}

func TestSyncRefusesLargeChange(t *testing.T) {
	dataset := testDataset(t)
	ctx := context.Background()

	first := NewSyncer(fakeSource{rows: testListing()}, dataset)
	_, err := first.Sync(ctx, SyncOptions{MinRecordCount: 1})
	require.NoError(t, err)

	changed := testListing()
	changed[0].Name = "SOMEONE ELSE"
	changed[1].Name = "ANOTHER PERSON"
	second := NewSyncer(fakeSource{rows: changed}, dataset)

	report, err := second.Sync(ctx, SyncOptions{MinRecordCount: 1})
	var safetyErr *SafetyError
	require.ErrorAs(t, err, &safetyErr)
	require.NotNil(t, report)
	require.False(t, report.Applied)

	// dataset must be untouched
	records, err := dataset.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ramesh Kumar", records[0].Name)
}

func TestSyncForceOverridesSafety(t *testing.T) {
	dataset := testDataset(t)
	ctx := context.Background()

	first := NewSyncer(fakeSource{rows: testListing()}, dataset)
	_, err := first.Sync(ctx, SyncOptions{MinRecordCount: 1})
	require.NoError(t, err)

	changed := testListing()
	changed[0].Name = "SOMEONE ELSE"
	changed[1].Name = "ANOTHER PERSON"
	second := NewSyncer(fakeSource{rows: changed}, dataset)

	report, err := second.Sync(ctx, SyncOptions{MinRecordCount: 1, Force: true})
	require.NoError(t, err)
	require.True(t, report.Applied)

	records, err := dataset.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "Someone Else", records[0].Name)
}

func TestSyncRefusesLowIntegrity(t *testing.T) {
	rows := []tgpc.ListingRow{
		{Serial: 1, RegistrationNumber: "TS000001", Name: "GOOD RECORD", Category: "B.Pharmacy"},
		{Serial: 2, RegistrationNumber: "garbage!", Name: "BAD RECORD", Category: "B.Pharmacy"},
	}
	dataset := testDataset(t)
	syncer := NewSyncer(fakeSource{rows: rows}, dataset)

	_, err := syncer.Sync(context.Background(), SyncOptions{MinRecordCount: 1})
	var safetyErr *SafetyError
	require.ErrorAs(t, err, &safetyErr)
	require.False(t, dataset.Exists())
}

func TestSyncRefusesTooFewRecords(t *testing.T) {
	dataset := testDataset(t)
	syncer := NewSyncer(fakeSource{rows: testListing()}, dataset)

	_, err := syncer.Sync(context.Background(), SyncOptions{MinRecordCount: 100})
	var safetyErr *SafetyError
	require.ErrorAs(t, err, &safetyErr)
}

func TestSyncArchivesSnapshot(t *testing.T) {
	dir := t.TempDir()
	dataset := NewDataset(DatasetOptions{
		Path: filepath.Join(dir, "pharmacists.json"),
	})
	syncer := NewSyncer(fakeSource{rows: testListing()}, dataset)

	report, err := syncer.Sync(context.Background(), SyncOptions{MinRecordCount: 1})
	require.NoError(t, err)
	require.True(t, report.Applied)

	entries, err := os.ReadDir(filepath.Join(dir, "archive"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSyncSkipArchive(t *testing.T) {
	dir := t.TempDir()
	dataset := NewDataset(DatasetOptions{
		Path: filepath.Join(dir, "pharmacists.json"),
	})
	syncer := NewSyncer(fakeSource{rows: testListing()}, dataset)

	report, err := syncer.Sync(context.Background(), SyncOptions{
		MinRecordCount: 1,
		SkipArchive:    true,
	})
	require.NoError(t, err)
	require.True(t, report.Applied)

	_, err = os.Stat(filepath.Join(dir, "archive"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSyncDryRun(t *testing.T) {
	dataset := testDataset(t)
	syncer := NewSyncer(fakeSource{rows: testListing()}, dataset)

	report, err := syncer.Sync(context.Background(), SyncOptions{
		MinRecordCount: 1,
		DryRun:         true,
	})
	require.NoError(t, err)
	require.False(t, report.Applied)
	require.True(t, report.DryRun)
	require.Equal(t, 3, report.NewCount)
	require.False(t, dataset.Exists())
}
