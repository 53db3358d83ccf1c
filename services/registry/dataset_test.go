package registry

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testRecords() []Record {
	return []Record{
		{SerialNumber: "1", RegistrationNumber: "TS000001", Name: "Ramesh Kumar", FatherName: "Suresh", Category: "BPharm"},
		{SerialNumber: "2", RegistrationNumber: "TS000002", Name: "Anita Rao", FatherName: "Prakash", Category: "DPharm"},
	}
}

func TestDatasetSaveLoad(t *testing.T) {
	dataset := NewDataset(DatasetOptions{
		Path: filepath.Join(t.TempDir(), "pharmacists.json"),
	})
	ctx := context.Background()

	require.False(t, dataset.Exists())
	_, err := dataset.Load(ctx)
	require.ErrorIs(t, err, os.ErrNotExist)

	err = dataset.Save(ctx, testRecords())
	require.NoError(t, err)
	require.True(t, dataset.Exists())

	loaded, err := dataset.Load(ctx)
	require.NoError(t, err)
	diff := cmp.Diff(testRecords(), loaded)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestDatasetBackup(t *testing.T) {
	dir := t.TempDir()
	dataset := NewDataset(DatasetOptions{
		Path: filepath.Join(dir, "pharmacists.json"),
	})
	ctx := context.Background()

	require.NoError(t, dataset.Save(ctx, testRecords()))

	path, err := dataset.Backup(ctx)
	require.NoError(t, err)
	require.NoError(t, dataset.VerifyBackup(path))

	// corrupt the backup, verification must fail
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	require.Error(t, dataset.VerifyBackup(path))
}

func TestDatasetSaveBacksUpPrevious(t *testing.T) {
	dir := t.TempDir()
	dataset := NewDataset(DatasetOptions{
		Path: filepath.Join(dir, "pharmacists.json"),
	})
	ctx := context.Background()

	require.NoError(t, dataset.Save(ctx, testRecords()))
	require.NoError(t, dataset.Save(ctx, testRecords()[:1]))

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	// one backup plus its checksum sidecar
	require.Len(t, entries, 2)

	loaded, err := dataset.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}

func TestDatasetCleanupBackups(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	dataset := NewDataset(DatasetOptions{
		Path:            filepath.Join(dir, "pharmacists.json"),
		BackupDir:       backupDir,
		BackupRetention: time.Hour,
	})
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(backupDir, 0o755))
	stale := filepath.Join(backupDir, "20200101_000000_pharmacists.json")
	require.NoError(t, os.WriteFile(stale, []byte("{}"), 0o644))
	old := time.Now().Add(-time.Hour * 48)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(backupDir, "fresh_pharmacists.json")
	require.NoError(t, os.WriteFile(fresh, []byte("{}"), 0o644))

	removed, err := dataset.CleanupBackups(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = os.Stat(stale)
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(fresh)
	require.NoError(t, err)
}

func TestDatasetArchive(t *testing.T) {
	dir := t.TempDir()
	dataset := NewDataset(DatasetOptions{
		Path: filepath.Join(dir, "pharmacists.json"),
	})
	ctx := context.Background()

	require.NoError(t, dataset.Save(ctx, testRecords()))

	path, err := dataset.Archive(ctx, "before_migration")
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "TS000001")
}

func TestDatasetAudit(t *testing.T) {
	dir := t.TempDir()
	dataset := NewDataset(DatasetOptions{
		Path: filepath.Join(dir, "pharmacists.json"),
	})
	ctx := context.Background()

	err := dataset.Audit(ctx, AuditEntry{
		Action:     "sync",
		Total:      2,
		New:        1,
		SampleRegs: []string{"TS000002"},
	})
	require.NoError(t, err)
	err = dataset.Audit(ctx, AuditEntry{Action: "sync_refused", Note: "integrity too low"})
	require.NoError(t, err)

	file, err := os.Open(filepath.Join(dir, "audit.jsonl"))
	require.NoError(t, err)
	defer file.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry AuditEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, entries, 2)
	require.Equal(t, "sync", entries[0].Action)
	require.Equal(t, []string{"TS000002"}, entries[0].SampleRegs)
	require.False(t, entries[0].Time.IsZero())
	require.Equal(t, "sync_refused", entries[1].Action)
}

func TestSampleRegistrations(t *testing.T) {
	var records []Record
	for i := 0; i < 10; i++ {
		records = append(records, Record{RegistrationNumber: "TS00000" + string(rune('0'+i))})
	}
	require.Len(t, SampleRegistrations(records), auditSampleSize)
	require.Len(t, SampleRegistrations(records[:2]), 2)
}
