package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"tgpc-backend/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

const auditSampleSize = 5

type DatasetOptions struct {
	// path of the main dataset json file
	Path string
	// if unspecified, backups go next to the dataset under backups/
	BackupDir string
	// if unspecified, archives go next to the dataset under archive/
	ArchiveDir string
	// if unspecified, the audit log goes next to the dataset
	AuditLogPath string
	// backups older than this get deleted, defaults to 30 days
	BackupRetention time.Duration
}

// Dataset owns the registry's on-disk representation: the main json
// file, checksummed backups, timestamped archives and a jsonl audit
// trail of every save.
type Dataset struct {
	opts DatasetOptions
}

type datasetFile struct {
	LastUpdated  time.Time `json:"last_updated"`
	TotalRecords int       `json:"total_records"`
	Records      []Record  `json:"records"`
}

// AuditEntry is one line of the dataset's audit log.
type AuditEntry struct {
	Time       time.Time `json:"time"`
	Action     string    `json:"action"`
	Total      int       `json:"total"`
	New        int       `json:"new,omitempty"`
	Changed    int       `json:"changed,omitempty"`
	DryRun     bool      `json:"dry_run,omitempty"`
	SampleRegs []string  `json:"sample_regs,omitempty"`
	Note       string    `json:"note,omitempty"`
}

func NewDataset(opts DatasetOptions) *Dataset {
	dir := filepath.Dir(opts.Path)
	if opts.BackupDir == "" {
		opts.BackupDir = filepath.Join(dir, "backups")
	}
	if opts.ArchiveDir == "" {
		opts.ArchiveDir = filepath.Join(dir, "archive")
	}
	if opts.AuditLogPath == "" {
		opts.AuditLogPath = filepath.Join(dir, "audit.jsonl")
	}
	if opts.BackupRetention <= 0 {
		opts.BackupRetention = time.Hour * 24 * 30
	}
	return &Dataset{opts: opts}
}

func (d *Dataset) Path() string {
	return d.opts.Path
}

// Exists reports whether a dataset has been saved before.
func (d *Dataset) Exists() bool {
	_, err := os.Stat(d.opts.Path)
	return err == nil
}

// Load reads the dataset from disk. A missing file yields
// os.ErrNotExist.
func (d *Dataset) Load(ctx context.Context) ([]Record, error) {
	_, span := tracer.Start(ctx, "dataset.Load")
	defer span.End()

	raw, err := os.ReadFile(d.opts.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	var file datasetFile
	err = json.Unmarshal(raw, &file)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("dataset %s: %w", d.opts.Path, err)
	}
	return file.Records, nil
}

// Save writes the dataset atomically, backing up the previous version
// first and verifying the written file reads back with the same
// registration numbers.
func (d *Dataset) Save(ctx context.Context, records []Record) error {
	ctx, span := tracer.Start(ctx, "dataset.Save")
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if d.Exists() {
		_, err := d.Backup(ctx)
		if err != nil {
			return fail(fmt.Errorf("backup before save: %w", err))
		}
	}

	raw, err := json.MarshalIndent(datasetFile{
		LastUpdated:  timezone.Now(),
		TotalRecords: len(records),
		Records:      records,
	}, "", "  ")
	if err != nil {
		return fail(err)
	}

	err = os.MkdirAll(filepath.Dir(d.opts.Path), 0o755)
	if err != nil {
		return fail(err)
	}
	tmp := d.opts.Path + ".tmp"
	err = os.WriteFile(tmp, raw, 0o644)
	if err != nil {
		return fail(err)
	}
	err = os.Rename(tmp, d.opts.Path)
	if err != nil {
		return fail(err)
	}

	err = d.verifySaved(ctx, records)
	if err != nil {
		return fail(err)
	}
	return nil
}

// reads the file back and checks count plus registration number set
func (d *Dataset) verifySaved(ctx context.Context, expected []Record) error {
	saved, err := d.Load(ctx)
	if err != nil {
		return fmt.Errorf("verify saved dataset: %w", err)
	}
	if len(saved) != len(expected) {
		return fmt.Errorf(
			"verify saved dataset: wrote %d records but read back %d",
			len(expected), len(saved),
		)
	}
	want := make(map[string]bool, len(expected))
	for _, record := range expected {
		want[record.RegistrationNumber] = true
	}
	for _, record := range saved {
		if !want[record.RegistrationNumber] {
			return fmt.Errorf(
				"verify saved dataset: unexpected registration number %q",
				record.RegistrationNumber,
			)
		}
	}
	return nil
}

// Backup copies the current dataset file into the backup directory
// along with a sha256 sidecar, and prunes expired backups.
func (d *Dataset) Backup(ctx context.Context) (string, error) {
	_, span := tracer.Start(ctx, "dataset.Backup")
	defer span.End()

	fail := func(err error) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	raw, err := os.ReadFile(d.opts.Path)
	if err != nil {
		return fail(err)
	}
	err = os.MkdirAll(d.opts.BackupDir, 0o755)
	if err != nil {
		return fail(err)
	}

	stamp := timezone.Now().Format("20060102_150405")
	name := fmt.Sprintf("%s_%s", stamp, filepath.Base(d.opts.Path))
	path := filepath.Join(d.opts.BackupDir, name)

	err = os.WriteFile(path, raw, 0o644)
	if err != nil {
		return fail(err)
	}
	sum := sha256.Sum256(raw)
	err = os.WriteFile(path+".sha256", []byte(hex.EncodeToString(sum[:])), 0o644)
	if err != nil {
		return fail(err)
	}

	_, err = d.CleanupBackups(ctx)
	if err != nil {
		return fail(err)
	}
	return path, nil
}

// VerifyBackup checks a backup file against its sha256 sidecar.
func (d *Dataset) VerifyBackup(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	want, err := os.ReadFile(path + ".sha256")
	if err != nil {
		return fmt.Errorf("backup %s has no checksum sidecar: %w", path, err)
	}
	sum := sha256.Sum256(raw)
	if hex.EncodeToString(sum[:]) != strings.TrimSpace(string(want)) {
		return fmt.Errorf("backup %s is corrupted: checksum mismatch", path)
	}
	return nil
}

// CleanupBackups deletes backups older than the retention window and
// reports how many were removed.
func (d *Dataset) CleanupBackups(ctx context.Context) (int, error) {
	_, span := tracer.Start(ctx, "dataset.CleanupBackups")
	defer span.End()

	entries, err := os.ReadDir(d.opts.BackupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := timezone.Now().Add(-d.opts.BackupRetention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		err = os.Remove(filepath.Join(d.opts.BackupDir, entry.Name()))
		if err != nil {
			return removed, err
		}
		if !strings.HasSuffix(entry.Name(), ".sha256") {
			removed++
		}
	}
	return removed, nil
}

// Archive stores a labeled snapshot of the current dataset that is
// never subject to backup retention.
func (d *Dataset) Archive(ctx context.Context, label string) (string, error) {
	_, span := tracer.Start(ctx, "dataset.Archive")
	defer span.End()

	raw, err := os.ReadFile(d.opts.Path)
	if err != nil {
		return "", err
	}
	err = os.MkdirAll(d.opts.ArchiveDir, 0o755)
	if err != nil {
		return "", err
	}
	stamp := timezone.Now().Format("20060102")
	path := filepath.Join(d.opts.ArchiveDir, fmt.Sprintf("%s_%s.json", stamp, label))
	err = os.WriteFile(path, raw, 0o644)
	if err != nil {
		return "", err
	}
	return path, nil
}

// Audit appends an entry to the jsonl audit log.
func (d *Dataset) Audit(ctx context.Context, entry AuditEntry) error {
	_, span := tracer.Start(ctx, "dataset.Audit")
	defer span.End()

	if entry.Time.IsZero() {
		entry.Time = timezone.Now()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(d.opts.AuditLogPath), 0o755)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(d.opts.AuditLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.Write(append(raw, '\n'))
	return err
}

// SampleRegistrations picks up to 5 registration numbers for audit
// log context.
func SampleRegistrations(records []Record) []string {
	var sample []string
	for _, record := range records {
		if len(sample) >= auditSampleSize {
			break
		}
		sample = append(sample, record.RegistrationNumber)
	}
	return sample
}
