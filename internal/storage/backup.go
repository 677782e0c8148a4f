package storage

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"modelhub-monitor/internal/logging"
)

// BackupMetadata describes a completed backup.
type BackupMetadata struct {
	Version    string                 `json:"version"`
	CreatedAt  time.Time              `json:"created_at"`
	EntryCount int                    `json:"entry_count"`
	Size       int64                  `json:"size"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// BackupManager writes and restores compressed snapshots of monitor
// state. Each backup is a tar.gz of named JSON entries plus a metadata
// sidecar file.
type BackupManager struct {
	backupDir     string
	retentionDays int
	logger        logging.Logger
	now           func() time.Time
}

// NewBackupManager returns a manager rooted at backupDir. Retention
// defaults to 30 days, overridable with MODELHUB_BACKUP_RETENTION_DAYS.
func NewBackupManager(backupDir string, logger logging.Logger) *BackupManager {
	if logger == nil {
		logger = logging.WithComponent("backup")
	}
	retention := 30
	if v := os.Getenv("MODELHUB_BACKUP_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			retention = n
		}
	}
	return &BackupManager{
		backupDir:     backupDir,
		retentionDays: retention,
		logger:        logger,
		now:           time.Now,
	}
}

// SetRetentionDays overrides the cleanup cutoff.
func (bm *BackupManager) SetRetentionDays(days int) {
	bm.retentionDays = days
}

// BackupDir returns the backup directory path.
func (bm *BackupManager) BackupDir() string {
	return bm.backupDir
}

// Create writes a backup archive holding one JSON entry per section.
// Sections are stored as <name>.json inside the archive.
func (bm *BackupManager) Create(sections map[string]interface{}) (*BackupMetadata, error) {
	if err := os.MkdirAll(bm.backupDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	stamp := bm.now().Format("20060102_150405")
	backupFile := filepath.Join(bm.backupDir, fmt.Sprintf("backup_%s.tar.gz", stamp))

	if err := bm.writeArchive(backupFile, sections); err != nil {
		return nil, err
	}

	metadata, err := bm.writeMetadata(backupFile, len(sections))
	if err != nil {
		return nil, err
	}

	bm.logger.Info("backup created",
		"file", backupFile, "entries", len(sections), "bytes", metadata.Size)
	return metadata, nil
}

func (bm *BackupManager) writeArchive(backupFile string, sections map[string]interface{}) error {
	file, err := os.Create(backupFile) // #nosec G304 -- path is built from the backup dir
	if err != nil {
		return fmt.Errorf("creating backup file: %w", err)
	}
	defer func() { _ = file.Close() }()

	gzipWriter := gzip.NewWriter(file)
	defer func() { _ = gzipWriter.Close() }()

	tarWriter := tar.NewWriter(gzipWriter)
	defer func() { _ = tarWriter.Close() }()

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := json.MarshalIndent(sections[name], "", "  ")
		if err != nil {
			return fmt.Errorf("encoding backup entry %s: %w", name, err)
		}

		header := &tar.Header{
			Name:    name + ".json",
			Size:    int64(len(data)),
			Mode:    0o644,
			ModTime: bm.now(),
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("writing tar header: %w", err)
		}
		if _, err := tarWriter.Write(data); err != nil {
			return fmt.Errorf("writing backup entry %s: %w", name, err)
		}
	}
	return nil
}

func (bm *BackupManager) writeMetadata(backupFile string, entryCount int) (*BackupMetadata, error) {
	stat, err := os.Stat(backupFile)
	if err != nil {
		return nil, fmt.Errorf("stat backup file: %w", err)
	}

	metadata := &BackupMetadata{
		Version:    "1.0",
		CreatedAt:  bm.now().UTC(),
		EntryCount: entryCount,
		Size:       stat.Size(),
		Metadata: map[string]interface{}{
			"backup_file": backupFile,
			"compression": "gzip",
			"format":      "tar",
		},
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup metadata: %w", err)
	}
	if err := os.WriteFile(backupFile+".meta.json", data, 0o600); err != nil {
		return nil, fmt.Errorf("writing backup metadata: %w", err)
	}
	return metadata, nil
}

// Restore reads a backup archive and returns its entries keyed by
// section name.
func (bm *BackupManager) Restore(backupFile string) (map[string]json.RawMessage, error) {
	path := filepath.Clean(backupFile)
	if !filepath.IsAbs(path) {
		path = filepath.Join(bm.backupDir, path)
	}

	file, err := os.Open(path) // #nosec G304 -- path is rooted in the backup dir
	if err != nil {
		return nil, fmt.Errorf("opening backup file: %w", err)
	}
	defer func() { _ = file.Close() }()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("reading backup compression: %w", err)
	}
	defer func() { _ = gzipReader.Close() }()

	tarReader := tar.NewReader(gzipReader)
	sections := make(map[string]json.RawMessage)
	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading backup entry: %w", err)
		}
		if !strings.HasSuffix(header.Name, ".json") {
			continue
		}

		data := make([]byte, header.Size)
		if _, err := io.ReadFull(tarReader, data); err != nil {
			return nil, fmt.Errorf("reading backup entry %s: %w", header.Name, err)
		}
		name := strings.TrimSuffix(filepath.Base(header.Name), ".json")
		sections[name] = json.RawMessage(data)
	}

	bm.logger.Info("backup restored", "file", path, "entries", len(sections))
	return sections, nil
}

// List returns metadata for every backup under the backup directory,
// newest first.
func (bm *BackupManager) List() ([]BackupMetadata, error) {
	entries, err := os.ReadDir(bm.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []BackupMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(bm.backupDir, entry.Name())) // #nosec G304
		if err != nil {
			continue
		}
		var metadata BackupMetadata
		if err := json.Unmarshal(data, &metadata); err != nil {
			continue
		}
		backups = append(backups, metadata)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// CleanupOld removes backups past the retention period.
func (bm *BackupManager) CleanupOld() error {
	cutoff := bm.now().AddDate(0, 0, -bm.retentionDays)

	backups, err := bm.List()
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}

	for i := range backups {
		if !backups[i].CreatedAt.Before(cutoff) {
			continue
		}
		backupFile, ok := backups[i].Metadata["backup_file"].(string)
		if !ok {
			continue
		}
		if err := os.Remove(backupFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing backup %s: %w", backupFile, err)
		}
		if err := os.Remove(backupFile + ".meta.json"); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing backup metadata %s: %w", backupFile, err)
		}
		bm.logger.Info("old backup removed", "file", backupFile)
	}
	return nil
}
