// Package storage persists monitor state: generic JSON/YAML/text files,
// model and session snapshots, compressed backups, and a SQLite archive
// for collected metrics.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"modelhub-monitor/internal/logging"
)

// Format selects the on-disk encoding for a file store entry.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "txt"
)

// ParseFormat maps a backend name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported storage format: %q", s)
	}
}

// Ext returns the file extension for the format, with the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// FileInfo describes a stored file.
type FileInfo struct {
	Name      string  `json:"name"`
	SizeBytes int64   `json:"size_bytes"`
	SizeMB    float64 `json:"size_mb"`
	Modified  string  `json:"modified"`
	IsFile    bool    `json:"is_file"`
	Extension string  `json:"extension"`
}

// FileStore reads and writes named entries under a single directory.
type FileStore struct {
	dir    string
	logger logging.Logger
}

// NewFileStore creates the directory when missing and returns a store
// rooted there.
func NewFileStore(dir string, logger logging.Logger) (*FileStore, error) {
	if logger == nil {
		logger = logging.WithComponent("filestore")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the store's root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save encodes v in the given format and writes it under name. Text
// format stringifies the value with %v.
func (s *FileStore) Save(name string, v interface{}, format Format) (string, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(v)
	case FormatText:
		data = []byte(fmt.Sprintf("%v", v))
	default:
		return "", fmt.Errorf("unsupported storage format: %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}

	path := s.path(name, format)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	s.logger.Debug("saved file", "path", path, "bytes", len(data))
	return path, nil
}

// Load reads the named entry and decodes it into out. For text format
// out must be a *string.
func (s *FileStore) Load(name string, format Format, out interface{}) error {
	path := s.path(name, format)
	data, err := os.ReadFile(path) // #nosec G304 -- path is rooted in the store dir
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
	case FormatText:
		sp, ok := out.(*string)
		if !ok {
			return fmt.Errorf("text load target must be *string, got %T", out)
		}
		*sp = string(data)
	default:
		return fmt.Errorf("unsupported storage format: %q", format)
	}
	return nil
}

// Delete removes the named entry. Deleting a missing entry is an error.
func (s *FileStore) Delete(name string, format Format) error {
	path := s.path(name, format)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	s.logger.Debug("deleted file", "path", path)
	return nil
}

// List returns the names of files matching the glob pattern, sorted.
func (s *FileStore) List(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", pattern, err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}

// Info returns metadata for a stored file by its full name.
func (s *FileStore) Info(name string) (*FileInfo, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &FileInfo{
		Name:      stat.Name(),
		SizeBytes: stat.Size(),
		SizeMB:    round2(float64(stat.Size()) / (1024 * 1024)),
		Modified:  stat.ModTime().UTC().Format(time.RFC3339),
		IsFile:    !stat.IsDir(),
		Extension: filepath.Ext(path),
	}, nil
}

// SaveDashboard writes rendered dashboard HTML to dashboard.html and
// returns its path.
func (s *FileStore) SaveDashboard(html string) (string, error) {
	path := filepath.Join(s.dir, "dashboard.html")
	if err := os.WriteFile(path, []byte(html), 0o600); err != nil {
		return "", fmt.Errorf("writing dashboard: %w", err)
	}
	s.logger.Info("dashboard saved", "path", path)
	return path, nil
}

func (s *FileStore) path(name string, format Format) string {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, format.Ext()) {
		base += format.Ext()
	}
	return filepath.Join(s.dir, base)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
