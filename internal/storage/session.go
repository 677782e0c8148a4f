package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/registry"
)

const (
	modelsFile  = "models"
	sessionFile = "session"
)

// sessionEnvelope wraps session state with its save time.
type sessionEnvelope struct {
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// StorageStats summarizes disk usage under the session store.
type StorageStats struct {
	FileCount      int     `json:"file_count"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	TotalSizeMB    float64 `json:"total_size_mb"`
	Path           string  `json:"path"`
}

// SessionStore persists the catalog snapshot and menu session state
// between runs.
type SessionStore struct {
	store  *FileStore
	logger logging.Logger
	now    func() time.Time
}

// NewSessionStore roots a session store at dir.
func NewSessionStore(dir string, logger logging.Logger) (*SessionStore, error) {
	if logger == nil {
		logger = logging.WithComponent("session")
	}
	fs, err := NewFileStore(dir, logger)
	if err != nil {
		return nil, err
	}
	return &SessionStore{store: fs, logger: logger, now: time.Now}, nil
}

// SaveModels writes the catalog as display rows to models.json.
func (s *SessionStore) SaveModels(models []*registry.Model) error {
	rows := make([]map[string]string, 0, len(models))
	for _, m := range models {
		rows = append(rows, m.DisplayInfo())
	}
	if _, err := s.store.Save(modelsFile, rows, FormatJSON); err != nil {
		return fmt.Errorf("saving model data: %w", err)
	}
	s.logger.Info("model data saved", "count", len(rows))
	return nil
}

// LoadModels reads the saved display rows. A missing file yields an
// empty slice.
func (s *SessionStore) LoadModels() ([]map[string]string, error) {
	var rows []map[string]string
	if err := s.store.Load(modelsFile, FormatJSON, &rows); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []map[string]string{}, nil
		}
		return nil, fmt.Errorf("loading model data: %w", err)
	}
	if rows == nil {
		rows = []map[string]string{}
	}
	return rows, nil
}

// SaveSession writes session state to session.json, stamped with the
// save time.
func (s *SessionStore) SaveSession(state map[string]interface{}) error {
	envelope := sessionEnvelope{
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Data:      state,
	}
	if _, err := s.store.Save(sessionFile, envelope, FormatJSON); err != nil {
		return fmt.Errorf("saving session state: %w", err)
	}
	return nil
}

// LoadSession reads the saved session state. A missing file yields an
// empty map.
func (s *SessionStore) LoadSession() (map[string]interface{}, error) {
	var envelope sessionEnvelope
	if err := s.store.Load(sessionFile, FormatJSON, &envelope); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("loading session state: %w", err)
	}
	if envelope.Data == nil {
		envelope.Data = map[string]interface{}{}
	}
	return envelope.Data, nil
}

// Stats walks the store directory and totals its files.
func (s *SessionStore) Stats() (*StorageStats, error) {
	entries, err := os.ReadDir(s.store.Dir())
	if err != nil {
		return nil, fmt.Errorf("reading storage directory: %w", err)
	}

	stats := &StorageStats{Path: s.store.Dir()}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.FileCount++
		stats.TotalSizeBytes += info.Size()
	}
	stats.TotalSizeMB = round2(float64(stats.TotalSizeBytes) / (1024 * 1024))
	return stats, nil
}

// Files exposes the underlying file store for dashboard exports.
func (s *SessionStore) Files() *FileStore {
	return s.store
}
