// Package hubcache simulates a local hub model cache: download state,
// cache completeness checks, and per-model metadata files.
package hubcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/registry"
)

// Cache state reported by ModelStatus.
const (
	StatusDownloaded      = "downloaded"
	StatusIncomplete      = "incomplete"
	StatusAvailableOnline = "available_online"
	StatusNotFound        = "not_found"
)

// Download state reported by Progress.
const (
	DownloadNotStarted = "not_started"
	DownloadCompleted  = "completed"
	DownloadFailed     = "failed"
)

// defaultSizeMB is recorded for models without a declared size.
const defaultSizeMB = 150.0

// commonModels are treated as available on the hub.
var commonModels = map[string]bool{
	"bert-base-uncased":       true,
	"gpt2":                    true,
	"distilbert-base-uncased": true,
	"roberta-base":            true,
	"t5-small":                true,
	"xlnet-base-cased":        true,
}

// Metadata is the cache entry descriptor written next to the model
// files.
type Metadata struct {
	Name         string  `json:"name"`
	TaskType     string  `json:"task_type"`
	Library      string  `json:"library"`
	DownloadTime string  `json:"download_time"`
	SizeMB       float64 `json:"size_mb"`
	Status       string  `json:"status"`
}

// Progress reports download state for one model.
type Progress struct {
	Model    string `json:"model"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// Cache manages the on-disk model cache. Downloads are simulated by
// writing metadata and placeholder weight files.
type Cache struct {
	dir    string
	logger logging.Logger
	now    func() time.Time

	mu             sync.RWMutex
	downloadStatus map[string]string
}

// NewCache creates the cache directory when missing.
func NewCache(dir string, logger logging.Logger) (*Cache, error) {
	if logger == nil {
		logger = logging.WithComponent("hubcache")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{
		dir:            dir,
		logger:         logger,
		now:            time.Now,
		downloadStatus: make(map[string]string),
	}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// ModelStatus reports whether a model is cached, partially cached,
// fetchable from the hub, or unknown.
func (c *Cache) ModelStatus(name string) string {
	path := c.modelPath(name)

	if _, err := os.Stat(path); err == nil {
		if c.isComplete(path) {
			return StatusDownloaded
		}
		return StatusIncomplete
	}

	if commonModels[name] {
		return StatusAvailableOnline
	}
	return StatusNotFound
}

// Fetch simulates downloading a model into the cache: a metadata file
// plus placeholder config and weight files.
func (c *Cache) Fetch(m *registry.Model) error {
	path := c.modelPath(m.Name)
	if err := c.populate(path, m); err != nil {
		c.setDownloadStatus(m.Name, DownloadFailed)
		return fmt.Errorf("fetching %s: %w", m.Name, err)
	}

	c.setDownloadStatus(m.Name, DownloadCompleted)
	c.logger.Info("model fetched", "model", m.Name, "path", path)
	return nil
}

func (c *Cache) populate(path string, m *registry.Model) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	size := defaultSizeMB
	if declared, ok := m.DeclaredSizeMB(); ok {
		size = declared
	}
	metadata := Metadata{
		Name:         m.Name,
		TaskType:     m.TaskType,
		Library:      m.Library,
		DownloadTime: c.now().UTC().Format(time.RFC3339),
		SizeMB:       size,
		Status:       StatusDownloaded,
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(path, "model_metadata.json"), data, 0o600); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	for _, placeholder := range []string{"config.json", "pytorch_model.bin"} {
		if err := touch(filepath.Join(path, placeholder)); err != nil {
			return fmt.Errorf("writing %s: %w", placeholder, err)
		}
	}
	return nil
}

// Progress reports download progress for one model. Completed fetches
// report 100, everything else 0.
func (c *Cache) Progress(name string) Progress {
	c.mu.RLock()
	status, ok := c.downloadStatus[name]
	c.mu.RUnlock()
	if !ok {
		status = DownloadNotStarted
	}

	progress := 0
	if status == DownloadCompleted {
		progress = 100
	}
	return Progress{Model: name, Status: status, Progress: progress}
}

// Metadata reads the cache entry descriptor for a cached model.
func (c *Cache) Metadata(name string) (*Metadata, error) {
	path := filepath.Join(c.modelPath(name), "model_metadata.json")
	data, err := os.ReadFile(path) // #nosec G304 -- path is rooted in the cache dir
	if err != nil {
		return nil, fmt.Errorf("reading cache metadata for %s: %w", name, err)
	}

	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("decoding cache metadata for %s: %w", name, err)
	}
	return &metadata, nil
}

// isComplete holds when the required entry files are present.
func (c *Cache) isComplete(path string) bool {
	for _, required := range []string{"model_metadata.json", "config.json"} {
		if _, err := os.Stat(filepath.Join(path, required)); err != nil {
			return false
		}
	}
	return true
}

func (c *Cache) setDownloadStatus(name, status string) {
	c.mu.Lock()
	c.downloadStatus[name] = status
	c.mu.Unlock()
}

// modelPath maps hub names to cache directories, flattening slashes.
func (c *Cache) modelPath(name string) string {
	return filepath.Join(c.dir, strings.ReplaceAll(name, "/", "_"))
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304
	if err != nil {
		return err
	}
	return f.Close()
}
