// Package audit keeps a persistent JSONL trail of monitor activity:
// catalog changes, collections, alerts, and lifecycle events.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"modelhub-monitor/internal/logging"
)

// EventType classifies an audit event.
type EventType string

const (
	EventTypeModelAdd        EventType = "model_add"
	EventTypeModelRemove     EventType = "model_remove"
	EventTypeModelFetch      EventType = "model_fetch"
	EventTypeSampleCollected EventType = "sample_collected"
	EventTypeAlertRaised     EventType = "alert_raised"
	EventTypeThresholdUpdate EventType = "threshold_update"
	EventTypeReportGenerated EventType = "report_generated"
	EventTypeBackupCreated   EventType = "backup_created"
	EventTypeSystemStart     EventType = "system_start"
	EventTypeSystemShutdown  EventType = "system_shutdown"
	EventTypeError           EventType = "error"
)

// Event is a single audit trail entry.
type Event struct {
	ID         string                 `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	EventType  EventType              `json:"event_type"`
	TraceID    string                 `json:"trace_id,omitempty"`
	Action     string                 `json:"action"`
	Model      string                 `json:"model,omitempty"`
	ResourceID string                 `json:"resource_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	Duration   time.Duration          `json:"duration,omitempty"`
}

// Trail buffers audit events and appends them to rotating JSONL files.
type Trail struct {
	baseDir     string
	logger      logging.Logger
	maxFileSize int64
	retention   time.Duration
	flushEvery  time.Duration

	mu          sync.Mutex
	currentFile *os.File
	buffer      []Event
	eventCount  map[EventType]int64
	errorCount  int64
	lastFlush   time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

// NewTrail opens an audit trail under baseDir and starts its flush and
// cleanup loops. The trail records a system_start event immediately.
func NewTrail(baseDir string, logger logging.Logger) (*Trail, error) {
	if logger == nil {
		logger = logging.WithComponent("audit")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	t := &Trail{
		baseDir:     baseDir,
		logger:      logger,
		maxFileSize: 100 * 1024 * 1024,
		retention:   90 * 24 * time.Hour,
		flushEvery:  30 * time.Second,
		buffer:      make([]Event, 0, 100),
		eventCount:  make(map[EventType]int64),
		lastFlush:   time.Now(),
		done:        make(chan struct{}),
	}

	if err := t.rotateFile(); err != nil {
		return nil, fmt.Errorf("opening audit file: %w", err)
	}

	t.wg.Add(2)
	go t.flushLoop()
	go t.cleanupLoop()

	t.Record(context.Background(), EventTypeSystemStart, "audit trail started", "", "", nil)
	return t, nil
}

// SetRetention overrides the file retention window.
func (t *Trail) SetRetention(retention time.Duration) {
	t.mu.Lock()
	t.retention = retention
	t.mu.Unlock()
}

// Record appends a successful event. The trace ID is taken from ctx
// when present.
func (t *Trail) Record(ctx context.Context, eventType EventType, action, model, resourceID string, details map[string]interface{}) {
	t.addEvent(Event{
		ID:         uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		TraceID:    logging.TraceIDFromContext(ctx),
		Action:     action,
		Model:      model,
		ResourceID: resourceID,
		Details:    details,
		Success:    true,
	})
}

// RecordError appends a failed event.
func (t *Trail) RecordError(ctx context.Context, eventType EventType, action, model string, err error, details map[string]interface{}) {
	event := Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		TraceID:   logging.TraceIDFromContext(ctx),
		Action:    action,
		Model:     model,
		Details:   details,
		Success:   false,
	}
	if err != nil {
		event.Error = err.Error()
	}

	t.mu.Lock()
	t.errorCount++
	t.mu.Unlock()
	t.addEvent(event)
}

// RecordTimed appends a successful event carrying its duration.
func (t *Trail) RecordTimed(ctx context.Context, eventType EventType, action, model, resourceID string, duration time.Duration, details map[string]interface{}) {
	t.addEvent(Event{
		ID:         uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		TraceID:    logging.TraceIDFromContext(ctx),
		Action:     action,
		Model:      model,
		ResourceID: resourceID,
		Details:    details,
		Success:    true,
		Duration:   duration,
	})
}

func (t *Trail) addEvent(event Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buffer = append(t.buffer, event)
	t.eventCount[event.EventType]++

	if len(t.buffer) >= 100 {
		t.flushLocked()
	}
}

// Flush writes any buffered events to disk.
func (t *Trail) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushLocked()
}

func (t *Trail) flushLocked() {
	if len(t.buffer) == 0 {
		return
	}

	if t.currentFile != nil {
		if info, err := t.currentFile.Stat(); err == nil && info.Size() > t.maxFileSize {
			_ = t.rotateFile()
		}
	}

	encoder := json.NewEncoder(t.currentFile)
	for i := range t.buffer {
		if err := encoder.Encode(&t.buffer[i]); err != nil {
			t.logger.Error("failed to write audit event", "error", err, "event_id", t.buffer[i].ID)
		}
	}

	t.buffer = t.buffer[:0]
	t.lastFlush = time.Now()
}

func (t *Trail) flushLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.Flush()
		case <-t.done:
			return
		}
	}
}

func (t *Trail) rotateFile() error {
	if t.currentFile != nil {
		_ = t.currentFile.Close()
	}

	filename := fmt.Sprintf("audit_%s.jsonl", time.Now().Format("20060102_150405"))
	fullPath := filepath.Join(t.baseDir, filename)

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec G304 -- path is rooted in the audit dir
	if err != nil {
		return fmt.Errorf("opening audit file: %w", err)
	}
	t.currentFile = file

	currentLink := filepath.Join(t.baseDir, "current.jsonl")
	_ = os.Remove(currentLink)
	_ = os.Symlink(filename, currentLink)

	return nil
}

func (t *Trail) cleanupLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup()
		case <-t.done:
			return
		}
	}
}

func (t *Trail) cleanup() {
	t.mu.Lock()
	cutoff := time.Now().Add(-t.retention)
	t.mu.Unlock()

	entries, err := os.ReadDir(t.baseDir)
	if err != nil {
		t.logger.Error("failed to read audit directory", "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !isAuditFile(entry.Name()) {
			continue
		}
		fullPath := filepath.Join(t.baseDir, entry.Name())
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(fullPath); err != nil {
				t.logger.Error("failed to remove old audit file", "file", fullPath, "error", err)
			} else {
				t.logger.Info("removed old audit file", "file", entry.Name())
			}
		}
	}
}

// Statistics summarizes trail activity since startup.
func (t *Trail) Statistics() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	byType := make(map[EventType]int64, len(t.eventCount))
	var total int64
	for et, count := range t.eventCount {
		byType[et] = count
		total += count
	}

	return map[string]interface{}{
		"total_events":   total,
		"error_count":    t.errorCount,
		"events_by_type": byType,
		"buffer_size":    len(t.buffer),
		"last_flush":     t.lastFlush,
	}
}

// SearchCriteria filters audit events.
type SearchCriteria struct {
	StartTime  time.Time
	EndTime    time.Time
	EventTypes []EventType
	TraceID    string
	Model      string
	Success    *bool
	Limit      int
}

// Matches reports whether an event passes every set filter.
func (sc SearchCriteria) Matches(event *Event) bool {
	if !sc.StartTime.IsZero() && event.Timestamp.Before(sc.StartTime) {
		return false
	}
	if !sc.EndTime.IsZero() && event.Timestamp.After(sc.EndTime) {
		return false
	}

	if len(sc.EventTypes) > 0 {
		found := false
		for _, et := range sc.EventTypes {
			if event.EventType == et {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if sc.TraceID != "" && event.TraceID != sc.TraceID {
		return false
	}
	if sc.Model != "" && event.Model != sc.Model {
		return false
	}
	if sc.Success != nil && event.Success != *sc.Success {
		return false
	}
	return true
}

// Search scans the on-disk trail for events matching the criteria.
// Buffered events are flushed first so results are current.
func (t *Trail) Search(criteria SearchCriteria) ([]Event, error) {
	t.Flush()

	entries, err := os.ReadDir(t.baseDir)
	if err != nil {
		return nil, fmt.Errorf("reading audit directory: %w", err)
	}

	events := []Event{}
	for _, entry := range entries {
		if entry.IsDir() || !isAuditFile(entry.Name()) {
			continue
		}
		fileEvents, err := t.searchFile(entry.Name(), criteria)
		if err != nil {
			t.logger.Error("failed to search audit file", "file", entry.Name(), "error", err)
			continue
		}
		events = append(events, fileEvents...)
	}

	if criteria.Limit > 0 && len(events) > criteria.Limit {
		events = events[:criteria.Limit]
	}
	return events, nil
}

func (t *Trail) searchFile(filename string, criteria SearchCriteria) ([]Event, error) {
	cleanPath := filepath.Clean(filepath.Join(t.baseDir, filename))
	if !strings.HasPrefix(cleanPath, filepath.Clean(t.baseDir)) {
		return nil, fmt.Errorf("invalid audit filename: %q", filename)
	}

	file, err := os.Open(cleanPath) // #nosec G304 -- path is validated above
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var events []Event
	decoder := json.NewDecoder(file)
	for decoder.More() {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			continue
		}
		if criteria.Matches(&event) {
			events = append(events, event)
		}
	}
	return events, nil
}

// Stop records a shutdown event, flushes the buffer, and closes the
// trail.
func (t *Trail) Stop() {
	close(t.done)
	t.wg.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.buffer = append(t.buffer, Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		EventType: EventTypeSystemShutdown,
		Action:    "audit trail stopped",
		Success:   true,
	})
	t.eventCount[EventTypeSystemShutdown]++
	t.flushLocked()

	if t.currentFile != nil {
		_ = t.currentFile.Close()
		t.currentFile = nil
	}
}

func isAuditFile(filename string) bool {
	return strings.HasPrefix(filename, "audit_") && filepath.Ext(filename) == ".jsonl"
}
