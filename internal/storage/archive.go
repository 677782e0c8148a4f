package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/monitoring"
)

// Archive persists collected samples and alerts to SQLite so runs can
// be inspected after the process exits.
type Archive struct {
	db     *sql.DB
	logger logging.Logger
}

// OpenArchive opens (or creates) the archive database at path.
func OpenArchive(path string, logger logging.Logger) (*Archive, error) {
	if logger == nil {
		logger = logging.WithComponent("archive")
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_sync=NORMAL&_cache_size=10000")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	a := &Archive{db: db, logger: logger}
	if err := a.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing archive schema: %w", err)
	}
	return a, nil
}

func (a *Archive) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		memory_mb REAL NOT NULL,
		cpu_percent REAL NOT NULL,
		inference_ms REAL NOT NULL,
		throughput REAL NOT NULL,
		model_size_mb REAL NOT NULL,
		gpu_percent REAL,
		error_rate REAL NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		metric TEXT NOT NULL,
		value REAL NOT NULL,
		threshold REAL NOT NULL,
		model TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		severity TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_samples_model ON samples(model);
	CREATE INDEX IF NOT EXISTS idx_samples_timestamp ON samples(timestamp);
	CREATE INDEX IF NOT EXISTS idx_alerts_model ON alerts(model);
	CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp);
	`
	_, err := a.db.Exec(schema)
	return err
}

// SaveSamples writes a batch of samples in one transaction.
func (a *Archive) SaveSamples(ctx context.Context, samples []monitoring.MetricsSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (model, timestamp, memory_mb, cpu_percent, inference_ms,
			throughput, model_size_mb, gpu_percent, error_rate, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing sample insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range samples {
		s := &samples[i]
		if _, err := stmt.ExecContext(ctx,
			s.ModelName, s.Timestamp, s.MemoryUsageMB, s.CPUUsagePercent,
			s.InferenceTimeMS, s.ThroughputTokensPerSec, s.ModelSizeMB,
			s.GPUUsagePercent, s.ErrorRate, string(s.Status)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting sample for %s: %w", s.ModelName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing samples: %w", err)
	}
	a.logger.Debug("samples archived", "count", len(samples))
	return nil
}

// SaveAlerts writes a batch of alerts in one transaction. Replaying an
// alert ID overwrites the stored row.
func (a *Archive) SaveAlerts(ctx context.Context, alerts []monitoring.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO alerts (id, kind, metric, value, threshold, model, timestamp, severity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing alert insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range alerts {
		al := &alerts[i]
		if _, err := stmt.ExecContext(ctx,
			al.ID, string(al.Kind), al.Metric, al.Value, al.Threshold,
			al.Model, al.Timestamp, string(al.Severity)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting alert %s: %w", al.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing alerts: %w", err)
	}
	a.logger.Debug("alerts archived", "count", len(alerts))
	return nil
}

// SamplesForModel returns the newest samples for a model, most recent
// first. A limit of 0 returns all rows.
func (a *Archive) SamplesForModel(ctx context.Context, model string, limit int) ([]monitoring.MetricsSample, error) {
	query := `SELECT model, timestamp, memory_mb, cpu_percent, inference_ms,
		throughput, model_size_mb, gpu_percent, error_rate, status
		FROM samples WHERE model = ? ORDER BY timestamp DESC`
	args := []interface{}{model}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var samples []monitoring.MetricsSample
	for rows.Next() {
		var (
			s      monitoring.MetricsSample
			gpu    sql.NullFloat64
			status string
		)
		if err := rows.Scan(&s.ModelName, &s.Timestamp, &s.MemoryUsageMB,
			&s.CPUUsagePercent, &s.InferenceTimeMS, &s.ThroughputTokensPerSec,
			&s.ModelSizeMB, &gpu, &s.ErrorRate, &status); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		if gpu.Valid {
			v := gpu.Float64
			s.GPUUsagePercent = &v
		}
		s.Status = monitoring.Status(status)
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating samples: %w", err)
	}
	return samples, nil
}

// AlertsForModel returns a model's alerts, most recent first.
func (a *Archive) AlertsForModel(ctx context.Context, model string) ([]monitoring.Alert, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT id, kind, metric, value, threshold,
		model, timestamp, severity FROM alerts WHERE model = ? ORDER BY timestamp DESC`, model)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []monitoring.Alert
	for rows.Next() {
		var (
			al             monitoring.Alert
			kind, severity string
		)
		if err := rows.Scan(&al.ID, &kind, &al.Metric, &al.Value,
			&al.Threshold, &al.Model, &al.Timestamp, &severity); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		al.Kind = monitoring.AlertKind(kind)
		al.Severity = monitoring.Severity(severity)
		alerts = append(alerts, al)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alerts: %w", err)
	}
	return alerts, nil
}

// AlertCount returns the number of stored alerts for a model. An empty
// model counts every alert.
func (a *Archive) AlertCount(ctx context.Context, model string) (int64, error) {
	var (
		count int64
		err   error
	)
	if model == "" {
		err = a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alerts").Scan(&count)
	} else {
		err = a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alerts WHERE model = ?", model).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("counting alerts: %w", err)
	}
	return count, nil
}

// Models returns the distinct model names with archived samples.
func (a *Archive) Models(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT DISTINCT model FROM samples ORDER BY model")
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var models []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scanning model: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating models: %w", err)
	}
	return models, nil
}

// Prune deletes rows older than the retention window and reclaims disk
// space.
func (a *Archive) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)

	var deleted int64
	for _, table := range []string{"samples", "alerts"} {
		result, err := a.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE timestamp < ?", cutoff)
		if err != nil {
			return deleted, fmt.Errorf("pruning %s: %w", table, err)
		}
		n, _ := result.RowsAffected()
		deleted += n
	}

	if deleted > 0 {
		if _, err := a.db.ExecContext(ctx, "VACUUM"); err != nil {
			a.logger.Warn("vacuum failed after prune", "error", err)
		}
		a.logger.Info("archive pruned", "rows", deleted)
	}
	return deleted, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}
