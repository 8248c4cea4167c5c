// Package store persists analysis records in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

const createTableStmt = `
CREATE TABLE IF NOT EXISTS predictions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TIMESTAMP NOT NULL,
	run_id TEXT NOT NULL,
	host TEXT NOT NULL,
	metric_name TEXT NOT NULL,
	kind TEXT NOT NULL,
	severity TEXT NOT NULL,
	summary TEXT NOT NULL,
	action TEXT NOT NULL,
	justification TEXT NOT NULL,
	confidence REAL NOT NULL,
	breach_time TIMESTAMP,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_host ON predictions(host, created_at);
`

// PredictionRecord is one persisted narrative plus its source payload.
type PredictionRecord struct {
	ID            int64
	CreatedAt     time.Time
	RunID         string
	Host          string
	MetricName    string
	Kind          models.InsightKind
	Severity      string
	Summary       string
	Action        string
	Justification string
	Confidence    float64
	BreachTime    *time.Time
	Payload       string
}

// Store wraps the SQLite predictions database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the predictions database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database at %q: %w", path, err)
	}
	// Single connection avoids "database is locked" errors under sqlite.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to sqlite database: %w", err)
	}
	if _, err := db.Exec(createTableStmt); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create predictions table: %w", err)
	}
	return &Store{db: db}, nil
}

// Save inserts a record and returns its row ID.
func (s *Store) Save(ctx context.Context, rec PredictionRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var breach any
	if rec.BreachTime != nil {
		breach = rec.BreachTime.UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO predictions
			(created_at, run_id, host, metric_name, kind, severity, summary, action, justification, confidence, breach_time, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CreatedAt.UTC(), rec.RunID, rec.Host, rec.MetricName, string(rec.Kind),
		rec.Severity, rec.Summary, rec.Action, rec.Justification, rec.Confidence,
		breach, rec.Payload,
	)
	if err != nil {
		return 0, fmt.Errorf("insert prediction: %w", err)
	}
	return res.LastInsertId()
}

// ListRecent returns stored records newest first, optionally filtered by
// host.
func (s *Store) ListRecent(ctx context.Context, req models.ListPredictionsRequest) ([]PredictionRecord, error) {
	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, created_at, run_id, host, metric_name, kind, severity, summary, action, justification, confidence, breach_time, payload
		FROM predictions`
	args := make([]any, 0, 2)
	if req.Host != "" {
		query += " WHERE host = ?"
		args = append(args, req.Host)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var records []PredictionRecord
	for rows.Next() {
		var rec PredictionRecord
		var kind string
		var breach sql.NullTime
		if err := rows.Scan(
			&rec.ID, &rec.CreatedAt, &rec.RunID, &rec.Host, &rec.MetricName, &kind,
			&rec.Severity, &rec.Summary, &rec.Action, &rec.Justification, &rec.Confidence,
			&breach, &rec.Payload,
		); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		rec.Kind = models.InsightKind(kind)
		if breach.Valid {
			ts := breach.Time
			rec.BreachTime = &ts
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
