package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite evaluation history store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into an EvaluationRecord.
func scanRecord(s scanner) (*EvaluationRecord, error) {
	rec := &EvaluationRecord{}
	err := s.Scan(
		&rec.ID, &rec.EvaluationID, &rec.Horizon, &rec.RequestJSON,
		&rec.BaselineRisk, &rec.FinalRisk, &rec.ARR, &rec.RRR,
		&rec.WarningsJSON, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		evaluation_id TEXT NOT NULL UNIQUE,
		horizon TEXT NOT NULL,
		request_json TEXT NOT NULL,
		baseline_risk REAL NOT NULL,
		final_risk REAL NOT NULL,
		arr REAL NOT NULL,
		rrr REAL NOT NULL,
		warnings_json TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_evaluation_id ON evaluations(evaluation_id);
	CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Save stores an evaluation record.
func (s *SQLiteStore) Save(ctx context.Context, record *EvaluationRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations (
			evaluation_id, horizon, request_json,
			baseline_risk, final_risk, arr, rrr,
			warnings_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.EvaluationID,
		record.Horizon,
		record.RequestJSON,
		record.BaselineRisk,
		record.FinalRisk,
		record.ARR,
		record.RRR,
		record.WarningsJSON,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	record.ID = id

	return nil
}

// GetByEvaluationID retrieves a record by its evaluation UUID.
func (s *SQLiteStore) GetByEvaluationID(ctx context.Context, evaluationID string) (*EvaluationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, evaluation_id, horizon, request_json,
			baseline_risk, final_risk, arr, rrr,
			warnings_json, created_at
		FROM evaluations
		WHERE evaluation_id = ?
		LIMIT 1
	`, evaluationID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return rec, nil
}

// List returns records ordered newest first, with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*EvaluationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, evaluation_id, horizon, request_json,
			baseline_risk, final_risk, arr, rrr,
			warnings_json, created_at
		FROM evaluations
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*EvaluationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Count returns the total number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evaluations").Scan(&count)
	return count, err
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// ExportJSON exports all records to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list evaluations: %w", err)
	}

	export := &HistoryExport{
		Version:     "1.0",
		ExportedAt:  time.Now().UTC(),
		Count:       len(all),
		Evaluations: all,
	}

	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
