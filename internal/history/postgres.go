package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements the Store interface using PostgreSQL.
// It expects the schema to already exist (created via migrations).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL evaluation history store.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Save stores an evaluation record.
func (s *PostgresStore) Save(ctx context.Context, record *EvaluationRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO evaluations (
			evaluation_id, horizon, request_json,
			baseline_risk, final_risk, arr, rrr,
			warnings_json, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
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
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	return nil
}

// GetByEvaluationID retrieves a record by its evaluation UUID.
func (s *PostgresStore) GetByEvaluationID(ctx context.Context, evaluationID string) (*EvaluationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, evaluation_id, horizon, request_json,
			baseline_risk, final_risk, arr, rrr,
			warnings_json, created_at
		FROM evaluations
		WHERE evaluation_id = $1
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
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*EvaluationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, evaluation_id, horizon, request_json,
			baseline_risk, final_risk, arr, rrr,
			warnings_json, created_at
		FROM evaluations
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
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
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evaluations").Scan(&count)
	return count, err
}

// ExportJSON exports all records to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
