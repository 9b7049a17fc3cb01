// Package history provides the evaluation audit trail: every completed risk
// evaluation can be recorded with its full request and outcome so results
// remain reproducible and reviewable after the fact.
package history

import (
	"context"
	"io"
	"time"
)

// EvaluationRecord is one stored evaluation: the canonical request JSON,
// the headline numbers and any boundary warnings that were surfaced.
type EvaluationRecord struct {
	ID           int64     `json:"id,omitempty"`
	EvaluationID string    `json:"evaluation_id"` // UUID assigned by the evaluator
	Horizon      string    `json:"horizon"`
	RequestJSON  string    `json:"request_json"`
	BaselineRisk float64   `json:"baseline_risk"`
	FinalRisk    float64   `json:"final_risk"`
	ARR          float64   `json:"arr"`
	RRR          float64   `json:"rrr"`
	WarningsJSON string    `json:"warnings_json,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store defines the interface for evaluation history storage.
type Store interface {
	// Save stores an evaluation record. Records are append-only; saving an
	// existing evaluation ID is an error.
	Save(ctx context.Context, record *EvaluationRecord) error

	// GetByEvaluationID retrieves a record by its evaluation UUID.
	// Returns nil without error when no record exists.
	GetByEvaluationID(ctx context.Context, evaluationID string) (*EvaluationRecord, error)

	// List returns records ordered newest first, with pagination.
	List(ctx context.Context, limit, offset int) ([]*EvaluationRecord, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)

	// ExportJSON exports all records to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// Close closes the store and releases resources.
	Close() error
}

// HistoryExport represents the JSON export format.
type HistoryExport struct {
	Version     string              `json:"version"`
	ExportedAt  time.Time           `json:"exported_at"`
	Count       int                 `json:"count"`
	Evaluations []*EvaluationRecord `json:"evaluations"`
}
