package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smart-cvd-risk-server/internal/domain"
)

// Recorder adapts a Store to the evaluator's audit sink: it flattens a
// completed evaluation into an EvaluationRecord.
type Recorder struct {
	store Store
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record stores one completed evaluation.
func (r *Recorder) Record(ctx context.Context, req *domain.EvaluationRequest, res *domain.EvaluationResult) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	warningsJSON := ""
	if len(res.Warnings) > 0 {
		data, err := json.Marshal(res.Warnings)
		if err != nil {
			return fmt.Errorf("marshaling warnings: %w", err)
		}
		warningsJSON = string(data)
	}

	return r.store.Save(ctx, &EvaluationRecord{
		EvaluationID: res.EvaluationID,
		Horizon:      res.Result.Horizon.String(),
		RequestJSON:  string(reqJSON),
		BaselineRisk: res.Result.BaselineRisk,
		FinalRisk:    res.Result.FinalRisk,
		ARR:          res.Result.ARR,
		RRR:          res.Result.RRR,
		WarningsJSON: warningsJSON,
		CreatedAt:    res.CreatedAt,
	})
}
