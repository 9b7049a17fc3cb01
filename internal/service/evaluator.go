package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/smart-cvd-risk-server/internal/domain"
)

// EvaluationSink receives completed evaluations for audit storage. Recording
// is best-effort: a sink failure is logged but never fails the evaluation.
type EvaluationSink interface {
	Record(ctx context.Context, req *domain.EvaluationRequest, res *domain.EvaluationResult) error
}

// Evaluator orchestrates a full risk evaluation: boundary validation,
// baseline estimation, horizon selection, reduction composition and warning
// collection. It holds no per-call state; concurrent evaluations need no
// coordination.
type Evaluator struct {
	logger    *logrus.Logger
	estimator *RiskEstimator
	composer  *ReductionComposer
	sink      EvaluationSink
	cache     *lru.Cache[string, *domain.EvaluationResult]
}

// EvaluatorOption is a functional option for Evaluator.
type EvaluatorOption func(*Evaluator) error

// WithSink sets the audit sink for completed evaluations.
func WithSink(sink EvaluationSink) EvaluatorOption {
	return func(e *Evaluator) error {
		e.sink = sink
		return nil
	}
}

// WithResultCache enables an in-process LRU cache of evaluation results
// keyed by the canonical request hash. Because evaluations are pure, a
// cached result is byte-identical to a recomputed one.
func WithResultCache(maxEntries int) EvaluatorOption {
	return func(e *Evaluator) error {
		cache, err := lru.New[string, *domain.EvaluationResult](maxEntries)
		if err != nil {
			return fmt.Errorf("creating result cache: %w", err)
		}
		e.cache = cache
		return nil
	}
}

// NewEvaluator creates an evaluator over the given engine components.
func NewEvaluator(logger *logrus.Logger, estimator *RiskEstimator, composer *ReductionComposer, opts ...EvaluatorOption) (*Evaluator, error) {
	e := &Evaluator{
		logger:    logger,
		estimator: estimator,
		composer:  composer,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("applying evaluator option: %w", err)
		}
	}
	return e, nil
}

// EstimateRisk validates the profile and returns the baseline risk over both
// windows, together with any boundary warnings.
func (e *Evaluator) EstimateRisk(profile domain.PatientProfile) (domain.RiskEstimate, []string, error) {
	if err := profile.Validate(); err != nil {
		return domain.RiskEstimate{}, nil, err
	}
	return e.estimator.EstimateRisk(profile), profile.Warnings(), nil
}

// Evaluate runs the complete evaluation workflow for a request.
func (e *Evaluator) Evaluate(ctx context.Context, req *domain.EvaluationRequest) (*domain.EvaluationResult, error) {
	startTime := time.Now()

	// Step 1: boundary validation.
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid evaluation request: %w", err)
	}

	// Step 2: serve from cache when an identical request was already
	// evaluated.
	key := requestKey(req)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			e.logger.WithFields(logrus.Fields{
				"evaluation_id": cached.EvaluationID,
				"cache_hit":     true,
			}).Debug("Returning cached evaluation result")
			return cached, nil
		}
	}

	e.logger.WithFields(logrus.Fields{
		"horizon":       req.Horizon.String(),
		"interventions": len(req.Interventions),
	}).Info("Starting risk evaluation")

	// Step 3: baseline estimation and horizon selection.
	estimate := e.estimator.EstimateRisk(req.Profile)
	baseline := estimate.BaselineForHorizon(req.Horizon)

	// Step 4: reduction composition.
	result, err := e.composer.ComposeFinalRisk(baseline, req.Horizon, req.Interventions, req.Lipid, req.BloodPressure)
	if err != nil {
		return nil, err
	}

	// Step 5: collect boundary warnings.
	warnings := append(req.Profile.Warnings(), req.BloodPressure.Warnings()...)
	if result.Therapy.FinalLDL < domain.LDLFloor {
		warnings = append(warnings, fmt.Sprintf("final LDL-C %.2f mmol/L is below the %.1f mmol/L theoretical minimum; modeled benefit is capped", result.Therapy.FinalLDL, domain.LDLFloor))
	}

	evaluation := &domain.EvaluationResult{
		EvaluationID:   uuid.New().String(),
		Estimate:       estimate,
		Result:         *result,
		Warnings:       warnings,
		ProcessingTime: time.Since(startTime),
		CreatedAt:      time.Now().UTC(),
	}

	// Step 6: best-effort audit recording.
	if e.sink != nil {
		if err := e.sink.Record(ctx, req, evaluation); err != nil {
			e.logger.WithError(err).Warn("Failed to record evaluation in history")
		}
	}

	if e.cache != nil {
		e.cache.Add(key, evaluation)
	}

	e.logger.WithFields(logrus.Fields{
		"evaluation_id":   evaluation.EvaluationID,
		"baseline_risk":   result.BaselineRisk,
		"final_risk":      result.FinalRisk,
		"arr":             result.ARR,
		"rrr":             result.RRR,
		"warnings":        len(warnings),
		"processing_time": evaluation.ProcessingTime,
	}).Info("Risk evaluation completed")

	return evaluation, nil
}

// requestKey derives a deterministic cache key from the canonical JSON
// encoding of the request.
func requestKey(req *domain.EvaluationRequest) string {
	data, err := json.Marshal(req)
	if err != nil {
		// EvaluationRequest contains only marshalable fields; treat a
		// failure as an uncacheable request.
		return uuid.New().String()
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
