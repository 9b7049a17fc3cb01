package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-cvd-risk-server/internal/domain"
)

type capturingSink struct {
	records []*domain.EvaluationResult
	failAll bool
}

func (s *capturingSink) Record(ctx context.Context, req *domain.EvaluationRequest, res *domain.EvaluationResult) error {
	if s.failAll {
		return errors.New("sink unavailable")
	}
	s.records = append(s.records, res)
	return nil
}

func newTestEvaluator(t *testing.T, opts ...EvaluatorOption) *Evaluator {
	t.Helper()
	evaluator, err := NewEvaluator(testLogger(), NewRiskEstimator(testLogger()), newTestComposer(), opts...)
	require.NoError(t, err)
	return evaluator
}

func referenceRequest() *domain.EvaluationRequest {
	target := 2.0
	return &domain.EvaluationRequest{
		Profile:       referenceProfile(),
		Horizon:       domain.HORIZON_10YR,
		Lipid:         domain.LipidPlan{BaselineLDL: 3.5, TargetLDL: &target},
		BloodPressure: domain.BloodPressurePlan{CurrentSBP: 145, TargetSBP: 120},
	}
}

func TestEvaluatorEstimateRisk(t *testing.T) {
	evaluator := newTestEvaluator(t)

	estimate, warnings, err := evaluator.EstimateRisk(referenceProfile())
	require.NoError(t, err)

	assert.Equal(t, 23.9, estimate.Risk10)
	assert.Equal(t, 12.8, estimate.Risk5)
	assert.Empty(t, warnings)
}

func TestEvaluatorEstimateRiskRejectsInvalidProfile(t *testing.T) {
	evaluator := newTestEvaluator(t)

	profile := referenceProfile()
	profile.Age = 25

	_, _, err := evaluator.EstimateRisk(profile)
	require.Error(t, err)

	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "age", vErr.Field)
}

func TestEvaluatorEstimateRiskSurfacesAcuteCRPWarning(t *testing.T) {
	evaluator := newTestEvaluator(t)

	profile := referenceProfile()
	profile.CRP = 15.0

	_, warnings, err := evaluator.EstimateRisk(profile)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
}

func TestEvaluate(t *testing.T) {
	evaluator := newTestEvaluator(t)

	result, err := evaluator.Evaluate(context.Background(), referenceRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, result.EvaluationID)
	assert.Equal(t, 23.9, result.Estimate.Risk10)
	assert.Equal(t, 12.8, result.Estimate.Risk5)
	assert.Equal(t, 23.9, result.Result.BaselineRisk)
	assert.Equal(t, 12.8, result.Result.FinalRisk)
	assert.Equal(t, 11.1, result.Result.ARR)
	assert.Equal(t, 46.4, result.Result.RRR)
	assert.False(t, result.CreatedAt.IsZero())
}

func TestEvaluateRejectsInvalidRequest(t *testing.T) {
	evaluator := newTestEvaluator(t)

	req := referenceRequest()
	req.Horizon = "20yr"

	_, err := evaluator.Evaluate(context.Background(), req)
	require.Error(t, err)

	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestEvaluateFailsFastOnUnknownIntervention(t *testing.T) {
	evaluator := newTestEvaluator(t)

	req := referenceRequest()
	req.Interventions = []string{"Physical activity", "Cold plunging"}

	_, err := evaluator.Evaluate(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownCatalogKey)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	evaluator := newTestEvaluator(t)

	first, err := evaluator.Evaluate(context.Background(), referenceRequest())
	require.NoError(t, err)
	second, err := evaluator.Evaluate(context.Background(), referenceRequest())
	require.NoError(t, err)

	// Fresh evaluations of the same request reproduce the same numbers
	// under new evaluation IDs.
	assert.NotEqual(t, first.EvaluationID, second.EvaluationID)
	assert.Equal(t, first.Result, second.Result)
}

func TestEvaluateResultCache(t *testing.T) {
	evaluator := newTestEvaluator(t, WithResultCache(16))

	first, err := evaluator.Evaluate(context.Background(), referenceRequest())
	require.NoError(t, err)
	second, err := evaluator.Evaluate(context.Background(), referenceRequest())
	require.NoError(t, err)

	// An identical request is served from the cache, same evaluation ID
	// included.
	assert.Equal(t, first.EvaluationID, second.EvaluationID)

	// A different request misses the cache.
	req := referenceRequest()
	req.BloodPressure.TargetSBP = 130
	third, err := evaluator.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.EvaluationID, third.EvaluationID)
}

func TestEvaluateRecordsToSink(t *testing.T) {
	sink := &capturingSink{}
	evaluator := newTestEvaluator(t, WithSink(sink))

	result, err := evaluator.Evaluate(context.Background(), referenceRequest())
	require.NoError(t, err)

	require.Len(t, sink.records, 1)
	assert.Equal(t, result.EvaluationID, sink.records[0].EvaluationID)
}

func TestEvaluateSinkFailureIsNonFatal(t *testing.T) {
	sink := &capturingSink{failAll: true}
	evaluator := newTestEvaluator(t, WithSink(sink))

	result, err := evaluator.Evaluate(context.Background(), referenceRequest())
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestEvaluateCollectsWarnings(t *testing.T) {
	evaluator := newTestEvaluator(t)

	req := referenceRequest()
	req.Profile.CRP = 15.0
	req.BloodPressure.TargetSBP = 150

	result, err := evaluator.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, result.Warnings, 2)
}

func TestEvaluateWarnsBelowLDLFloor(t *testing.T) {
	evaluator := newTestEvaluator(t)

	// An explicit target below the floor is honored but flagged.
	target := 0.8
	req := referenceRequest()
	req.Lipid.TargetLDL = &target

	result, err := evaluator.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0.8, result.Result.Therapy.FinalLDL)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "theoretical minimum")
}
