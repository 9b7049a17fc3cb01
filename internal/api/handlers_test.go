package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-cvd-risk-server/internal/config"
	"github.com/smart-cvd-risk-server/internal/domain"
	"github.com/smart-cvd-risk-server/internal/history"
	"github.com/smart-cvd-risk-server/internal/service"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()

	configManager, err := config.NewManager()
	require.NoError(t, err)

	logger := testLogger()
	estimator := service.NewRiskEstimator(logger)
	composer := service.NewReductionComposer(logger,
		domain.NewInterventionCatalog(domain.DefaultInterventions()),
		domain.NewLDLTherapyCatalog(domain.DefaultLDLTherapies()),
	)
	evaluator, err := service.NewEvaluator(logger, estimator, composer)
	require.NoError(t, err)

	return NewServer(configManager, evaluator, logger, opts...)
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func referenceProfile() domain.PatientProfile {
	return domain.PatientProfile{
		Age:              60,
		Sex:              domain.MALE,
		SystolicBP:       145,
		TotalCholesterol: 5.0,
		HDLCholesterol:   1.0,
		EGFR:             80,
		CRP:              2.0,
		VascularBeds:     0,
	}
}

func referenceEvaluationRequest() domain.EvaluationRequest {
	target := 2.0
	return domain.EvaluationRequest{
		Profile:       referenceProfile(),
		Horizon:       domain.HORIZON_10YR,
		Lipid:         domain.LipidPlan{BaselineLDL: 3.5, TargetLDL: &target},
		BloodPressure: domain.BloodPressurePlan{CurrentSBP: 145, TargetSBP: 120},
	}
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHandleEstimate(t *testing.T) {
	server := newTestServer(t)

	profile := referenceProfile()
	rec := doJSON(t, server, http.MethodPost, "/api/v1/estimate", EstimateRequest{Profile: &profile})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body EstimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 23.9, body.Estimate.Risk10)
	assert.Equal(t, 12.8, body.Estimate.Risk5)
	assert.Empty(t, body.Warnings)
}

func TestHandleEstimateSimplified(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/estimate", EstimateRequest{
		Simplified: &domain.SimplifiedInput{
			Age: 60, Sex: domain.MALE, SystolicBP: 145, TotalCholesterol: 5.0,
		},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body EstimateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Greater(t, body.Estimate.Risk10, 0.0)
}

func TestHandleEstimateRejectsEmptyBody(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/estimate", EstimateRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrValidationFailure, apiErr.Code)
}

func TestHandleEstimateRejectsOutOfRangeProfile(t *testing.T) {
	server := newTestServer(t)

	profile := referenceProfile()
	profile.Age = 25
	rec := doJSON(t, server, http.MethodPost, "/api/v1/estimate", EstimateRequest{Profile: &profile})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvaluate(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/evaluate", referenceEvaluationRequest())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body domain.EvaluationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.NotEmpty(t, body.EvaluationID)
	assert.Equal(t, 23.9, body.Result.BaselineRisk)
	assert.Equal(t, 12.8, body.Result.FinalRisk)
	assert.Equal(t, 11.1, body.Result.ARR)
	assert.Equal(t, 46.4, body.Result.RRR)
}

func TestHandleEvaluateUnknownIntervention(t *testing.T) {
	server := newTestServer(t)

	req := referenceEvaluationRequest()
	req.Interventions = []string{"Cold plunging"}
	rec := doJSON(t, server, http.MethodPost, "/api/v1/evaluate", req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrUnknownCatalog, apiErr.Code)
}

func TestHandleEvaluateInvalidHorizon(t *testing.T) {
	server := newTestServer(t)

	req := referenceEvaluationRequest()
	req.Horizon = "20yr"
	rec := doJSON(t, server, http.MethodPost, "/api/v1/evaluate", req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCatalogEndpoints(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/catalog/interventions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var interventions map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &interventions))
	assert.Equal(t, float64(11), interventions["count"])

	rec = doJSON(t, server, http.MethodGet, "/api/v1/catalog/ldl-therapies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var therapies map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &therapies))
	assert.Equal(t, float64(8), therapies["count"])
}

func TestHandleGetEvaluationWithoutStore(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/evaluation/some-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetEvaluation(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "api-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	store, err := history.NewSQLiteStore(filepath.Join(tmpDir, "history.db"))
	require.NoError(t, err)
	defer store.Close()

	configManager, err := config.NewManager()
	require.NoError(t, err)

	logger := testLogger()
	estimator := service.NewRiskEstimator(logger)
	composer := service.NewReductionComposer(logger,
		domain.NewInterventionCatalog(domain.DefaultInterventions()),
		domain.NewLDLTherapyCatalog(domain.DefaultLDLTherapies()),
	)
	evaluator, err := service.NewEvaluator(logger, estimator, composer,
		service.WithSink(history.NewRecorder(store)))
	require.NoError(t, err)

	server := NewServer(configManager, evaluator, logger, WithHistoryStore(store))

	// Evaluate, then fetch the stored record by its ID.
	rec := doJSON(t, server, http.MethodPost, "/api/v1/evaluate", referenceEvaluationRequest())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result domain.EvaluationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	rec = doJSON(t, server, http.MethodGet, "/api/v1/evaluation/"+result.EvaluationID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, result.EvaluationID, stored["evaluation_id"])
	assert.Equal(t, 23.9, stored["baseline_risk"])
	assert.Equal(t, 12.8, stored["final_risk"])

	rec = doJSON(t, server, http.MethodGet, "/api/v1/evaluation/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
