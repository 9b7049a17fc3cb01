package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smart-cvd-risk-server/internal/domain"
)

// EstimateRequest is the body of POST /api/v1/estimate. Either the full
// profile or the simplified question set must be supplied; the simplified
// form fixes the remaining covariates to the calculator defaults.
type EstimateRequest struct {
	Profile    *domain.PatientProfile  `json:"profile,omitempty"`
	Simplified *domain.SimplifiedInput `json:"simplified,omitempty"`
}

// EstimateResponse is the body of a successful estimate call.
type EstimateResponse struct {
	Estimate domain.RiskEstimate `json:"estimate"`
	Warnings []string            `json:"warnings,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

// handleEstimate computes the baseline risk for a patient profile without
// composing any reductions.
func (s *Server) handleEstimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewValidationError("body", "invalid JSON payload", err.Error()))
		return
	}

	var profile domain.PatientProfile
	switch {
	case req.Profile != nil:
		profile = *req.Profile
	case req.Simplified != nil:
		profile = domain.NewSimplifiedProfile(*req.Simplified)
	default:
		s.respondError(c, domain.NewValidationError("body", "either profile or simplified input is required", nil))
		return
	}

	estimate, warnings, err := s.evaluator.EstimateRisk(profile)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, EstimateResponse{Estimate: estimate, Warnings: warnings})
}

// handleEvaluate runs the full pipeline: baseline estimation followed by the
// risk-reduction composition.
func (s *Server) handleEvaluate(c *gin.Context) {
	var req domain.EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewValidationError("body", "invalid JSON payload", err.Error()))
		return
	}

	result, err := s.evaluator.Evaluate(c.Request.Context(), &req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleListInterventions returns the active intervention reference table.
func (s *Server) handleListInterventions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count":         s.interventions.Len(),
		"interventions": s.interventions.Entries(),
	})
}

// handleListLDLTherapies returns the active LDL therapy reference table.
func (s *Server) handleListLDLTherapies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count":     s.ldlTherapies.Len(),
		"therapies": s.ldlTherapies.Entries(),
	})
}

// handleGetEvaluation retrieves a stored evaluation by its UUID.
func (s *Server) handleGetEvaluation(c *gin.Context) {
	if s.historyStore == nil {
		s.respondError(c, domain.ErrNotFound)
		return
	}

	record, err := s.historyStore.GetByEvaluationID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if record == nil {
		s.respondError(c, domain.ErrNotFound)
		return
	}

	// The stored request and warnings are canonical JSON; surface them as
	// structured documents rather than strings.
	var request json.RawMessage
	if record.RequestJSON != "" {
		request = json.RawMessage(record.RequestJSON)
	}
	var warnings json.RawMessage
	if record.WarningsJSON != "" {
		warnings = json.RawMessage(record.WarningsJSON)
	}

	c.JSON(http.StatusOK, gin.H{
		"evaluation_id": record.EvaluationID,
		"horizon":       record.Horizon,
		"request":       request,
		"baseline_risk": record.BaselineRisk,
		"final_risk":    record.FinalRisk,
		"arr":           record.ARR,
		"rrr":           record.RRR,
		"warnings":      warnings,
		"created_at":    record.CreatedAt,
	})
}

// respondError maps domain errors onto HTTP status codes and the shared
// error envelope.
func (s *Server) respondError(c *gin.Context, err error) {
	requestID := c.GetString("correlation_id")

	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrValidationFailure, validationErr.Error(), validationErr.Field, requestID))
	case errors.Is(err, domain.ErrUnknownCatalogKey):
		c.JSON(http.StatusUnprocessableEntity, domain.NewAPIError(
			domain.ErrUnknownCatalog, err.Error(), "", requestID))
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrRecordNotFound, "evaluation not found", "", requestID))
	default:
		s.log.WithField("error", err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrInternalServer, "internal server error", "", requestID))
	}
}
