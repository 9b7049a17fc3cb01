package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/smart-cvd-risk-server/internal/domain"
)

// EstimateRiskParams represents parameters for the estimate_risk tool.
// Either the full profile or the simplified question set must be supplied.
type EstimateRiskParams struct {
	Profile    *domain.PatientProfile  `json:"profile,omitempty"`
	Simplified *domain.SimplifiedInput `json:"simplified,omitempty"`
}

// ComposeFinalRiskParams represents parameters for the compose_final_risk tool.
type ComposeFinalRiskParams struct {
	Profile       *domain.PatientProfile   `json:"profile,omitempty"`
	Simplified    *domain.SimplifiedInput  `json:"simplified,omitempty"`
	Horizon       string                   `json:"horizon"`
	Interventions []string                 `json:"interventions,omitempty"`
	Lipid         domain.LipidPlan         `json:"lipid_plan"`
	BloodPressure domain.BloodPressurePlan `json:"bp_plan"`
}

// handleEstimateRisk handles the estimate_risk tool invocation
func (s *LiteServer) handleEstimateRisk(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "estimate_risk").Info("Tool invoked")

	// Parse parameters
	var params EstimateRiskParams
	if err := json.Unmarshal(req.Params.Arguments.(json.RawMessage), &params); err != nil {
		return s.createErrorResult("Invalid parameters", err), nil
	}

	profile, err := resolveProfile(params.Profile, params.Simplified)
	if err != nil {
		return s.createErrorResult("Missing required parameter", err), nil
	}

	estimate, warnings, err := s.evaluator.EstimateRisk(profile)
	if err != nil {
		return s.createErrorResult("Risk estimation failed", err), nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"estimate": estimate,
		"warnings": warnings,
	})
	if err != nil {
		return s.createErrorResult("Failed to encode result", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(payload)},
		},
		Meta: map[string]interface{}{
			"risk10": estimate.Risk10,
			"risk5":  estimate.Risk5,
		},
	}, nil
}

// handleComposeFinalRisk handles the compose_final_risk tool invocation
func (s *LiteServer) handleComposeFinalRisk(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "compose_final_risk").Info("Tool invoked")

	// Parse parameters
	var params ComposeFinalRiskParams
	if err := json.Unmarshal(req.Params.Arguments.(json.RawMessage), &params); err != nil {
		return s.createErrorResult("Invalid parameters", err), nil
	}

	profile, err := resolveProfile(params.Profile, params.Simplified)
	if err != nil {
		return s.createErrorResult("Missing required parameter", err), nil
	}

	evalReq := &domain.EvaluationRequest{
		Profile:       profile,
		Horizon:       domain.Horizon(params.Horizon),
		Interventions: params.Interventions,
		Lipid:         params.Lipid,
		BloodPressure: params.BloodPressure,
	}

	result, err := s.evaluator.Evaluate(ctx, evalReq)
	if err != nil {
		return s.createErrorResult("Evaluation failed", err), nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return s.createErrorResult("Failed to encode result", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(payload)},
		},
		Meta: map[string]interface{}{
			"evaluation_id": result.EvaluationID,
			"final_risk":    result.Result.FinalRisk,
		},
	}, nil
}

// handleListInterventions handles the list_interventions tool invocation
func (s *LiteServer) handleListInterventions(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "list_interventions").Info("Tool invoked")

	payload, err := json.Marshal(map[string]interface{}{
		"count":         s.interventions.Len(),
		"interventions": s.interventions.Entries(),
	})
	if err != nil {
		return s.createErrorResult("Failed to encode result", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(payload)},
		},
	}, nil
}

// handleListLDLTherapies handles the list_ldl_therapies tool invocation
func (s *LiteServer) handleListLDLTherapies(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.WithField("tool", "list_ldl_therapies").Info("Tool invoked")

	payload, err := json.Marshal(map[string]interface{}{
		"count":     s.ldlTherapies.Len(),
		"therapies": s.ldlTherapies.Entries(),
	})
	if err != nil {
		return s.createErrorResult("Failed to encode result", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(payload)},
		},
	}, nil
}

// resolveProfile selects the full or simplified profile input.
func resolveProfile(full *domain.PatientProfile, simplified *domain.SimplifiedInput) (domain.PatientProfile, error) {
	switch {
	case full != nil:
		return *full, nil
	case simplified != nil:
		return domain.NewSimplifiedProfile(*simplified), nil
	default:
		return domain.PatientProfile{}, fmt.Errorf("either profile or simplified input is required")
	}
}

// createErrorResult creates an error result for tool invocations
func (s *LiteServer) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
