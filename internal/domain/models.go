package domain

import (
	"fmt"
	"time"
)

// LDLFloor is the theoretical minimum LDL-C in mmol/L. Therapy stacking
// never drives the modeled LDL-C below this value; an explicitly supplied
// target below it is accepted with a warning.
const LDLFloor = 1.0

// Request/Response Models

// LipidPlan describes the lipid-lowering arm of an evaluation. The final
// LDL-C is normally derived from the two-stage therapy stack; TargetLDL
// short-circuits the stack with an explicitly estimated post-therapy value
// (the patient-friendly entry path).
type LipidPlan struct {
	BaselineLDL     float64  `json:"baseline_ldl"` // mmol/L
	ActiveTherapies []string `json:"active_therapies,omitempty"`
	NewTherapies    []string `json:"new_therapies,omitempty"`
	TargetLDL       *float64 `json:"target_ldl,omitempty"` // mmol/L, bypasses the therapy stack
}

// Validate checks the plan against the calculator's input ranges and the
// requirement that newly added therapies are disjoint from active ones.
func (p *LipidPlan) Validate() error {
	if p.BaselineLDL < 0.5 || p.BaselineLDL > 6.0 {
		return NewValidationError("baseline_ldl", "must be between 0.5 and 6.0 mmol/L", p.BaselineLDL)
	}
	if p.TargetLDL != nil && (*p.TargetLDL < 0.5 || *p.TargetLDL > 6.0) {
		return NewValidationError("target_ldl", "must be between 0.5 and 6.0 mmol/L", *p.TargetLDL)
	}
	active := make(map[string]bool, len(p.ActiveTherapies))
	for _, name := range p.ActiveTherapies {
		active[name] = true
	}
	for _, name := range p.NewTherapies {
		if active[name] {
			return NewValidationError("new_therapies", fmt.Sprintf("therapy %q is already active", name), name)
		}
	}
	return nil
}

// BloodPressurePlan describes the blood-pressure arm of an evaluation.
type BloodPressurePlan struct {
	CurrentSBP float64 `json:"current_sbp"` // mmHg
	TargetSBP  float64 `json:"target_sbp"`  // mmHg
}

// Validate checks the plan against the calculator's SBP input range.
func (p *BloodPressurePlan) Validate() error {
	if p.CurrentSBP < MinSBP || p.CurrentSBP > MaxSBP {
		return NewValidationError("current_sbp", fmt.Sprintf("must be between %.0f and %.0f mmHg", MinSBP, MaxSBP), p.CurrentSBP)
	}
	if p.TargetSBP < MinSBP || p.TargetSBP > MaxSBP {
		return NewValidationError("target_sbp", fmt.Sprintf("must be between %.0f and %.0f mmHg", MinSBP, MaxSBP), p.TargetSBP)
	}
	return nil
}

// Warnings returns non-fatal advisories for the plan. A target at or above
// the current SBP contributes no benefit and may raise modeled risk; the
// arithmetic is preserved unclamped, so the caller is warned instead.
func (p *BloodPressurePlan) Warnings() []string {
	var warnings []string
	if p.TargetSBP >= p.CurrentSBP {
		warnings = append(warnings, fmt.Sprintf("target SBP %.0f mmHg is not below current SBP %.0f mmHg; the BP step contributes no benefit", p.TargetSBP, p.CurrentSBP))
	}
	return warnings
}

// TherapyPlan records the derived LDL-C trajectory of the lipid stack:
// baseline, after already-active therapies (full potency, floored), and
// after newly added therapies (half potency, floored). Constructed fresh per
// evaluation and never persisted on its own.
type TherapyPlan struct {
	BaselineLDL float64 `json:"baseline_ldl"`
	AdjustedLDL float64 `json:"adjusted_ldl"`
	FinalLDL    float64 `json:"final_ldl"`
}

// Drop returns the net LDL-C reduction in mmol/L. It may be zero or
// negative; callers must not clamp it.
func (t TherapyPlan) Drop() float64 {
	return t.BaselineLDL - t.FinalLDL
}

// AppliedReduction is one multiplicative step of the composition pipeline,
// kept for reporting and audit purposes.
type AppliedReduction struct {
	Step       string  `json:"step"` // "intervention", "ldl" or "bp"
	Name       string  `json:"name,omitempty"`
	RRRPercent float64 `json:"rrr_percent"`
}

// RiskResult is the outcome of a risk-reduction composition: baseline and
// final absolute risk in percent, plus the absolute and relative risk
// reductions. Produced once per evaluation, immutable.
type RiskResult struct {
	Horizon      Horizon            `json:"horizon"`
	BaselineRisk float64            `json:"baseline_risk"` // %
	FinalRisk    float64            `json:"final_risk"`    // %
	ARR          float64            `json:"arr"`           // percentage points
	RRR          float64            `json:"rrr"`           // % of baseline
	Therapy      TherapyPlan        `json:"therapy_plan"`
	Reductions   []AppliedReduction `json:"applied_reductions,omitempty"`
}

// RiskEstimate carries the baseline absolute risk over both supported
// windows, as returned by the estimator entry point.
type RiskEstimate struct {
	Risk10 float64 `json:"risk10"` // %
	Risk5  float64 `json:"risk5"`  // %
}

// BaselineForHorizon selects the baseline risk for the requested horizon.
// The lifetime horizon reuses the 10-year value (preserved simplification).
func (e RiskEstimate) BaselineForHorizon(h Horizon) float64 {
	if h == HORIZON_5YR {
		return e.Risk5
	}
	return e.Risk10
}

// EvaluationRequest is a complete, self-contained evaluation input: the
// engine is stateless across calls, so every invocation carries the full
// profile, selection set and plans.
type EvaluationRequest struct {
	Profile       PatientProfile    `json:"profile"`
	Horizon       Horizon           `json:"horizon"`
	Interventions []string          `json:"interventions,omitempty"`
	Lipid         LipidPlan         `json:"lipid_plan"`
	BloodPressure BloodPressurePlan `json:"bp_plan"`
}

// Validate runs all boundary checks for the request.
func (r *EvaluationRequest) Validate() error {
	if !r.Horizon.IsValid() {
		return NewValidationError("horizon", ErrInvalidHorizon.Error(), string(r.Horizon))
	}
	if err := r.Profile.Validate(); err != nil {
		return err
	}
	if err := r.Lipid.Validate(); err != nil {
		return err
	}
	return r.BloodPressure.Validate()
}

// EvaluationResult is the full outcome of one evaluation, including the
// baseline estimate, composed result, boundary warnings and audit metadata.
type EvaluationResult struct {
	EvaluationID   string        `json:"evaluation_id"`
	Estimate       RiskEstimate  `json:"estimate"`
	Result         RiskResult    `json:"result"`
	Warnings       []string      `json:"warnings,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	CreatedAt      time.Time     `json:"created_at"`
}
