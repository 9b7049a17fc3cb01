package domain

import (
	"fmt"
)

// Clinical input ranges accepted by the calculator. Values outside these
// bounds are rejected at the boundary; the estimator itself performs no
// range checks.
const (
	MinAge          = 30
	MaxAge          = 90
	MinSBP          = 80.0
	MaxSBP          = 220.0
	MinTotalChol    = 2.0
	MaxTotalChol    = 10.0
	MinHDL          = 0.5
	MaxHDL          = 3.0
	MinEGFR         = 15.0
	MaxEGFR         = 120.0
	MinCRP          = 0.0
	MaxCRP          = 20.0
	MaxVascularBeds = 3

	// CRP above this level suggests an acute-phase response; such values are
	// accepted but flagged as unreliable for risk estimation.
	AcuteCRPThreshold = 10.0
)

// PatientProfile is an immutable snapshot of the covariates feeding the
// SMART risk score. All physiologic fields must be within their documented
// clinical ranges (see Validate).
type PatientProfile struct {
	Age              int     `json:"age"`               // years, 30-90
	Sex              Sex     `json:"sex"`               // MALE or FEMALE
	SystolicBP       float64 `json:"systolic_bp"`       // mmHg
	TotalCholesterol float64 `json:"total_cholesterol"` // mmol/L
	HDLCholesterol   float64 `json:"hdl_cholesterol"`   // mmol/L
	Smoker           bool    `json:"smoker"`
	Diabetes         bool    `json:"diabetes"`
	EGFR             float64 `json:"egfr"` // mL/min/1.73m^2
	CRP              float64 `json:"crp"`  // hs-CRP, mg/L, non-acute
	VascularBeds     int     `json:"vascular_beds"`     // 0-3: coronary, cerebrovascular, peripheral
}

// Validate ensures the profile's covariates fall within the documented
// clinical ranges. This is the boundary check the estimator relies on.
func (p *PatientProfile) Validate() error {
	if p.Age < MinAge || p.Age > MaxAge {
		return NewValidationError("age", fmt.Sprintf("must be between %d and %d years", MinAge, MaxAge), p.Age)
	}
	if !p.Sex.IsValid() {
		return NewValidationError("sex", ErrInvalidSex.Error(), string(p.Sex))
	}
	if p.SystolicBP < MinSBP || p.SystolicBP > MaxSBP {
		return NewValidationError("systolic_bp", fmt.Sprintf("must be between %.0f and %.0f mmHg", MinSBP, MaxSBP), p.SystolicBP)
	}
	if p.TotalCholesterol < MinTotalChol || p.TotalCholesterol > MaxTotalChol {
		return NewValidationError("total_cholesterol", fmt.Sprintf("must be between %.1f and %.1f mmol/L", MinTotalChol, MaxTotalChol), p.TotalCholesterol)
	}
	if p.HDLCholesterol < MinHDL || p.HDLCholesterol > MaxHDL {
		return NewValidationError("hdl_cholesterol", fmt.Sprintf("must be between %.1f and %.1f mmol/L", MinHDL, MaxHDL), p.HDLCholesterol)
	}
	if p.EGFR < MinEGFR || p.EGFR > MaxEGFR {
		return NewValidationError("egfr", fmt.Sprintf("must be between %.0f and %.0f mL/min/1.73m^2", MinEGFR, MaxEGFR), p.EGFR)
	}
	if p.CRP < MinCRP || p.CRP > MaxCRP {
		return NewValidationError("crp", fmt.Sprintf("must be between %.1f and %.1f mg/L", MinCRP, MaxCRP), p.CRP)
	}
	if p.VascularBeds < 0 || p.VascularBeds > MaxVascularBeds {
		return NewValidationError("vascular_beds", fmt.Sprintf("must be between 0 and %d", MaxVascularBeds), p.VascularBeds)
	}
	return nil
}

// Warnings returns non-fatal clinical advisories for the profile. These are
// surfaced to the caller; they never block an evaluation.
func (p *PatientProfile) Warnings() []string {
	var warnings []string
	if p.CRP > AcuteCRPThreshold {
		warnings = append(warnings, fmt.Sprintf("hs-CRP %.1f mg/L exceeds %.0f mg/L and suggests acute inflammation; avoid using acute-phase values", p.CRP, AcuteCRPThreshold))
	}
	return warnings
}

// SimplifiedInput carries the reduced question set of the patient-friendly
// entry mode. The remaining covariates are fixed to the calculator's
// defaults; this is an input-simplification policy of the caller, not an
// engine behavior.
type SimplifiedInput struct {
	Age              int     `json:"age"`
	Sex              Sex     `json:"sex"`
	SystolicBP       float64 `json:"systolic_bp"`
	TotalCholesterol float64 `json:"total_cholesterol"`
}

// NewSimplifiedProfile builds a full PatientProfile from the patient-friendly
// question set, fixing the covariates the simplified mode does not ask for:
// one vascular bed, non-smoker, non-diabetic, eGFR 80, HDL 1.0, hs-CRP 2.0.
func NewSimplifiedProfile(in SimplifiedInput) PatientProfile {
	return PatientProfile{
		Age:              in.Age,
		Sex:              in.Sex,
		SystolicBP:       in.SystolicBP,
		TotalCholesterol: in.TotalCholesterol,
		HDLCholesterol:   1.0,
		Smoker:           false,
		Diabetes:         false,
		EGFR:             80,
		CRP:              2.0,
		VascularBeds:     1,
	}
}
