// Package domain contains core business entities and types for cardiovascular
// disease (CVD) risk estimation and risk-reduction modeling based on the
// SMART risk score.
//
// Reference: Dorresteijn et al. (2013) Estimating treatment effects for
// individual patients based on the results of randomised clinical trials.
// BMJ 343:d5888. SMART2 update: Hageman et al. (2022), JAMA.
package domain

import (
	"errors"
)

// Sex represents the patient's sex as used by the SMART risk model.
type Sex string

const (
	MALE   Sex = "MALE"
	FEMALE Sex = "FEMALE"
)

// Horizon represents the time window over which risk is estimated.
//
// The lifetime horizon reuses the 10-year baseline probability: the model has
// no dedicated lifetime hazard curve, and the 10-year horizon looks up the
// lifetime ARR column for intervention effects. Both are simplifications
// carried over from the published calculator and must be preserved for
// results to reproduce bit-for-bit.
type Horizon string

const (
	HORIZON_5YR      Horizon = "5yr"
	HORIZON_10YR     Horizon = "10yr"
	HORIZON_LIFETIME Horizon = "lifetime"
)

// Validation errors for clinical data integrity
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidSex        = errors.New("invalid sex")
	ErrInvalidHorizon    = errors.New("invalid time horizon")
	ErrUnknownCatalogKey = errors.New("unknown catalog key")
)

// IsValid validates that the Sex value is one of the model's covariate levels.
func (s Sex) IsValid() bool {
	switch s {
	case MALE, FEMALE:
		return true
	default:
		return false
	}
}

// String returns the string representation of the sex.
func (s Sex) String() string {
	return string(s)
}

// IsValid validates the time horizon.
func (h Horizon) IsValid() bool {
	switch h {
	case HORIZON_5YR, HORIZON_10YR, HORIZON_LIFETIME:
		return true
	default:
		return false
	}
}

// String returns the string representation of the horizon.
func (h Horizon) String() string {
	return string(h)
}

// UsesLifetimeARR reports whether intervention lookups for this horizon read
// the lifetime ARR column of the catalog.
func (h Horizon) UsesLifetimeARR() bool {
	return h != HORIZON_5YR
}

// LogFields returns structured logging fields for audit trails.
func (h Horizon) LogFields() map[string]any {
	return map[string]any{
		"horizon":           string(h),
		"is_valid":          h.IsValid(),
		"uses_lifetime_arr": h.UsesLifetimeARR(),
	}
}
