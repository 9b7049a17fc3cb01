// Package service implements the risk-estimation and risk-reduction engine:
// the SMART baseline risk score, the multiplicative reduction composer and
// the evaluation workflow that ties them together.
package service

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/smart-cvd-risk-server/internal/domain"
)

// SMART linear predictor coefficients. These reproduce the published
// calculator and must not be retuned; the engine's outputs are audited
// bit-for-bit against it.
const (
	coefAge      = 0.064
	coefMale     = 0.34
	coefSBP      = 0.02
	coefTC       = 0.25
	coefHDL      = -0.25
	coefSmoker   = 0.44
	coefDiabetes = 0.51
	coefEGFR     = -0.02
	coefLogCRP   = 0.25
	coefVascular = 0.4

	// Constant-baseline-hazard transform parameters: ten-year baseline
	// survival and linear predictor centering offset.
	baselineSurvival10 = 0.900
	lpOffset           = 5.8
)

// RiskEstimator computes baseline absolute CVD risk from patient covariates.
// It performs no range validation; callers validate profiles at the boundary
// before invoking it.
type RiskEstimator struct {
	logger *logrus.Logger
}

// NewRiskEstimator creates a new risk estimator.
func NewRiskEstimator(logger *logrus.Logger) *RiskEstimator {
	return &RiskEstimator{logger: logger}
}

// linearPredictor computes the log-hazard-like score from the covariates.
// The CRP term is ln(crp+1), evaluated as 0 when CRP is zero or absent.
func (e *RiskEstimator) linearPredictor(p domain.PatientProfile) float64 {
	sexVal := 0.0
	if p.Sex == domain.MALE {
		sexVal = 1.0
	}
	smokerVal := 0.0
	if p.Smoker {
		smokerVal = 1.0
	}
	diabetesVal := 0.0
	if p.Diabetes {
		diabetesVal = 1.0
	}
	crpLog := 0.0
	if p.CRP > 0 {
		crpLog = math.Log(p.CRP + 1)
	}

	return coefAge*float64(p.Age) +
		coefMale*sexVal +
		coefSBP*p.SystolicBP +
		coefTC*p.TotalCholesterol +
		coefHDL*p.HDLCholesterol +
		coefSmoker*smokerVal +
		coefDiabetes*diabetesVal +
		coefEGFR*p.EGFR +
		coefLogCRP*crpLog +
		coefVascular*float64(p.VascularBeds)
}

// EstimateBaselineRisk10 computes the 10-year absolute CVD event risk in
// percent, rounded to one decimal place. The linear predictor is converted
// to a probability through a constant-baseline-hazard transform:
//
//	risk10 = (1 - 0.900^exp(lp - 5.8)) * 100
func (e *RiskEstimator) EstimateBaselineRisk10(p domain.PatientProfile) float64 {
	lp := e.linearPredictor(p)
	risk10 := (1 - math.Pow(baselineSurvival10, math.Exp(lp-lpOffset))) * 100

	e.logger.WithFields(logrus.Fields{
		"lp":     lp,
		"risk10": risk10,
	}).Debug("Computed baseline 10-year risk")

	return round1(risk10)
}

// DeriveRisk5FromRisk10 converts a 10-year probability to an equivalent
// 5-year probability under a constant-hazard-rate assumption:
//
//	risk5 = (1 - (1-p)^0.5) * 100
//
// This is an approximation, not an independently fitted model. It reproduces
// the published calculator bit-for-bit and must not be "improved".
func (e *RiskEstimator) DeriveRisk5FromRisk10(risk10 float64) float64 {
	p := risk10 / 100
	risk5 := (1 - math.Sqrt(1-p)) * 100
	return round1(risk5)
}

// EstimateRisk computes the baseline risk over both supported windows.
func (e *RiskEstimator) EstimateRisk(p domain.PatientProfile) domain.RiskEstimate {
	risk10 := e.EstimateBaselineRisk10(p)
	return domain.RiskEstimate{
		Risk10: risk10,
		Risk5:  e.DeriveRisk5FromRisk10(risk10),
	}
}

// round1 rounds to one decimal place, half away from zero.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
