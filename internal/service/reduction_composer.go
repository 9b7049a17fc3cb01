package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/smart-cvd-risk-server/internal/domain"
)

// Reduction model parameters. The LDL effect is 22% relative risk reduction
// per mmol/L of LDL-C drop, capped at 35%; the BP effect is 15% per 10 mmHg
// of SBP reduction, capped at 20%.
const (
	ldlRRRPerMmol = 22.0
	ldlRRRCap     = 35.0
	bpRRRPer10mm  = 15.0
	bpRRRCap      = 20.0

	// New therapies act at half potency relative to established use,
	// reflecting titration and adherence uncertainty.
	newTherapyPotencyFactor = 0.5
)

// ReductionComposer applies intervention, LDL-lowering and blood-pressure
// effects to a baseline risk as successive multiplicative survival-style
// factors on the remaining risk fraction. It is stateless; the catalogs it
// holds are read-only reference data.
type ReductionComposer struct {
	logger        *logrus.Logger
	interventions *domain.InterventionCatalog
	ldlTherapies  *domain.LDLTherapyCatalog
}

// NewReductionComposer creates a composer over the supplied catalogs.
func NewReductionComposer(logger *logrus.Logger, interventions *domain.InterventionCatalog, ldlTherapies *domain.LDLTherapyCatalog) *ReductionComposer {
	return &ReductionComposer{
		logger:        logger,
		interventions: interventions,
		ldlTherapies:  ldlTherapies,
	}
}

// DeriveTherapyPlan computes the LDL-C trajectory of the lipid plan's
// two-stage therapy stack: already-active therapies multiply at full
// potency, the result is floored at 1.0 mmol/L, newly added therapies
// multiply at half potency, and the result is floored again. An explicit
// target LDL bypasses the stack entirely (the patient-friendly path) and is
// not floored.
func (c *ReductionComposer) DeriveTherapyPlan(plan domain.LipidPlan) (domain.TherapyPlan, error) {
	if plan.TargetLDL != nil {
		return domain.TherapyPlan{
			BaselineLDL: plan.BaselineLDL,
			AdjustedLDL: *plan.TargetLDL,
			FinalLDL:    *plan.TargetLDL,
		}, nil
	}

	adjusted := plan.BaselineLDL
	for _, name := range plan.ActiveTherapies {
		entry, err := c.ldlTherapies.Lookup(name)
		if err != nil {
			return domain.TherapyPlan{}, err
		}
		adjusted *= 1 - entry.PotencyPercent/100
	}
	if adjusted < domain.LDLFloor {
		adjusted = domain.LDLFloor
	}

	final := adjusted
	for _, name := range plan.NewTherapies {
		entry, err := c.ldlTherapies.Lookup(name)
		if err != nil {
			return domain.TherapyPlan{}, err
		}
		final *= 1 - (entry.PotencyPercent/100)*newTherapyPotencyFactor
	}
	if final < domain.LDLFloor {
		final = domain.LDLFloor
	}

	return domain.TherapyPlan{
		BaselineLDL: plan.BaselineLDL,
		AdjustedLDL: adjusted,
		FinalLDL:    final,
	}, nil
}

// ComposeFinalRisk applies the selected reductions to the baseline risk and
// returns the final risk, ARR and RRR.
//
// The steps run in a fixed order: each selected intervention, then the LDL-C
// effect, then the blood-pressure effect. The per-step ARR inputs are looked
// up against the current horizon (the 5-year column for the 5-year horizon,
// the lifetime column otherwise), so the sequence must be preserved for
// reference outputs to reproduce exactly.
func (c *ReductionComposer) ComposeFinalRisk(baselineRisk float64, horizon domain.Horizon, selected []string, lipid domain.LipidPlan, bp domain.BloodPressurePlan) (*domain.RiskResult, error) {
	remaining := baselineRisk / 100
	reductions := make([]domain.AppliedReduction, 0, len(selected)+2)

	// Step 1: non-lipid, non-BP interventions. An unknown name is a
	// configuration error, never silently skipped.
	for _, name := range selected {
		entry, err := c.interventions.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("composing final risk: %w", err)
		}
		arr := entry.ARRForHorizon(horizon)
		remaining *= 1 - arr/100
		reductions = append(reductions, domain.AppliedReduction{
			Step:       "intervention",
			Name:       entry.Name,
			RRRPercent: arr,
		})
	}

	// Step 2: LDL-C effect. The drop may be zero or negative; it is applied
	// unclamped, so a rising LDL-C raises the modeled risk.
	therapy, err := c.DeriveTherapyPlan(lipid)
	if err != nil {
		return nil, fmt.Errorf("composing final risk: %w", err)
	}
	ldlRRR := ldlRRRPerMmol * therapy.Drop()
	if ldlRRR > ldlRRRCap {
		ldlRRR = ldlRRRCap
	}
	remaining *= 1 - ldlRRR/100
	reductions = append(reductions, domain.AppliedReduction{
		Step:       "ldl",
		RRRPercent: ldlRRR,
	})

	// Step 3: blood-pressure effect. A non-improving plan yields a zero or
	// negative RRR and passes through unclamped.
	bpRRR := bpRRRPer10mm * ((bp.CurrentSBP - bp.TargetSBP) / 10)
	if bpRRR > bpRRRCap {
		bpRRR = bpRRRCap
	}
	remaining *= 1 - bpRRR/100
	reductions = append(reductions, domain.AppliedReduction{
		Step:       "bp",
		RRRPercent: bpRRR,
	})

	finalRisk := round1(remaining * 100)
	arr := round1(baselineRisk - finalRisk)
	rrr := 0.0
	if baselineRisk > 0 {
		rrr = round1(arr / baselineRisk * 100)
	}

	c.logger.WithFields(logrus.Fields{
		"horizon":       horizon.String(),
		"baseline_risk": baselineRisk,
		"final_risk":    finalRisk,
		"arr":           arr,
		"rrr":           rrr,
		"interventions": len(selected),
		"ldl_rrr":       ldlRRR,
		"bp_rrr":        bpRRR,
	}).Info("Composed final risk")

	return &domain.RiskResult{
		Horizon:      horizon,
		BaselineRisk: baselineRisk,
		FinalRisk:    finalRisk,
		ARR:          arr,
		RRR:          rrr,
		Therapy:      therapy,
		Reductions:   reductions,
	}, nil
}
