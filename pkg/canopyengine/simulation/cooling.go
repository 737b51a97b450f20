package simulation

import (
	"math"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/common"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
)

// CoolingModel converts tree density into a bounded temperature reduction
// with diminishing returns. The curve is zero below a minimum density,
// linear up to a saturation density, then logarithmic, and always clamped
// to [0, MaxReduction]. Monotonicity in density and the cap are hard
// invariants.
type CoolingModel struct {
	cfg config.CoolingConfig
}

// NewCoolingModel creates a cooling model from configuration
func NewCoolingModel(cfg config.CoolingConfig) *CoolingModel {
	return &CoolingModel{cfg: cfg}
}

// saturationReduction is the reduction reached at the saturation density,
// the anchor of the logarithmic tail
func (m *CoolingModel) saturationReduction() float64 {
	return (m.cfg.SaturationDensityKm2 - m.cfg.MinDensityKm2) * m.cfg.ReductionPerDensity
}

// Reduction returns the temperature reduction for a tree count over an area
func (m *CoolingModel) Reduction(treeCount, areaKm2 float64) (float64, error) {
	if math.IsNaN(treeCount) || treeCount < 0 {
		return 0, common.NewInputError("tree count must be non-negative, got %f", treeCount)
	}
	if math.IsNaN(areaKm2) || areaKm2 <= 0 {
		return 0, common.NewInputError("area must be positive, got %f", areaKm2)
	}

	density := treeCount / areaKm2

	var reduction float64
	switch {
	case density < m.cfg.MinDensityKm2:
		reduction = 0
	case density < m.cfg.SaturationDensityKm2:
		reduction = (density - m.cfg.MinDensityKm2) * m.cfg.ReductionPerDensity
	default:
		excess := density - m.cfg.SaturationDensityKm2
		sat := m.saturationReduction()
		reduction = sat + sat*math.Log1p(excess/m.cfg.SaturationDensityKm2)*m.cfg.LogTailFraction
	}

	if reduction > m.cfg.MaxReduction {
		reduction = m.cfg.MaxReduction
	}
	if reduction < 0 {
		reduction = 0
	}
	return reduction, nil
}

// MaxReduction returns the configured hard cap
func (m *CoolingModel) MaxReduction() float64 {
	return m.cfg.MaxReduction
}

// WhatIf reports the cooling change from adding trees to a unit. added may
// be negative (removal scenario) as long as the total stays non-negative.
func (m *CoolingModel) WhatIf(baseTreeCount, addedTreeCount, areaKm2 float64) (*WhatIfResult, error) {
	newCount := baseTreeCount + addedTreeCount
	if newCount < 0 {
		return nil, common.NewInputError("added tree count %f drives total below zero", addedTreeCount)
	}

	current, err := m.Reduction(baseTreeCount, areaKm2)
	if err != nil {
		return nil, err
	}
	updated, err := m.Reduction(newCount, areaKm2)
	if err != nil {
		return nil, err
	}

	return &WhatIfResult{
		CurrentTreeCount:    baseTreeCount,
		NewTreeCount:        newCount,
		CurrentDensityKm2:   baseTreeCount / areaKm2,
		NewDensityKm2:       newCount / areaKm2,
		CurrentReduction:    current,
		NewReduction:        updated,
		AdditionalReduction: updated - current,
	}, nil
}

// TreesNeeded inverts the cooling curve: how many additional trees does the
// unit need for its total reduction to reach the target. Targets above
// MaxReduction are infeasible.
func (m *CoolingModel) TreesNeeded(targetReduction, baseTreeCount, areaKm2 float64) (*TreesNeededResult, error) {
	if math.IsNaN(targetReduction) || targetReduction < 0 {
		return nil, common.NewInputError("target reduction must be non-negative, got %f", targetReduction)
	}
	if math.IsNaN(areaKm2) || areaKm2 <= 0 {
		return nil, common.NewInputError("area must be positive, got %f", areaKm2)
	}

	current, err := m.Reduction(baseTreeCount, areaKm2)
	if err != nil {
		return nil, err
	}

	if targetReduction > m.cfg.MaxReduction {
		return &TreesNeededResult{
			CurrentReduction:    current,
			PredictedReduction:  current,
			AchievableReduction: m.cfg.MaxReduction,
			Feasible:            false,
		}, nil
	}

	if current >= targetReduction {
		return &TreesNeededResult{
			TotalTrees:          int(baseTreeCount),
			CurrentReduction:    current,
			PredictedReduction:  current,
			AchievableReduction: m.cfg.MaxReduction,
			Feasible:            true,
		}, nil
	}

	requiredDensity := m.invert(targetReduction)
	requiredTrees := int(math.Ceil(requiredDensity * areaKm2))
	treesNeeded := requiredTrees - int(baseTreeCount)
	if treesNeeded < 0 {
		treesNeeded = 0
	}

	predicted, err := m.Reduction(float64(int(baseTreeCount)+treesNeeded), areaKm2)
	if err != nil {
		return nil, err
	}

	return &TreesNeededResult{
		TreesNeeded:         treesNeeded,
		TotalTrees:          int(baseTreeCount) + treesNeeded,
		CurrentReduction:    current,
		PredictedReduction:  predicted,
		AchievableReduction: m.cfg.MaxReduction,
		Feasible:            true,
	}, nil
}

// invert maps a total reduction back onto the density that produces it.
// Exact in the linear region; the logarithmic tail uses the closed-form
// inverse of Log1p.
func (m *CoolingModel) invert(reduction float64) float64 {
	if reduction <= 0 {
		return m.cfg.MinDensityKm2
	}
	sat := m.saturationReduction()
	if reduction <= sat {
		return reduction/m.cfg.ReductionPerDensity + m.cfg.MinDensityKm2
	}
	excessReduction := reduction - sat
	excessDensity := m.cfg.SaturationDensityKm2 * (math.Exp(excessReduction/(sat*m.cfg.LogTailFraction)) - 1)
	return m.cfg.SaturationDensityKm2 + excessDensity
}
