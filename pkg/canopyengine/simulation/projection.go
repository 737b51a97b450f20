package simulation

import (
	"math"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
)

// Assembler drives the growth simulator year by year, converts each year's
// cohort state into annual benefit figures via size-scaled coefficients,
// and accumulates cumulative totals. Output is fully deterministic: same
// inputs, same bytes.
type Assembler struct {
	growth   *Simulator
	benefits config.BenefitConfig
}

// NewAssembler creates a projection assembler
func NewAssembler(growth *Simulator, benefits config.BenefitConfig) *Assembler {
	return &Assembler{growth: growth, benefits: benefits}
}

// annualBenefits converts one year's cohort state into benefit figures.
// Temperature uses a steeper exponent than carbon and particulate: canopy
// shading scales closer to crown area than to biomass.
func (a *Assembler) annualBenefits(treeCount, sizeCm float64) (carbonKg, temp, particulateLb float64) {
	rel := sizeCm / a.benefits.ReferenceSizeCm
	sizeFactor := math.Pow(rel, a.benefits.SizeExponent)
	canopyFactor := math.Pow(rel, a.benefits.CanopyExponent)

	carbonKg = a.benefits.CarbonKgPerTree * sizeFactor * treeCount
	temp = a.benefits.TempPerTree * canopyFactor * treeCount
	particulateLb = a.benefits.ParticulateLbPerTree * sizeFactor * treeCount
	return carbonKg, temp, particulateLb
}

// Assemble runs the closed-form trajectory and builds the projection.
// years = 0 yields an empty sequence with zero totals.
func (a *Assembler) Assemble(baseTreeCount, addedTreeCount, initialSizeCm float64, years int) (*ProjectionResult, error) {
	points, err := a.growth.Simulate(baseTreeCount, addedTreeCount, initialSizeCm, years, 0, -1)
	if err != nil {
		return nil, err
	}
	return a.FromTrajectory(points), nil
}

// FromTrajectory builds the projection from an already-computed trajectory,
// either the closed form or a shape-validated external one. Benefit figures
// are always computed here so results have one consistent formula family
// regardless of which tier produced the trajectory.
func (a *Assembler) FromTrajectory(points []GrowthPoint) *ProjectionResult {
	result := &ProjectionResult{
		Yearly: make([]YearlyProjection, 0, len(points)),
	}

	for i, p := range points {
		carbon, temp, particulate := a.annualBenefits(p.TreeCount, p.AvgSizeCm)
		year := YearlyProjection{
			Year:                i + 1,
			TreeCount:           p.TreeCount,
			AvgSizeCm:           p.AvgSizeCm,
			SurvivalRate:        p.SurvivalRate,
			CarbonAnnualKg:      carbon,
			TempAnnual:          temp,
			ParticulateAnnualLb: particulate,
		}
		result.Yearly = append(result.Yearly, year)

		result.Cumulative.CarbonKg += carbon
		result.Cumulative.Temp += temp
		result.Cumulative.ParticulateLb += particulate
	}

	if n := len(result.Yearly); n > 0 {
		final := result.Yearly[n-1]
		result.Final = &final
	}
	return result
}
