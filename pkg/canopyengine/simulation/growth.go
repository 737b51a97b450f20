package simulation

import (
	"fmt"
	"math"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/common"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
)

// Simulator produces the deterministic growth/mortality trajectory of a
// tree cohort: exponential survival decay, linear size growth up to a cap.
type Simulator struct {
	cfg config.GrowthConfig
}

// NewSimulator creates a growth simulator from configuration
func NewSimulator(cfg config.GrowthConfig) *Simulator {
	return &Simulator{cfg: cfg}
}

// RateFor returns the annual DBH growth rate for a tree of the given size.
// Young trees grow fastest, mature trees slowest.
func (s *Simulator) RateFor(sizeCm float64) float64 {
	switch {
	case sizeCm < s.cfg.YoungMaxSizeCm:
		return s.cfg.YoungRateCmYr
	case sizeCm < s.cfg.MediumMaxSizeCm:
		return s.cfg.MediumRateCmYr
	default:
		return s.cfg.MatureRateCmYr
	}
}

// MortalityRate returns the configured annual mortality fraction
func (s *Simulator) MortalityRate() float64 {
	return s.cfg.MortalityRate
}

// Simulate returns one GrowthPoint per year, indexed 1..years. growthRate
// and mortalityRate override the configured defaults when positive and
// non-negative respectively; pass growthRate <= 0 to pick the rate by the
// cohort's size class and mortalityRate < 0 to use the configured rate.
// years = 0 yields an empty trajectory. addedTreeCount may be negative as
// long as the total cohort stays non-negative.
func (s *Simulator) Simulate(baseTreeCount, addedTreeCount, initialSizeCm float64, years int, growthRate, mortalityRate float64) ([]GrowthPoint, error) {
	if years < 0 {
		return nil, common.NewInputError("years must be non-negative, got %d", years)
	}
	if math.IsNaN(baseTreeCount) || baseTreeCount < 0 {
		return nil, common.NewInputError("base tree count must be non-negative, got %f", baseTreeCount)
	}
	total := baseTreeCount + addedTreeCount
	if math.IsNaN(total) || total < 0 {
		return nil, common.NewInputError("added tree count %f drives total below zero", addedTreeCount)
	}
	if math.IsNaN(initialSizeCm) || math.IsInf(initialSizeCm, 0) || initialSizeCm < 0 {
		return nil, common.NewInputError("initial size must be a finite non-negative number, got %f", initialSizeCm)
	}
	if mortalityRate < 0 {
		mortalityRate = s.cfg.MortalityRate
	}
	if mortalityRate >= 1 {
		return nil, common.NewInputError("mortality rate must be below 1, got %f", mortalityRate)
	}
	if growthRate <= 0 {
		growthRate = s.RateFor(initialSizeCm)
	}

	points := make([]GrowthPoint, 0, years)
	survival := 1.0
	for year := 1; year <= years; year++ {
		survival *= 1 - mortalityRate
		size := initialSizeCm + growthRate*float64(year)
		if size > s.cfg.MaxSizeCm {
			size = s.cfg.MaxSizeCm
		}
		points = append(points, GrowthPoint{
			TreeCount:    total * survival,
			AvgSizeCm:    size,
			SurvivalRate: survival,
		})
	}
	return points, nil
}

// ValidateTrajectory checks the shape of an externally supplied trajectory
// before it is allowed to take precedence over the closed form: exact
// length, non-negative counts and sizes, survival in (0,1].
func ValidateTrajectory(points []GrowthPoint, years int) error {
	if len(points) != years {
		return fmt.Errorf("trajectory length %d does not match requested years %d", len(points), years)
	}
	for i, p := range points {
		if math.IsNaN(p.TreeCount) || p.TreeCount < 0 {
			return fmt.Errorf("year %d: negative or NaN tree count %f", i+1, p.TreeCount)
		}
		if math.IsNaN(p.AvgSizeCm) || math.IsInf(p.AvgSizeCm, 0) || p.AvgSizeCm < 0 {
			return fmt.Errorf("year %d: invalid avg size %f", i+1, p.AvgSizeCm)
		}
		if math.IsNaN(p.SurvivalRate) || p.SurvivalRate <= 0 || p.SurvivalRate > 1 {
			return fmt.Errorf("year %d: survival rate %f outside (0,1]", i+1, p.SurvivalRate)
		}
	}
	return nil
}
