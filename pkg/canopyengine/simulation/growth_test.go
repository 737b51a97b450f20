package simulation

import (
	"math"
	"testing"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/common"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
)

func defaultGrowthConfig() config.GrowthConfig {
	return config.GrowthConfig{
		MortalityRate:   0.02,
		MaxSizeCm:       100.0,
		YoungRateCmYr:   1.5,
		MediumRateCmYr:  1.0,
		MatureRateCmYr:  0.5,
		YoungMaxSizeCm:  10.0,
		MediumMaxSizeCm: 30.0,
	}
}

func TestRateFor_SizeClasses(t *testing.T) {
	sim := NewSimulator(defaultGrowthConfig())

	tests := []struct {
		sizeCm float64
		want   float64
	}{
		{0, 1.5},
		{9.9, 1.5},
		{10.0, 1.0},
		{29.9, 1.0},
		{30.0, 0.5},
		{80.0, 0.5},
	}
	for _, tt := range tests {
		if got := sim.RateFor(tt.sizeCm); got != tt.want {
			t.Errorf("RateFor(%f) = %f, want %f", tt.sizeCm, got, tt.want)
		}
	}
}

func TestSimulate_SurvivalDecay(t *testing.T) {
	sim := NewSimulator(defaultGrowthConfig())

	points, err := sim.Simulate(0, 1000, 5.0, 10, 0, -1)
	if err != nil {
		t.Fatalf("Simulate() failed: %v", err)
	}
	if len(points) != 10 {
		t.Fatalf("expected 10 points, got %d", len(points))
	}

	// Survival decays exponentially at the configured rate
	for i, p := range points {
		want := math.Pow(0.98, float64(i+1))
		if math.Abs(p.SurvivalRate-want) > 1e-12 {
			t.Errorf("year %d: survival %f, want %f", i+1, p.SurvivalRate, want)
		}
		if math.Abs(p.TreeCount-1000*want) > 1e-9 {
			t.Errorf("year %d: tree count %f, want %f", i+1, p.TreeCount, 1000*want)
		}
	}

	// Strictly decreasing
	for i := 1; i < len(points); i++ {
		if points[i].SurvivalRate >= points[i-1].SurvivalRate {
			t.Errorf("survival not strictly decreasing at year %d", i+1)
		}
	}

	final := points[len(points)-1]
	if math.Abs(final.SurvivalRate-0.8170728068875468) > 1e-12 {
		t.Errorf("ten-year survival = %f, want 0.98^10", final.SurvivalRate)
	}
}

func TestSimulate_SizeCap(t *testing.T) {
	cfg := defaultGrowthConfig()
	sim := NewSimulator(cfg)

	points, err := sim.Simulate(0, 10, 95.0, 20, 0, -1)
	if err != nil {
		t.Fatalf("Simulate() failed: %v", err)
	}

	for i, p := range points {
		if p.AvgSizeCm > cfg.MaxSizeCm {
			t.Errorf("year %d: size %f exceeds cap %f", i+1, p.AvgSizeCm, cfg.MaxSizeCm)
		}
	}
	if got := points[len(points)-1].AvgSizeCm; got != cfg.MaxSizeCm {
		t.Errorf("expected final size at cap %f, got %f", cfg.MaxSizeCm, got)
	}
}

func TestSimulate_ExplicitRates(t *testing.T) {
	sim := NewSimulator(defaultGrowthConfig())

	points, err := sim.Simulate(100, 0, 20.0, 5, 2.0, 0.1)
	if err != nil {
		t.Fatalf("Simulate() failed: %v", err)
	}

	if got, want := points[0].AvgSizeCm, 22.0; got != want {
		t.Errorf("year 1 size = %f, want %f", got, want)
	}
	if got, want := points[0].SurvivalRate, 0.9; math.Abs(got-want) > 1e-12 {
		t.Errorf("year 1 survival = %f, want %f", got, want)
	}
}

func TestSimulate_ZeroYears(t *testing.T) {
	sim := NewSimulator(defaultGrowthConfig())

	points, err := sim.Simulate(100, 50, 10.0, 0, 0, -1)
	if err != nil {
		t.Fatalf("Simulate() failed: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("expected empty trajectory for zero years, got %d points", len(points))
	}
}

func TestSimulate_NegativeAddedWithinBase(t *testing.T) {
	sim := NewSimulator(defaultGrowthConfig())

	points, err := sim.Simulate(100, -40, 15.0, 3, 0, -1)
	if err != nil {
		t.Fatalf("Simulate() failed for removal scenario: %v", err)
	}
	if got, want := points[0].TreeCount, 60*0.98; math.Abs(got-want) > 1e-9 {
		t.Errorf("year 1 count = %f, want %f", got, want)
	}
}

func TestSimulate_Rejections(t *testing.T) {
	sim := NewSimulator(defaultGrowthConfig())

	tests := []struct {
		name                  string
		base, added, size     float64
		years                 int
		growth, mortality     float64
	}{
		{"negative years", 100, 0, 10, -1, 0, -1},
		{"negative base", -1, 0, 10, 5, 0, -1},
		{"total below zero", 100, -150, 10, 5, 0, -1},
		{"NaN size", 100, 0, math.NaN(), 5, 0, -1},
		{"mortality at one", 100, 0, 10, 5, 0, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Simulate(tt.base, tt.added, tt.size, tt.years, tt.growth, tt.mortality)
			if !common.IsInputError(err) {
				t.Errorf("expected InputError, got %v", err)
			}
		})
	}
}

func TestValidateTrajectory(t *testing.T) {
	good := []GrowthPoint{
		{TreeCount: 98, AvgSizeCm: 11, SurvivalRate: 0.98},
		{TreeCount: 96, AvgSizeCm: 12, SurvivalRate: 0.96},
	}
	if err := ValidateTrajectory(good, 2); err != nil {
		t.Errorf("valid trajectory rejected: %v", err)
	}

	if err := ValidateTrajectory(good, 3); err == nil {
		t.Error("expected error for length mismatch")
	}

	negCount := []GrowthPoint{{TreeCount: -1, AvgSizeCm: 11, SurvivalRate: 0.98}}
	if err := ValidateTrajectory(negCount, 1); err == nil {
		t.Error("expected error for negative tree count")
	}

	badSurvival := []GrowthPoint{{TreeCount: 98, AvgSizeCm: 11, SurvivalRate: 1.2}}
	if err := ValidateTrajectory(badSurvival, 1); err == nil {
		t.Error("expected error for survival above one")
	}
}
