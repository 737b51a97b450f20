package predictor

import (
	"context"
	"math"
	"testing"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/common"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/features"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/simulation"
)

func defaultHeuristicConfig() config.HeuristicConfig {
	return config.HeuristicConfig{
		MaxTempReduction:   2.0,
		MaxParticulate:     0.16,
		TempWeight:         0.6,
		ParticulateWeight:  0.4,
		BaseCostDollars:    500.0,
		EquityCostDollars:  1500.0,
		DensityCostFactor:  0.3,
		PriorityTreeFactor: 100.0,
		GapTreeFactor:      50.0,
	}
}

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

func newTestHeuristic() *Heuristic {
	return NewHeuristic(defaultHeuristicConfig(), simulation.NewSimulator(defaultGrowthConfig()))
}

func testFeatures() *features.FeatureVector {
	return &features.FeatureVector{
		HeatScore:       0.8,
		AirQualityScore: 0.6,
		TreeGap:         0.7,
		TreeDensityNorm: 0.3,
		PollutionProxy:  0.5,
		EJScore:         0.5,
		TreeCount:       100,
		AvgSizeCm:       15,
	}
}

func TestHeuristic_Impact(t *testing.T) {
	h := newTestHeuristic()

	impact, cost := h.Impact(0.8, 0.6, 0.5, 0.3)

	// Impact index blends the benefit shares directly
	wantIndex := 0.6*0.8 + 0.4*0.6
	wantCost := (500.0 + 0.5*1500.0) * (1 + 0.3*0.3)
	wantImpact := wantIndex / (wantCost / 1000.0)

	if math.Abs(cost-wantCost) > 1e-9 {
		t.Errorf("cost per tree %f, want %f", cost, wantCost)
	}
	if math.Abs(impact-wantImpact) > 1e-9 {
		t.Errorf("impact per dollar %f, want %f", impact, wantImpact)
	}
}

func TestHeuristic_ImpactCostDrivers(t *testing.T) {
	h := newTestHeuristic()

	_, baseCost := h.Impact(0.5, 0.5, 0, 0)
	_, equityCost := h.Impact(0.5, 0.5, 1.0, 0)
	_, denseCost := h.Impact(0.5, 0.5, 0, 1.0)

	if equityCost <= baseCost {
		t.Errorf("equity should raise planting cost: %f vs %f", equityCost, baseCost)
	}
	if denseCost <= baseCost {
		t.Errorf("existing density should raise planting cost: %f vs %f", denseCost, baseCost)
	}
}

func TestHeuristic_Recommend(t *testing.T) {
	h := newTestHeuristic()

	tests := []struct {
		priority, gap float64
		want          int
	}{
		{0, 0, 0},
		{1.0, 0, 100},
		{0, 1.0, 50},
		{0.5, 0.5, 75},
		{1.4, 1.0, 190},
	}
	for _, tt := range tests {
		if got := h.Recommend(tt.priority, tt.gap); got != tt.want {
			t.Errorf("Recommend(%f, %f) = %d, want %d", tt.priority, tt.gap, got, tt.want)
		}
	}
}

func TestHeuristic_Predict(t *testing.T) {
	h := newTestHeuristic()

	req := Request{
		Features:      testFeatures(),
		PriorityFinal: 0.75,
		TreeCount:     150,
		BaseTreeCount: 100,
		AvgSizeCm:     15,
		Years:         10,
	}

	pred, err := h.Predict(context.Background(), req)
	if err != nil {
		t.Fatalf("Predict() failed: %v", err)
	}

	if pred.Strategy != "heuristic" {
		t.Errorf("expected strategy heuristic, got %s", pred.Strategy)
	}
	if pred.ImpactPerDollar <= 0 {
		t.Errorf("expected positive impact, got %f", pred.ImpactPerDollar)
	}
	if pred.PriorityFinal != 0.75 {
		t.Errorf("priority echo wrong: %f", pred.PriorityFinal)
	}
	if pred.RecommendedTreeCount != 110 {
		t.Errorf("expected 110 recommended trees, got %d", pred.RecommendedTreeCount)
	}
	if len(pred.Trajectory) != 0 {
		t.Errorf("trajectory should be empty without IncludeYearly, got %d points", len(pred.Trajectory))
	}
}

func TestHeuristic_PredictWithTrajectory(t *testing.T) {
	h := newTestHeuristic()

	req := Request{
		Features:      testFeatures(),
		PriorityFinal: 0.75,
		TreeCount:     150,
		BaseTreeCount: 100,
		AvgSizeCm:     15,
		Years:         5,
		IncludeYearly: true,
	}

	pred, err := h.Predict(context.Background(), req)
	if err != nil {
		t.Fatalf("Predict() failed: %v", err)
	}
	if len(pred.Trajectory) != 5 {
		t.Fatalf("expected 5 trajectory points, got %d", len(pred.Trajectory))
	}
	if math.Abs(pred.Trajectory[0].TreeCount-150*0.98) > 1e-9 {
		t.Errorf("year 1 count %f, want %f", pred.Trajectory[0].TreeCount, 150*0.98)
	}
}

func TestHeuristic_Rejections(t *testing.T) {
	h := newTestHeuristic()

	if _, err := h.Predict(context.Background(), Request{}); !common.IsInputError(err) {
		t.Errorf("expected InputError for missing features, got %v", err)
	}

	bad := testFeatures()
	bad.HeatScore = math.NaN()
	req := Request{Features: bad, PriorityFinal: 0.5}
	if _, err := h.Predict(context.Background(), req); !common.IsInputError(err) {
		t.Errorf("expected InputError for NaN score, got %v", err)
	}

	negPriority := Request{Features: testFeatures(), PriorityFinal: -0.1}
	if _, err := h.Predict(context.Background(), negPriority); !common.IsInputError(err) {
		t.Errorf("expected InputError for negative priority, got %v", err)
	}
}
