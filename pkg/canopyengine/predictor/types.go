package predictor

import (
	"context"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/features"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/simulation"
)

// Request is one prediction request. TreeCount is the total cohort after
// the intervention, BaseTreeCount the existing trees. IncludeYearly asks
// the strategy for a year-by-year trajectory.
type Request struct {
	Features      *features.FeatureVector
	Centroid      features.Centroid
	PriorityFinal float64
	TreeCount     float64
	BaseTreeCount float64
	AvgSizeCm     float64
	Years         int
	IncludeYearly bool
}

// Prediction is the outcome of one prediction. Trajectory is only populated
// for IncludeYearly requests; Strategy names the tier that produced the
// result.
type Prediction struct {
	ImpactPerDollar float64 `json:"impact_per_dollar"`
	// ImpactKnown records whether the producing tier supplied
	// ImpactPerDollar. Zero is a legal impact figure, so absence cannot be
	// inferred from the value.
	ImpactKnown          bool                     `json:"-"`
	CostPerTree          float64                  `json:"cost_per_tree"`
	RecommendedTreeCount int                      `json:"recommended_tree_count"`
	PriorityFinal        float64                  `json:"priority_final"`
	EJScore              float64                  `json:"ej_score"`
	Trajectory           []simulation.GrowthPoint `json:"-"`
	Strategy             string                   `json:"strategy"`
}

// Strategy is one prediction tier. Predict either returns a semantically
// valid prediction or an error; strategies never return partial results.
type Strategy interface {
	Name() string
	Predict(ctx context.Context, req Request) (*Prediction, error)
}
