package scoring

import (
	"k8s.io/klog/v2"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/common"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/features"
)

// Scorer combines normalized features into a single batch-comparable
// priority value with an equity multiplier
type Scorer struct {
	weights config.PriorityWeights
}

// New creates a scorer from the configured weights
func New(weights config.PriorityWeights) *Scorer {
	return &Scorer{weights: weights}
}

// Score computes priority_final for one feature vector. With the default
// weights the result lies in [0, 1.4]: base at most 1.0, multiplied by
// (1 + equityMultiplier) at ej score 1.0.
func (s *Scorer) Score(f *features.FeatureVector) (float64, error) {
	if err := f.ValidateScores(); err != nil {
		return 0, common.NewInputError("invalid feature scores: %v", err)
	}

	base := s.weights.Heat*f.HeatScore +
		s.weights.AirQuality*f.AirQualityScore +
		s.weights.TreeGap*f.TreeGap +
		s.weights.Pollution*f.PollutionProxy

	final := base * (1 + s.weights.EquityMultiplier*f.EJScore)

	klog.V(4).InfoS("Computed priority score",
		"base", base,
		"final", final,
		"ejScore", f.EJScore)

	return final, nil
}
