package predictor

import (
	"context"
	"fmt"
	"math"

	"k8s.io/klog/v2"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/common"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/simulation"
)

// Heuristic is the deterministic in-process tier: a closed-form
// reconstruction of the impact formula family with literature-derived
// per-tree coefficients. It cannot fail except on invalid input, which
// guarantees every valid request gets an answer.
type Heuristic struct {
	cfg    config.HeuristicConfig
	growth *simulation.Simulator
}

// NewHeuristic creates the deterministic fallback tier
func NewHeuristic(cfg config.HeuristicConfig, growth *simulation.Simulator) *Heuristic {
	return &Heuristic{cfg: cfg, growth: growth}
}

func (h *Heuristic) Name() string {
	return "heuristic"
}

// Predict computes the closed-form prediction. The context is accepted for
// interface symmetry; nothing here blocks.
func (h *Heuristic) Predict(_ context.Context, req Request) (*Prediction, error) {
	if req.Features == nil {
		return nil, common.NewInputError("feature vector is required")
	}
	if err := req.Features.ValidateScores(); err != nil {
		return nil, common.NewInputError("invalid feature scores: %v", err)
	}
	if math.IsNaN(req.PriorityFinal) || req.PriorityFinal < 0 {
		return nil, common.NewInputError("priority must be non-negative, got %f", req.PriorityFinal)
	}

	impact, cost := h.Impact(req.Features.HeatScore, req.Features.AirQualityScore,
		req.Features.EJScore, req.Features.TreeDensityNorm)

	pred := &Prediction{
		ImpactPerDollar:      impact,
		ImpactKnown:          true,
		CostPerTree:          cost,
		RecommendedTreeCount: h.Recommend(req.PriorityFinal, req.Features.TreeGap),
		PriorityFinal:        req.PriorityFinal,
		EJScore:              req.Features.EJScore,
		Strategy:             h.Name(),
	}

	if req.IncludeYearly {
		trajectory, err := h.growth.Simulate(req.BaseTreeCount, req.TreeCount-req.BaseTreeCount,
			req.AvgSizeCm, req.Years, 0, -1)
		if err != nil {
			return nil, fmt.Errorf("closed-form trajectory failed: %v", err)
		}
		pred.Trajectory = trajectory
	}

	klog.V(3).InfoS("Heuristic prediction",
		"impactPerDollar", pred.ImpactPerDollar,
		"costPerTree", pred.CostPerTree,
		"recommendedTrees", pred.RecommendedTreeCount)

	return pred, nil
}

// Impact computes the cost-normalized impact figure. The impact index
// blends temperature and particulate benefit shares; planting cost rises
// with the equity score and with existing tree density.
func (h *Heuristic) Impact(heatScore, airScore, ejScore, densityNorm float64) (impactPerDollar, costPerTree float64) {
	tempReduction := heatScore * h.cfg.MaxTempReduction
	particulate := airScore * h.cfg.MaxParticulate

	impactIndex := h.cfg.TempWeight*(tempReduction/h.cfg.MaxTempReduction) +
		h.cfg.ParticulateWeight*(particulate/h.cfg.MaxParticulate)

	costPerTree = (h.cfg.BaseCostDollars + ejScore*h.cfg.EquityCostDollars) *
		(1 + densityNorm*h.cfg.DensityCostFactor)

	return impactIndex / (costPerTree / 1000.0), costPerTree
}

// Recommend sizes the intervention from the priority score and tree gap
func (h *Heuristic) Recommend(priorityFinal, treeGap float64) int {
	n := int(math.Round(priorityFinal*h.cfg.PriorityTreeFactor + treeGap*h.cfg.GapTreeFactor))
	if n < 0 {
		n = 0
	}
	return n
}
