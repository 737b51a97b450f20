package canopyengine

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/clock"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/common"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/features"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/metrics"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/predictor"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/scoring"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/simulation"
)

// defaultAvgSizeCm is assumed for units whose census carries no trunk
// diameter, matching the aggregation pipeline's planting-stock default
const defaultAvgSizeCm = 10.0

// defaultProjectionYears is the horizon used when a prediction request
// does not pin one
const defaultProjectionYears = 10

// Engine is the climate impact prioritization and forward-simulation
// engine. It is a pure function of its inputs plus at most one bounded
// external call per prediction tier; the only long-lived state is the
// read-only feature registry.
type Engine struct {
	cfg       *config.Config
	registry  *features.Registry
	scorer    *scoring.Scorer
	chain     *predictor.Chain
	growth    *simulation.Simulator
	cooling   *simulation.CoolingModel
	assembler *simulation.Assembler
	heuristic *predictor.Heuristic
	clock     clock.Clock
}

// Option allows customizing the engine
type Option func(*Engine)

// WithChain injects a custom prediction chain, used by tests
func WithChain(chain *predictor.Chain) Option {
	return func(e *Engine) {
		e.chain = chain
	}
}

// WithClock injects a custom clock for latency measurement
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates the engine around an already-loaded feature registry
func New(cfg *config.Config, registry *features.Registry, opts ...Option) *Engine {
	growth := simulation.NewSimulator(cfg.Growth)
	heuristic := predictor.NewHeuristic(cfg.Heuristic, growth)

	e := &Engine{
		cfg:       cfg,
		registry:  registry,
		scorer:    scoring.New(cfg.Priority),
		chain:     predictor.NewChain(cfg.Predictor, heuristic),
		growth:    growth,
		cooling:   simulation.NewCoolingModel(cfg.Cooling),
		assembler: simulation.NewAssembler(growth, cfg.Benefits),
		heuristic: heuristic,
		clock:     clock.RealClock{},
	}
	for _, opt := range opts {
		opt(e)
	}

	metrics.RegistryUnits.Set(float64(registry.Size()))

	return e
}

// ProjectRequest names the subject of a forward projection: either a
// registered spatial unit or an explicit area. An omitted BaseTreeCount
// defaults from the unit's census (zero for a bare area), as does a
// non-positive InitialSizeCm; an explicit negative count is rejected.
type ProjectRequest struct {
	UnitID         string   `json:"unit_id,omitempty"`
	AreaKm2        float64  `json:"area_km2,omitempty"`
	BaseTreeCount  *float64 `json:"base_tree_count,omitempty"`
	AddedTreeCount float64  `json:"added_tree_count"`
	InitialSizeCm  float64  `json:"avg_dbh,omitempty"`
	Years          int      `json:"years"`
}

// Score returns priority_final for a spatial unit
func (e *Engine) Score(id string) (float64, error) {
	done := e.track("score")

	unit, err := e.lookup(id)
	if err != nil {
		done(err)
		return 0, err
	}

	score, err := e.scorer.Score(&unit.Features)
	done(err)
	return score, err
}

// Predict returns the cost-normalized impact figure and recommended
// intervention size for a spatial unit. A nil treeCount sizes the
// intervention from the priority score.
func (e *Engine) Predict(ctx context.Context, id string, treeCount *int) (*predictor.Prediction, error) {
	done := e.track("predict")

	pred, err := e.predict(ctx, id, treeCount)
	done(err)
	return pred, err
}

func (e *Engine) predict(ctx context.Context, id string, treeCount *int) (*predictor.Prediction, error) {
	unit, err := e.lookup(id)
	if err != nil {
		return nil, err
	}

	priority, err := e.scorer.Score(&unit.Features)
	if err != nil {
		return nil, err
	}

	req, err := e.buildRequest(unit, priority, treeCount, defaultProjectionYears, false)
	if err != nil {
		return nil, err
	}

	return e.chain.Predict(ctx, req)
}

// Project simulates the multi-year trajectory and benefit accumulation for
// an intervention. For registered units the prediction chain may supply the
// trajectory; for bare areas the closed form is used directly.
func (e *Engine) Project(ctx context.Context, req ProjectRequest) (*simulation.ProjectionResult, error) {
	done := e.track("project")

	result, err := e.project(ctx, req)
	done(err)
	return result, err
}

func (e *Engine) project(ctx context.Context, req ProjectRequest) (*simulation.ProjectionResult, error) {
	if req.Years < 1 || req.Years > e.cfg.Server.MaxYears {
		return nil, common.NewInputError("years must be in [1,%d], got %d", e.cfg.Server.MaxYears, req.Years)
	}

	if req.BaseTreeCount != nil && *req.BaseTreeCount < 0 {
		return nil, common.NewInputError("base tree count must be non-negative, got %f", *req.BaseTreeCount)
	}

	if req.UnitID == "" {
		if req.AreaKm2 <= 0 {
			return nil, common.NewInputError("either a unit id or a positive area is required")
		}
		var base float64
		if req.BaseTreeCount != nil {
			base = *req.BaseTreeCount
		}
		size := req.InitialSizeCm
		if size <= 0 {
			size = defaultAvgSizeCm
		}
		return e.assembler.Assemble(base, req.AddedTreeCount, size, req.Years)
	}

	unit, err := e.lookup(req.UnitID)
	if err != nil {
		return nil, err
	}

	base := unit.Features.TreeCount
	if req.BaseTreeCount != nil {
		base = *req.BaseTreeCount
	}
	size := req.InitialSizeCm
	if size <= 0 {
		size = unit.Features.AvgSizeCm
	}
	if size <= 0 {
		size = defaultAvgSizeCm
	}
	if base+req.AddedTreeCount < 0 {
		return nil, common.NewInputError("added tree count %f drives total below zero", req.AddedTreeCount)
	}

	priority, err := e.scorer.Score(&unit.Features)
	if err != nil {
		return nil, err
	}

	predReq := predictor.Request{
		Features:      &unit.Features,
		Centroid:      unit.Centroid,
		PriorityFinal: priority,
		TreeCount:     base + req.AddedTreeCount,
		BaseTreeCount: base,
		AvgSizeCm:     size,
		Years:         req.Years,
		IncludeYearly: true,
	}

	pred, err := e.chain.Predict(ctx, predReq)
	if err != nil {
		return nil, err
	}

	// An externally supplied trajectory takes precedence over the closed
	// form; the chain has already shape-validated it.
	if len(pred.Trajectory) > 0 {
		klog.V(3).InfoS("Assembling projection from tier trajectory",
			"unit", req.UnitID,
			"strategy", pred.Strategy,
			"years", req.Years)
		return e.assembler.FromTrajectory(pred.Trajectory), nil
	}

	return e.assembler.Assemble(base, req.AddedTreeCount, size, req.Years)
}

// CoolingWhatIf reports the cooling change from adding trees to a unit
func (e *Engine) CoolingWhatIf(id string, addedTrees float64) (*simulation.WhatIfResult, error) {
	done := e.track("what_if")

	result, err := e.coolingWhatIf(id, addedTrees)
	done(err)
	return result, err
}

func (e *Engine) coolingWhatIf(id string, addedTrees float64) (*simulation.WhatIfResult, error) {
	unit, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.cooling.WhatIf(unit.Features.TreeCount, addedTrees, unit.AreaKm2)
}

// TreesNeeded reports how many trees a unit needs to reach a target
// temperature reduction
func (e *Engine) TreesNeeded(id string, targetReduction float64) (*simulation.TreesNeededResult, error) {
	done := e.track("trees_needed")

	result, err := e.treesNeeded(id, targetReduction)
	done(err)
	return result, err
}

func (e *Engine) treesNeeded(id string, targetReduction float64) (*simulation.TreesNeededResult, error) {
	unit, err := e.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.cooling.TreesNeeded(targetReduction, unit.Features.TreeCount, unit.AreaKm2)
}

// Registry exposes the read-only feature registry
func (e *Engine) Registry() *features.Registry {
	return e.registry
}

func (e *Engine) lookup(id string) (*features.Unit, error) {
	if id == "" {
		return nil, common.NewInputError("spatial unit id is required")
	}

	unit, ok := e.registry.Get(id)
	if !ok {
		metrics.RegistryLookups.WithLabelValues("miss").Inc()
		return nil, common.NewNotFoundError(id)
	}
	metrics.RegistryLookups.WithLabelValues("hit").Inc()
	return unit, nil
}

func (e *Engine) buildRequest(unit *features.Unit, priority float64, treeCount *int, years int, yearly bool) (predictor.Request, error) {
	size := unit.Features.AvgSizeCm
	if size <= 0 {
		size = defaultAvgSizeCm
	}

	req := predictor.Request{
		Features:      &unit.Features,
		Centroid:      unit.Centroid,
		PriorityFinal: priority,
		BaseTreeCount: unit.Features.TreeCount,
		AvgSizeCm:     size,
		Years:         years,
		IncludeYearly: yearly,
	}

	if treeCount != nil {
		if *treeCount < 0 {
			return predictor.Request{}, common.NewInputError("tree count must be non-negative, got %d", *treeCount)
		}
		req.TreeCount = unit.Features.TreeCount + float64(*treeCount)
	} else {
		recommended := e.heuristic.Recommend(priority, unit.Features.TreeGap)
		req.TreeCount = unit.Features.TreeCount + float64(recommended)
	}

	return req, nil
}

// track starts a latency observation for one operation and returns the
// completion callback that records both metrics
func (e *Engine) track(operation string) func(error) {
	start := e.clock.Now()
	return func(err error) {
		metrics.RequestDuration.WithLabelValues(operation).Observe(e.clock.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case common.IsInputError(err):
		return "invalid_input"
	case common.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
