package predictor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/common"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/metrics"
)

// tier pairs a strategy with its timeout. A zero timeout means no bound,
// which only the in-process heuristic is allowed to rely on.
type tier struct {
	strategy Strategy
	timeout  time.Duration
}

// Chain tries its tiers in fixed order. A tier failure (connection error,
// timeout, semantically invalid response) escalates to the next tier; an
// InputError aborts immediately with no further attempts. The chain holds
// no per-request state, so concurrent calls are independent.
type Chain struct {
	tiers     []tier
	heuristic *Heuristic
}

// NewChain builds the fallback chain from configuration: enhanced, then
// standard, then the deterministic heuristic. Disabled external tiers are
// skipped at construction time.
func NewChain(cfg config.PredictorConfig, heuristic *Heuristic, opts ...Option) *Chain {
	c := &Chain{heuristic: heuristic}

	if cfg.Enhanced.Enabled {
		c.tiers = append(c.tiers, tier{
			strategy: NewEnhanced(cfg.Enhanced, opts...),
			timeout:  cfg.Enhanced.Timeout,
		})
	}
	if cfg.Standard.Enabled {
		c.tiers = append(c.tiers, tier{
			strategy: NewStandard(cfg.Standard, opts...),
			timeout:  cfg.Standard.Timeout,
		})
	}
	c.tiers = append(c.tiers, tier{strategy: heuristic})

	return c
}

// NewChainFromStrategies builds a chain from explicit tiers; the last must
// be the deterministic heuristic. Used by tests and by callers that need a
// custom ordering.
func NewChainFromStrategies(heuristic *Heuristic, external ...Strategy) *Chain {
	c := &Chain{heuristic: heuristic}
	for _, s := range external {
		c.tiers = append(c.tiers, tier{strategy: s, timeout: 5 * time.Second})
	}
	c.tiers = append(c.tiers, tier{strategy: heuristic})
	return c
}

// Predict walks the tiers in order and returns the first valid prediction.
// Since the final tier cannot fail on valid input, exhausting the chain
// indicates a defect and surfaces as ErrExhaustedFallback.
func (c *Chain) Predict(ctx context.Context, req Request) (*Prediction, error) {
	var lastErr error

	for _, t := range c.tiers {
		pred, err := c.attempt(ctx, t, req)
		if err == nil {
			c.fill(pred, req)
			metrics.PredictionTierAttempts.WithLabelValues(t.strategy.Name(), "success").Inc()
			return pred, nil
		}

		if common.IsInputError(err) {
			// The caller must fix the request; later tiers would reject
			// it the same way.
			metrics.PredictionTierAttempts.WithLabelValues(t.strategy.Name(), "invalid_input").Inc()
			return nil, err
		}

		metrics.PredictionTierAttempts.WithLabelValues(t.strategy.Name(), failureLabel(err)).Inc()
		klog.V(2).InfoS("Prediction tier failed, escalating",
			"strategy", t.strategy.Name(),
			"error", err)
		lastErr = common.NewUpstreamError(t.strategy.Name(), err)
	}

	return nil, fmt.Errorf("%w: %v", common.ErrExhaustedFallback, lastErr)
}

// attempt runs one tier under its timeout
func (c *Chain) attempt(ctx context.Context, t tier, req Request) (*Prediction, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.strategy.Predict(ctx, req)
}

// fill completes fields external tiers do not supply: the priority echo,
// the recommended intervention size, and the impact figure for
// yearly-only responses.
func (c *Chain) fill(pred *Prediction, req Request) {
	pred.PriorityFinal = req.PriorityFinal
	pred.EJScore = req.Features.EJScore
	if pred.RecommendedTreeCount == 0 {
		pred.RecommendedTreeCount = c.heuristic.Recommend(req.PriorityFinal, req.Features.TreeGap)
	}
	if !pred.ImpactKnown {
		impact, cost := c.heuristic.Impact(req.Features.HeatScore, req.Features.AirQualityScore,
			req.Features.EJScore, req.Features.TreeDensityNorm)
		pred.ImpactPerDollar = impact
		pred.ImpactKnown = true
		if pred.CostPerTree == 0 {
			pred.CostPerTree = cost
		}
	}
}

func failureLabel(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}
