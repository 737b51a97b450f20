package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"k8s.io/klog/v2"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/features"
)

// rankedUnit is one row of dry-run output: the unit's priority, the sized
// intervention, and the projected benefit totals
type rankedUnit struct {
	UnitID           string  `json:"unit_id"`
	PriorityFinal    float64 `json:"priority_final"`
	EJScore          float64 `json:"ej_score"`
	RecommendedTrees int     `json:"recommended_tree_count"`
	ImpactPerDollar  float64 `json:"impact_per_dollar"`
	CostPerTree      float64 `json:"cost_per_tree"`
	CarbonTotalKg    float64 `json:"co2_total_kg,omitempty"`
	TempTotal        float64 `json:"temp_total,omitempty"`
	ParticulateLb    float64 `json:"pm25_total_lbs,omitempty"`
}

func main() {
	var (
		top     int
		years   int
		project bool
	)

	flag.IntVar(&top, "top", 0, "Only output the N highest-priority units (0 = all)")
	flag.IntVar(&years, "years", 10, "Projection horizon in years")
	flag.BoolVar(&project, "project", false, "Include a benefit projection for each recommended intervention")
	klog.InitFlags(nil)
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		klog.ErrorS(err, "Failed to load configuration")
		os.Exit(1)
	}

	// External prediction tiers add nothing to an offline batch run; the
	// deterministic heuristic ranks every unit the same way every time
	cfg.Predictor.Enhanced.Enabled = false
	cfg.Predictor.Standard.Enabled = false

	registry, err := features.LoadRegistry(cfg.Registry)
	if err != nil {
		klog.ErrorS(err, "Failed to load feature registry",
			"source", cfg.Registry.Source)
		os.Exit(1)
	}

	klog.InfoS("Starting dry run",
		"units", registry.Size(),
		"years", years,
		"project", project)

	engine := canopyengine.New(cfg, registry)
	ctx := context.Background()

	ranked := make([]rankedUnit, 0, registry.Size())
	for _, id := range registry.IDs() {
		pred, err := engine.Predict(ctx, id, nil)
		if err != nil {
			klog.ErrorS(err, "Skipping unit", "unit", id)
			continue
		}

		row := rankedUnit{
			UnitID:           id,
			PriorityFinal:    pred.PriorityFinal,
			EJScore:          pred.EJScore,
			RecommendedTrees: pred.RecommendedTreeCount,
			ImpactPerDollar:  pred.ImpactPerDollar,
			CostPerTree:      pred.CostPerTree,
		}

		if project && pred.RecommendedTreeCount > 0 {
			result, err := engine.Project(ctx, canopyengine.ProjectRequest{
				UnitID:         id,
				AddedTreeCount: float64(pred.RecommendedTreeCount),
				Years:          years,
			})
			if err != nil {
				klog.ErrorS(err, "Projection failed", "unit", id)
				continue
			}
			row.CarbonTotalKg = result.Cumulative.CarbonKg
			row.TempTotal = result.Cumulative.Temp
			row.ParticulateLb = result.Cumulative.ParticulateLb
		}

		ranked = append(ranked, row)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].PriorityFinal != ranked[j].PriorityFinal {
			return ranked[i].PriorityFinal > ranked[j].PriorityFinal
		}
		return ranked[i].UnitID < ranked[j].UnitID
	})

	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}

	enc := json.NewEncoder(os.Stdout)
	for _, row := range ranked {
		if err := enc.Encode(row); err != nil {
			klog.ErrorS(err, "Failed to encode output row")
			os.Exit(1)
		}
	}

	fmt.Fprintf(os.Stderr, "ranked %d units\n", len(ranked))
}
