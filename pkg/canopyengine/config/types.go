package config

import (
	"fmt"
	"math"
	"time"
)

// Config holds all configuration for the canopy impact engine
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Registry  RegistryConfig  `yaml:"registry"`
	Priority  PriorityWeights `yaml:"priority"`
	Predictor PredictorConfig `yaml:"predictor"`
	Growth    GrowthConfig    `yaml:"growth"`
	Cooling   CoolingConfig   `yaml:"cooling"`
	Benefits  BenefitConfig   `yaml:"benefits"`
	Heuristic HeuristicConfig `yaml:"heuristic"`
}

// ServerConfig holds HTTP serving settings
type ServerConfig struct {
	Port           int  `yaml:"port"`
	MetricsEnabled bool `yaml:"metricsEnabled"`
	MaxYears       int  `yaml:"maxYears"` // Upper bound on projection horizon
}

// RegistryConfig selects where the feature registry is loaded from at startup
type RegistryConfig struct {
	Source string `yaml:"source"` // "json", "sqlite" or "postgres"
	Path   string `yaml:"path"`   // File path for json/sqlite sources
	DSN    string `yaml:"dsn"`    // Connection string for postgres
	Table  string `yaml:"table"`  // Table name for sqlite/postgres sources
}

// PriorityWeights holds the priority score weights and the equity multiplier.
// These are the single source of truth for the scoring formula; nothing else
// in the engine carries scoring literals.
type PriorityWeights struct {
	Heat             float64 `yaml:"heat"`
	AirQuality       float64 `yaml:"airQuality"`
	TreeGap          float64 `yaml:"treeGap"`
	Pollution        float64 `yaml:"pollution"`
	EquityMultiplier float64 `yaml:"equityMultiplier"`
}

// StrategyConfig holds settings for one external prediction tier
type StrategyConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

// PredictorConfig holds the tiered fallback chain settings
type PredictorConfig struct {
	Enhanced StrategyConfig `yaml:"enhanced"`
	Standard StrategyConfig `yaml:"standard"`
}

// GrowthConfig holds tree growth and mortality parameters
type GrowthConfig struct {
	MortalityRate   float64 `yaml:"mortalityRate"`   // Annual mortality fraction
	MaxSizeCm       float64 `yaml:"maxSizeCm"`       // DBH growth cap in cm
	YoungRateCmYr   float64 `yaml:"youngRateCmYr"`   // DBH < 10cm
	MediumRateCmYr  float64 `yaml:"mediumRateCmYr"`  // DBH 10-30cm
	MatureRateCmYr  float64 `yaml:"matureRateCmYr"`  // DBH > 30cm
	YoungMaxSizeCm  float64 `yaml:"youngMaxSizeCm"`  // Upper DBH bound of the young class
	MediumMaxSizeCm float64 `yaml:"mediumMaxSizeCm"` // Upper DBH bound of the medium class
}

// CoolingConfig holds the density-saturation cooling curve parameters
type CoolingConfig struct {
	MinDensityKm2        float64 `yaml:"minDensityKm2"`        // Density below which cooling is zero
	SaturationDensityKm2 float64 `yaml:"saturationDensityKm2"` // Density where diminishing returns begin
	ReductionPerDensity  float64 `yaml:"reductionPerDensity"`  // Degrees per tree/km2 in the linear region
	MaxReduction         float64 `yaml:"maxReduction"`         // Hard cap on reduction in degrees
	LogTailFraction      float64 `yaml:"logTailFraction"`      // Scale of the logarithmic tail past saturation
}

// BenefitConfig holds the per-tree annual benefit coefficients used by the
// forward projection. Coefficients are calibrated at ReferenceSizeCm DBH.
type BenefitConfig struct {
	CarbonKgPerTree      float64 `yaml:"carbonKgPerTree"`      // kg CO2/year at reference size
	TempPerTree          float64 `yaml:"tempPerTree"`          // degrees F per tree at reference size
	ParticulateLbPerTree float64 `yaml:"particulateLbPerTree"` // lbs PM2.5/year at reference size
	ReferenceSizeCm      float64 `yaml:"referenceSizeCm"`
	SizeExponent         float64 `yaml:"sizeExponent"` // Carbon and particulate scaling
	CanopyExponent       float64 `yaml:"canopyExponent"` // Temperature scaling (steeper)
}

// HeuristicConfig holds the deterministic fallback tier parameters
type HeuristicConfig struct {
	MaxTempReduction   float64 `yaml:"maxTempReduction"`   // degrees F at heat score 1.0
	MaxParticulate     float64 `yaml:"maxParticulate"`     // lbs/tree/year at air score 1.0
	TempWeight         float64 `yaml:"tempWeight"`         // Impact index temperature share
	ParticulateWeight  float64 `yaml:"particulateWeight"`  // Impact index particulate share
	BaseCostDollars    float64 `yaml:"baseCostDollars"`    // Planting cost floor per tree
	EquityCostDollars  float64 `yaml:"equityCostDollars"`  // Additional cost at ej score 1.0
	DensityCostFactor  float64 `yaml:"densityCostFactor"`  // Cost uplift at full tree density
	PriorityTreeFactor float64 `yaml:"priorityTreeFactor"` // Recommended trees per unit of priority
	GapTreeFactor      float64 `yaml:"gapTreeFactor"`      // Recommended trees per unit of tree gap
}

// Validate performs validation of the configuration
func (c *Config) Validate() error {
	switch c.Registry.Source {
	case "json", "sqlite":
		if c.Registry.Path == "" {
			return fmt.Errorf("registry path is required for %s source", c.Registry.Source)
		}
	case "postgres":
		if c.Registry.DSN == "" {
			return fmt.Errorf("registry dsn is required for postgres source")
		}
	default:
		return fmt.Errorf("unknown registry source: %s", c.Registry.Source)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.MaxYears < 1 {
		return fmt.Errorf("max projection years must be at least 1")
	}

	if err := c.Priority.Validate(); err != nil {
		return fmt.Errorf("invalid priority weights: %v", err)
	}

	// Env and YAML both happily deliver NaN into a float field
	for name, v := range map[string]float64{
		"growth.mortalityRate":          c.Growth.MortalityRate,
		"growth.maxSizeCm":              c.Growth.MaxSizeCm,
		"growth.youngRateCmYr":          c.Growth.YoungRateCmYr,
		"growth.mediumRateCmYr":         c.Growth.MediumRateCmYr,
		"growth.matureRateCmYr":         c.Growth.MatureRateCmYr,
		"cooling.minDensityKm2":         c.Cooling.MinDensityKm2,
		"cooling.saturationDensityKm2":  c.Cooling.SaturationDensityKm2,
		"cooling.reductionPerDensity":   c.Cooling.ReductionPerDensity,
		"cooling.maxReduction":          c.Cooling.MaxReduction,
		"cooling.logTailFraction":       c.Cooling.LogTailFraction,
		"benefits.carbonKgPerTree":      c.Benefits.CarbonKgPerTree,
		"benefits.tempPerTree":          c.Benefits.TempPerTree,
		"benefits.particulateLbPerTree": c.Benefits.ParticulateLbPerTree,
		"benefits.referenceSizeCm":      c.Benefits.ReferenceSizeCm,
		"benefits.sizeExponent":         c.Benefits.SizeExponent,
		"benefits.canopyExponent":       c.Benefits.CanopyExponent,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number, got %f", name, v)
		}
	}

	if c.Growth.MortalityRate < 0 || c.Growth.MortalityRate >= 1 {
		return fmt.Errorf("mortality rate must be in [0,1), got %f", c.Growth.MortalityRate)
	}
	if c.Growth.MaxSizeCm <= 0 {
		return fmt.Errorf("max tree size must be positive")
	}

	if c.Cooling.MinDensityKm2 < 0 {
		return fmt.Errorf("minimum cooling density must be non-negative")
	}
	if c.Cooling.SaturationDensityKm2 <= c.Cooling.MinDensityKm2 {
		return fmt.Errorf("saturation density must be greater than minimum density")
	}
	if c.Cooling.ReductionPerDensity <= 0 {
		return fmt.Errorf("cooling reduction per density must be positive")
	}
	if c.Cooling.MaxReduction <= 0 {
		return fmt.Errorf("max cooling reduction must be positive")
	}
	if c.Cooling.LogTailFraction < 0 {
		return fmt.Errorf("cooling log tail fraction must be non-negative, got %f", c.Cooling.LogTailFraction)
	}

	if c.Benefits.ReferenceSizeCm <= 0 {
		return fmt.Errorf("reference tree size must be positive")
	}

	if c.Predictor.Enhanced.Enabled && c.Predictor.Enhanced.URL == "" {
		return fmt.Errorf("enhanced predictor URL is required when enabled")
	}
	if c.Predictor.Standard.Enabled && c.Predictor.Standard.URL == "" {
		return fmt.Errorf("standard predictor URL is required when enabled")
	}

	return nil
}

// Validate checks the priority weights for finiteness and sign
func (w *PriorityWeights) Validate() error {
	for name, v := range map[string]float64{
		"heat":             w.Heat,
		"airQuality":       w.AirQuality,
		"treeGap":          w.TreeGap,
		"pollution":        w.Pollution,
		"equityMultiplier": w.EquityMultiplier,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("weight %s must be a finite non-negative number, got %f", name, v)
		}
	}
	return nil
}
