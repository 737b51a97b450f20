package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getIntOrDefault("ENGINE_PORT", 8080),
			MetricsEnabled: getBoolOrDefault("METRICS_ENABLED", true),
			MaxYears:       getIntOrDefault("MAX_PROJECTION_YEARS", 100),
		},
		Registry: RegistryConfig{
			Source: getEnvOrDefault("REGISTRY_SOURCE", "json"),
			Path:   getEnvOrDefault("REGISTRY_PATH", "data/features.json"),
			DSN:    os.Getenv("REGISTRY_DSN"),
			Table:  getEnvOrDefault("REGISTRY_TABLE", "unit_features"),
		},
		Priority: PriorityWeights{
			Heat:             getFloatOrDefault("PRIORITY_HEAT_WEIGHT", 0.35),
			AirQuality:       getFloatOrDefault("PRIORITY_AIR_WEIGHT", 0.25),
			TreeGap:          getFloatOrDefault("PRIORITY_TREE_GAP_WEIGHT", 0.25),
			Pollution:        getFloatOrDefault("PRIORITY_POLLUTION_WEIGHT", 0.15),
			EquityMultiplier: getFloatOrDefault("PRIORITY_EQUITY_MULTIPLIER", 0.4),
		},
		Predictor: PredictorConfig{
			Enhanced: StrategyConfig{
				Enabled: getBoolOrDefault("ENHANCED_PREDICTOR_ENABLED", true),
				URL:     getEnvOrDefault("ENHANCED_PREDICTOR_URL", "http://localhost:3003/predict"),
				APIKey:  os.Getenv("ENHANCED_PREDICTOR_API_KEY"),
				Timeout: getDurationOrDefault("ENHANCED_PREDICTOR_TIMEOUT", 5*time.Second),
			},
			Standard: StrategyConfig{
				Enabled: getBoolOrDefault("STANDARD_PREDICTOR_ENABLED", true),
				URL:     getEnvOrDefault("STANDARD_PREDICTOR_URL", "http://localhost:3002/predict"),
				Timeout: getDurationOrDefault("STANDARD_PREDICTOR_TIMEOUT", 5*time.Second),
			},
		},
		Growth: GrowthConfig{
			MortalityRate:   getFloatOrDefault("TREE_MORTALITY_RATE", 0.02),
			MaxSizeCm:       getFloatOrDefault("TREE_MAX_SIZE_CM", 100.0),
			YoungRateCmYr:   getFloatOrDefault("TREE_GROWTH_YOUNG_CM_YR", 1.5),
			MediumRateCmYr:  getFloatOrDefault("TREE_GROWTH_MEDIUM_CM_YR", 1.0),
			MatureRateCmYr:  getFloatOrDefault("TREE_GROWTH_MATURE_CM_YR", 0.5),
			YoungMaxSizeCm:  getFloatOrDefault("TREE_YOUNG_MAX_SIZE_CM", 10.0),
			MediumMaxSizeCm: getFloatOrDefault("TREE_MEDIUM_MAX_SIZE_CM", 30.0),
		},
		Cooling: CoolingConfig{
			MinDensityKm2:        getFloatOrDefault("COOLING_MIN_DENSITY_KM2", 10.0),
			SaturationDensityKm2: getFloatOrDefault("COOLING_SATURATION_DENSITY_KM2", 500.0),
			ReductionPerDensity:  getFloatOrDefault("COOLING_REDUCTION_PER_DENSITY", 0.02),
			MaxReduction:         getFloatOrDefault("COOLING_MAX_REDUCTION", 3.0),
			LogTailFraction:      getFloatOrDefault("COOLING_LOG_TAIL_FRACTION", 0.1),
		},
		Benefits: BenefitConfig{
			CarbonKgPerTree:      getFloatOrDefault("BENEFIT_CARBON_KG_PER_TREE", 21.77),
			TempPerTree:          getFloatOrDefault("BENEFIT_TEMP_PER_TREE", 0.06),
			ParticulateLbPerTree: getFloatOrDefault("BENEFIT_PM25_LB_PER_TREE", 0.18),
			ReferenceSizeCm:      getFloatOrDefault("BENEFIT_REFERENCE_SIZE_CM", 20.0),
			SizeExponent:         getFloatOrDefault("BENEFIT_SIZE_EXPONENT", 1.5),
			CanopyExponent:       getFloatOrDefault("BENEFIT_CANOPY_EXPONENT", 2.0),
		},
		Heuristic: HeuristicConfig{
			MaxTempReduction:   getFloatOrDefault("HEURISTIC_MAX_TEMP_REDUCTION", 2.0),
			MaxParticulate:     getFloatOrDefault("HEURISTIC_MAX_PM25", 0.16),
			TempWeight:         getFloatOrDefault("HEURISTIC_TEMP_WEIGHT", 0.6),
			ParticulateWeight:  getFloatOrDefault("HEURISTIC_PM25_WEIGHT", 0.4),
			BaseCostDollars:    getFloatOrDefault("HEURISTIC_BASE_COST", 500.0),
			EquityCostDollars:  getFloatOrDefault("HEURISTIC_EQUITY_COST", 1500.0),
			DensityCostFactor:  getFloatOrDefault("HEURISTIC_DENSITY_COST_FACTOR", 0.3),
			PriorityTreeFactor: getFloatOrDefault("HEURISTIC_PRIORITY_TREE_FACTOR", 100.0),
			GapTreeFactor:      getFloatOrDefault("HEURISTIC_GAP_TREE_FACTOR", 50.0),
		},
	}

	// Apply YAML override file if provided
	if path := os.Getenv("ENGINE_CONFIG_PATH"); path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %v", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	klog.V(2).InfoS("Loaded configuration",
		"registrySource", cfg.Registry.Source,
		"enhancedPredictor", cfg.Predictor.Enhanced.Enabled,
		"standardPredictor", cfg.Predictor.Standard.Enabled,
		"mortalityRate", cfg.Growth.MortalityRate,
		"maxYears", cfg.Server.MaxYears)

	return cfg, nil
}

func loadConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %v", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %v", err)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.Atoi(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid integer value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.ParseFloat(strValue, 64); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid float value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if strValue := os.Getenv(key); strValue != "" {
		value, err := strconv.ParseBool(strValue)
		if err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid boolean value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := time.ParseDuration(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid duration value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}
