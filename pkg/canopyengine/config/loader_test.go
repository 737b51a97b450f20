package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxYears != 100 {
		t.Errorf("expected default max years 100, got %d", cfg.Server.MaxYears)
	}
	if cfg.Registry.Source != "json" {
		t.Errorf("expected default registry source json, got %s", cfg.Registry.Source)
	}
	if cfg.Priority.Heat != 0.35 {
		t.Errorf("expected default heat weight 0.35, got %f", cfg.Priority.Heat)
	}
	if cfg.Growth.MortalityRate != 0.02 {
		t.Errorf("expected default mortality rate 0.02, got %f", cfg.Growth.MortalityRate)
	}
	if cfg.Cooling.MaxReduction != 3.0 {
		t.Errorf("expected default max reduction 3.0, got %f", cfg.Cooling.MaxReduction)
	}
	if !cfg.Predictor.Enhanced.Enabled {
		t.Error("expected enhanced predictor enabled by default")
	}
	if cfg.Predictor.Enhanced.Timeout != 5*time.Second {
		t.Errorf("expected default enhanced timeout 5s, got %v", cfg.Predictor.Enhanced.Timeout)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("ENGINE_PORT", "9090")
	t.Setenv("TREE_MORTALITY_RATE", "0.05")
	t.Setenv("ENHANCED_PREDICTOR_ENABLED", "false")
	t.Setenv("ENHANCED_PREDICTOR_TIMEOUT", "2s")
	t.Setenv("REGISTRY_SOURCE", "sqlite")
	t.Setenv("REGISTRY_PATH", "/tmp/features.db")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Growth.MortalityRate != 0.05 {
		t.Errorf("expected mortality rate 0.05, got %f", cfg.Growth.MortalityRate)
	}
	if cfg.Predictor.Enhanced.Enabled {
		t.Error("expected enhanced predictor disabled")
	}
	if cfg.Predictor.Enhanced.Timeout != 2*time.Second {
		t.Errorf("expected enhanced timeout 2s, got %v", cfg.Predictor.Enhanced.Timeout)
	}
	if cfg.Registry.Source != "sqlite" {
		t.Errorf("expected registry source sqlite, got %s", cfg.Registry.Source)
	}
}

func TestLoadFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ENGINE_PORT", "not-a-number")
	t.Setenv("TREE_MORTALITY_RATE", "many")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected fallback port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Growth.MortalityRate != 0.02 {
		t.Errorf("expected fallback mortality rate 0.02, got %f", cfg.Growth.MortalityRate)
	}
}

func TestLoadFromEnv_RejectsNegativeLogTail(t *testing.T) {
	t.Setenv("COOLING_LOG_TAIL_FRACTION", "-0.5")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error for negative log tail fraction")
	}
}

func TestLoadFromEnv_RejectsNaNCoefficient(t *testing.T) {
	t.Setenv("COOLING_REDUCTION_PER_DENSITY", "NaN")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error for NaN cooling coefficient")
	}
}

func TestLoadFromEnv_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	content := []byte("server:\n  port: 7070\ncooling:\n  maxReduction: 2.5\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("ENGINE_CONFIG_PATH", path)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("expected file port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Cooling.MaxReduction != 2.5 {
		t.Errorf("expected file max reduction 2.5, got %f", cfg.Cooling.MaxReduction)
	}
	// Fields the file does not mention keep their defaults
	if cfg.Growth.MortalityRate != 0.02 {
		t.Errorf("expected default mortality rate 0.02, got %f", cfg.Growth.MortalityRate)
	}
}

func TestLoadFromEnv_MissingConfigFile(t *testing.T) {
	t.Setenv("ENGINE_CONFIG_PATH", "/nonexistent/engine.yaml")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "zero port",
			mutate: func(c *Config) { c.Server.Port = 0 },
		},
		{
			name:   "max years below one",
			mutate: func(c *Config) { c.Server.MaxYears = 0 },
		},
		{
			name:   "unknown registry source",
			mutate: func(c *Config) { c.Registry.Source = "csv" },
		},
		{
			name:   "negative priority weight",
			mutate: func(c *Config) { c.Priority.Heat = -0.1 },
		},
		{
			name:   "mortality rate at one",
			mutate: func(c *Config) { c.Growth.MortalityRate = 1.0 },
		},
		{
			name:   "saturation below min density",
			mutate: func(c *Config) { c.Cooling.SaturationDensityKm2 = 5.0 },
		},
		{
			name:   "enhanced enabled without url",
			mutate: func(c *Config) { c.Predictor.Enhanced.URL = "" },
		},
		{
			name:   "zero reference size",
			mutate: func(c *Config) { c.Benefits.ReferenceSizeCm = 0 },
		},
		{
			name:   "negative log tail fraction",
			mutate: func(c *Config) { c.Cooling.LogTailFraction = -0.5 },
		},
		{
			name:   "NaN cooling coefficient",
			mutate: func(c *Config) { c.Cooling.ReductionPerDensity = math.NaN() },
		},
		{
			name:   "infinite max reduction",
			mutate: func(c *Config) { c.Cooling.MaxReduction = math.Inf(1) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv() failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
