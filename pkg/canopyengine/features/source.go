package features

import (
	"fmt"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
)

// Source loads raw feature records from wherever the aggregation pipeline
// left them
type Source interface {
	Load() ([]Record, error)
	Close() error
}

// NewSource creates a feature source based on configuration
func NewSource(cfg config.RegistryConfig) (Source, error) {
	switch cfg.Source {
	case "json":
		return NewJSONSource(cfg.Path), nil
	case "sqlite":
		return NewSQLiteSource(cfg.Path, cfg.Table)
	case "postgres":
		return NewPostgresSource(cfg.DSN, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown registry source: %s", cfg.Source)
	}
}

// LoadRegistry loads records from a source and builds the registry
func LoadRegistry(cfg config.RegistryConfig) (*Registry, error) {
	source, err := NewSource(cfg)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	records, err := source.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load feature records: %v", err)
	}

	return NewRegistry(records)
}
