package features

import (
	"encoding/json"
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

// JSONSource reads feature records from a JSON array file, the format the
// aggregation pipeline exports
type JSONSource struct {
	path string
}

// NewJSONSource creates a file-backed feature source
func NewJSONSource(path string) *JSONSource {
	return &JSONSource{path: path}
}

// Load reads and decodes the feature file
func (s *JSONSource) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature file: %v", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse feature file: %v", err)
	}

	klog.V(2).InfoS("Loaded feature records from file",
		"path", s.path,
		"records", len(records))

	return records, nil
}

// Close is a no-op for the file source
func (s *JSONSource) Close() error {
	return nil
}
