package mock

import (
	"context"
	"fmt"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/predictor"
)

// MockStrategy implements the predictor.Strategy interface for testing
type MockStrategy struct {
	name       string
	prediction *predictor.Prediction
	err        error
	Calls      int
}

// New creates a mock strategy that always returns the given prediction
func New(name string, prediction *predictor.Prediction) *MockStrategy {
	return &MockStrategy{name: name, prediction: prediction}
}

// NewFailing creates a mock strategy that always fails
func NewFailing(name string) *MockStrategy {
	return &MockStrategy{name: name, err: fmt.Errorf("prediction service error (mock)")}
}

// NewWithError creates a mock strategy that always returns the given error
func NewWithError(name string, err error) *MockStrategy {
	return &MockStrategy{name: name, err: err}
}

func (m *MockStrategy) Name() string {
	return m.name
}

// Predict returns the configured prediction or error
func (m *MockStrategy) Predict(ctx context.Context, req predictor.Request) (*predictor.Prediction, error) {
	m.Calls++
	if m.err != nil {
		return nil, m.err
	}
	out := *m.prediction
	out.Strategy = m.name
	out.ImpactKnown = true
	return &out, nil
}

// MockStrategyFunc delegates to a function, for tests that need full control
type MockStrategyFunc struct {
	StrategyName string
	PredictFunc  func(ctx context.Context, req predictor.Request) (*predictor.Prediction, error)
}

func (m *MockStrategyFunc) Name() string {
	return m.StrategyName
}

func (m *MockStrategyFunc) Predict(ctx context.Context, req predictor.Request) (*predictor.Prediction, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, req)
	}
	return nil, fmt.Errorf("no predict function configured")
}
