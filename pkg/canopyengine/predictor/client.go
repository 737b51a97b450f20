package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"k8s.io/klog/v2"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/simulation"
)

// HTTPClient interface allows mocking http.Client in tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// httpStrategy is an external prediction tier reached over HTTP. The
// enhanced tier also forwards the unit centroid so the upstream service can
// fold auxiliary climate forecasts into its answer.
type httpStrategy struct {
	name         string
	cfg          config.StrategyConfig
	sendLocation bool
	httpClient   HTTPClient
}

// Option allows customizing an HTTP strategy
type Option func(*httpStrategy)

// WithHTTPClient allows injecting a custom HTTP client
func WithHTTPClient(client HTTPClient) Option {
	return func(s *httpStrategy) {
		s.httpClient = client
	}
}

// NewEnhanced creates the enhanced (AI-backed) prediction tier
func NewEnhanced(cfg config.StrategyConfig, opts ...Option) Strategy {
	return newHTTPStrategy("enhanced", cfg, true, opts...)
}

// NewStandard creates the standard (trained-model) prediction tier
func NewStandard(cfg config.StrategyConfig, opts ...Option) Strategy {
	return newHTTPStrategy("standard", cfg, false, opts...)
}

func newHTTPStrategy(name string, cfg config.StrategyConfig, sendLocation bool, opts ...Option) *httpStrategy {
	s := &httpStrategy{
		name:         name,
		cfg:          cfg,
		sendLocation: sendLocation,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *httpStrategy) Name() string {
	return s.name
}

// wireRequest matches the JSON body the prediction services accept
type wireRequest struct {
	TreeCount     float64  `json:"tree_count"`
	BaseTreeCount float64  `json:"base_tree_count"`
	AvgDBH        float64  `json:"avg_dbh"`
	Years         int      `json:"years"`
	ReturnYearly  bool     `json:"return_yearly"`
	HeatScore     float64  `json:"heat_score"`
	AirScore      float64  `json:"air_quality_score"`
	TreeGap       float64  `json:"tree_gap"`
	EJScore       float64  `json:"ej_score"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`
}

type wireYearly struct {
	Year         int     `json:"year"`
	TreeCount    float64 `json:"tree_count"`
	AvgDBH       float64 `json:"avg_dbh"`
	SurvivalRate float64 `json:"survival_rate"`
	CO2Annual    float64 `json:"co2_annual"`
	TempAnnual   float64 `json:"temp_annual"`
	PM25Annual   float64 `json:"pm25_annual"`
}

// wireResponse matches the two response shapes the services produce: a
// single impact figure, or a yearly breakdown
type wireResponse struct {
	ImpactPerDollar   *float64     `json:"impact_per_dollar"`
	CostPerTree       float64      `json:"cost_per_tree"`
	YearlyPredictions []wireYearly `json:"yearly_predictions"`
}

// Predict posts the request to the external service and validates the
// response. Connection failures, timeouts, and semantically invalid
// responses all come back as plain errors; the chain treats them alike.
func (s *httpStrategy) Predict(ctx context.Context, req Request) (*Prediction, error) {
	wire := wireRequest{
		TreeCount:     req.TreeCount,
		BaseTreeCount: req.BaseTreeCount,
		AvgDBH:        req.AvgSizeCm,
		Years:         req.Years,
		ReturnYearly:  req.IncludeYearly,
		HeatScore:     req.Features.HeatScore,
		AirScore:      req.Features.AirQualityScore,
		TreeGap:       req.Features.TreeGap,
		EJScore:       req.Features.EJScore,
	}
	if s.sendLocation {
		lat, lon := req.Centroid.Lat, req.Centroid.Lon
		wire.Lat, wire.Lon = &lat, &lon
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if s.cfg.APIKey != "" {
		httpReq.Header.Set("auth-token", s.cfg.APIKey)
	}

	klog.V(3).InfoS("Calling prediction service",
		"strategy", s.name,
		"url", s.cfg.URL,
		"years", req.Years,
		"yearly", req.IncludeYearly)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var wireResp wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wireResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}

	return s.validate(req, &wireResp)
}

// validate turns a wire response into a Prediction, rejecting semantically
// invalid payloads so the chain escalates exactly as it would on a
// connection failure.
func (s *httpStrategy) validate(req Request, resp *wireResponse) (*Prediction, error) {
	pred := &Prediction{
		CostPerTree: resp.CostPerTree,
		Strategy:    s.name,
	}

	if req.IncludeYearly {
		if len(resp.YearlyPredictions) == 0 {
			return nil, fmt.Errorf("yearly breakdown requested but response has none")
		}
		trajectory := make([]simulation.GrowthPoint, 0, len(resp.YearlyPredictions))
		for _, y := range resp.YearlyPredictions {
			trajectory = append(trajectory, simulation.GrowthPoint{
				TreeCount:    y.TreeCount,
				AvgSizeCm:    y.AvgDBH,
				SurvivalRate: y.SurvivalRate,
			})
		}
		if err := simulation.ValidateTrajectory(trajectory, req.Years); err != nil {
			return nil, fmt.Errorf("invalid yearly trajectory: %v", err)
		}
		pred.Trajectory = trajectory
	}

	if resp.ImpactPerDollar != nil {
		if *resp.ImpactPerDollar < 0 {
			return nil, fmt.Errorf("invalid impact per dollar: %f", *resp.ImpactPerDollar)
		}
		pred.ImpactPerDollar = *resp.ImpactPerDollar
		pred.ImpactKnown = true
	} else if !req.IncludeYearly {
		return nil, fmt.Errorf("response carries neither impact figure nor yearly breakdown")
	}

	return pred, nil
}
