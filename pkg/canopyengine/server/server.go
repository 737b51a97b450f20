// Package server exposes the engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/urban-futures/canopy-engine/pkg/canopyengine"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/common"
	"github.com/urban-futures/canopy-engine/pkg/canopyengine/config"
)

// Server wraps the engine with JSON endpoints, health and metrics
type Server struct {
	engine *canopyengine.Engine
	cfg    config.ServerConfig
	http   *http.Server
}

// New builds the HTTP server around an engine
func New(engine *canopyengine.Engine, cfg config.ServerConfig) *Server {
	s := &Server{
		engine: engine,
		cfg:    cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/score/{id}", s.handleScore)
	mux.HandleFunc("POST /api/v1/predict", s.handlePredict)
	mux.HandleFunc("POST /api/v1/project", s.handleProject)
	mux.HandleFunc("POST /api/v1/cooling/what-if", s.handleWhatIf)
	mux.HandleFunc("POST /api/v1/cooling/trees-needed", s.handleTreesNeeded)
	mux.HandleFunc("GET /api/v1/units", s.handleUnits)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the configured mux, used by tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving requests until the listener fails
func (s *Server) ListenAndServe() error {
	klog.InfoS("Serving engine API", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type scoreResponse struct {
	UnitID        string  `json:"unit_id"`
	PriorityFinal float64 `json:"priority_final"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	score, err := s.engine.Score(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, scoreResponse{UnitID: id, PriorityFinal: score})
}

type predictRequest struct {
	UnitID    string `json:"unit_id"`
	TreeCount *int   `json:"tree_count,omitempty"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	pred, err := s.engine.Predict(r.Context(), req.UnitID, req.TreeCount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, pred)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	var req canopyengine.ProjectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.engine.Project(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type whatIfRequest struct {
	UnitID     string  `json:"unit_id"`
	AddedTrees float64 `json:"added_trees"`
}

func (s *Server) handleWhatIf(w http.ResponseWriter, r *http.Request) {
	var req whatIfRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.engine.CoolingWhatIf(req.UnitID, req.AddedTrees)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type treesNeededRequest struct {
	UnitID          string  `json:"unit_id"`
	TargetReduction float64 `json:"target_reduction"`
}

func (s *Server) handleTreesNeeded(w http.ResponseWriter, r *http.Request) {
	var req treesNeededRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.engine.TreesNeeded(req.UnitID, req.TargetReduction)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type unitsResponse struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	ids := s.engine.Registry().IDs()
	s.writeJSON(w, http.StatusOK, unitsResponse{Count: len(ids), IDs: ids})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.engine.Registry().Size() == 0 {
		http.Error(w, "registry empty", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return common.NewInputError("malformed request body: %v", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.ErrorS(err, "Failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case common.IsInputError(err):
		status = http.StatusBadRequest
	case common.IsNotFound(err):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		klog.ErrorS(err, "Request failed", "path", r.URL.Path)
	} else {
		klog.V(2).InfoS("Request rejected", "path", r.URL.Path, "status", status, "reason", err.Error())
	}

	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
