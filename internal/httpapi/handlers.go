// Package httpapi exposes the orchestrator over HTTP for the dashboard.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/scout-analytics/adsbot/internal/models"
	"github.com/scout-analytics/adsbot/internal/orchestrator"
	"github.com/scout-analytics/adsbot/internal/templates"
)

// Handler serves the query and telemetry endpoints.
type Handler struct {
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

// NewHandler creates an HTTP handler over an orchestrator.
func NewHandler(orch *orchestrator.Orchestrator, logger *zap.Logger) *Handler {
	return &Handler{orch: orch, logger: logger}
}

// RegisterRoutes mounts all endpoints on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/query", h.handleQuery)
	mux.HandleFunc("/v1/telemetry", h.handleTelemetry)
	mux.HandleFunc("/v1/telemetry/stats", h.handleTelemetryStats)
	mux.HandleFunc("/healthz", h.handleHealth)
}

// queryRequest is the POST /v1/query body: the query itself plus optional
// per-call overrides.
type queryRequest struct {
	Query   models.Query `json:"query"`
	Options *struct {
		Provider string `json:"provider,omitempty"`
		Model    string `json:"model,omitempty"`
	} `json:"options,omitempty"`
}

// handleQuery: POST /v1/query
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	var opts *orchestrator.Options
	if req.Options != nil {
		opts = &orchestrator.Options{Provider: req.Options.Provider, Model: req.Options.Model}
	}

	resp, err := h.orch.ProcessQuery(r.Context(), req.Query, opts)
	if err != nil {
		// Only caller errors reach here; provider failures degrade internally.
		status := http.StatusBadRequest
		if !errors.Is(err, orchestrator.ErrInvalidQuery) && !errors.Is(err, templates.ErrTemplateNotFound) {
			status = http.StatusInternalServerError
			h.logger.Error("unexpected ProcessQuery error", zap.Error(err))
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTelemetry: GET /v1/telemetry?key=&date=
func (h *Handler) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	events := h.orch.GetTelemetry(q.Get("key"), q.Get("date"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(events),
		"events": events,
	})
}

// handleTelemetryStats: GET /v1/telemetry/stats
func (h *Handler) handleTelemetryStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.orch.TelemetryStats())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
