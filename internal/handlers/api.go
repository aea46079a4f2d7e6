package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"monotributo-dashboard/internal/errors"
	"monotributo-dashboard/internal/observability"
	"monotributo-dashboard/internal/services"
)

type APIHandlers struct {
	analyzer *services.Analyzer
	opts     Options
	logger   *slog.Logger
}

func NewAPIHandlers(analyzer *services.Analyzer, opts Options, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analyzer: analyzer,
		opts:     opts,
		logger:   logger,
	}
}

// HandleAnalysis runs one analysis over the uploaded pair of files and
// returns the full report.
func (h *APIHandlers) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	in, err := parseAnalysisForm(w, r, h.opts)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), in)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	headers := map[string]string{
		"Cache-Control": "no-store",
	}

	errors.WriteSuccessWithHeaders(w, report, headers)
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {

	data := h.analyzer.Categories().Bands()

	headers := map[string]string{
		"Cache-Control": "public, max-age=300",
	}

	errors.WriteSuccessWithHeaders(w, data, headers)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analyzer.Stats()

	errors.WriteSuccess(w, stats)
}
