package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"monotributo-dashboard/internal/errors"
	"monotributo-dashboard/internal/services"
	"monotributo-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

// PageHandlers serve the dashboard without JavaScript: GET renders the
// empty form, POST renders the form and the report in one page.
type PageHandlers struct {
	analyzer *services.Analyzer
	opts     Options
	logger   *slog.Logger
}

func NewPageHandlers(analyzer *services.Analyzer, opts Options, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analyzer: analyzer,
		opts:     opts,
		logger:   logger,
	}
}

func (h *PageHandlers) props() templates.DashboardProps {
	return templates.DashboardProps{
		Categories:          h.analyzer.Categories().Bands(),
		DefaultCategory:     h.opts.DefaultCategory,
		DefaultTargetGrowth: h.opts.DefaultTargetGrowth,
		DefaultManualRate:   h.opts.DefaultManualRate,
		Format:              h.opts.Format,
	}
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	h.renderPage(w, r, http.StatusOK, h.props())
}

func (h *PageHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	props := h.props()
	status := http.StatusOK

	in, err := parseAnalysisForm(w, r, h.opts)
	if err == nil {
		props.Report, err = h.analyzer.Analyze(r.Context(), in)
	}
	if err != nil {
		appErr := errors.FromDomain(err)
		h.logger.Warn("analysis rejected", "error_code", appErr.Code, "error", err)
		props.Error = errorMessage(appErr)
		status = appErr.StatusCode
	}

	w.Header().Set("Cache-Control", "no-store")
	h.renderPage(w, r, status, props)
}

func (h *PageHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, props templates.DashboardProps) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	html, err := render(ctx, templates.Dashboard(props))
	if err != nil {
		h.logger.Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(html))
}
