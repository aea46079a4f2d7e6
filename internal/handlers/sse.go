package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"monotributo-dashboard/internal/errors"
	"monotributo-dashboard/internal/models"
	"monotributo-dashboard/internal/services"
	"monotributo-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	analyzer *services.Analyzer
	opts     Options
	logger   *slog.Logger
}

func NewSSEHandlers(analyzer *services.Analyzer, opts Options, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analyzer: analyzer,
		opts:     opts,
		logger:   logger,
	}
}

func render(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	err := c.Render(ctx, &buf)
	return buf.String(), err
}

// chartSignals is the subset of the report the dashboard charts bind to.
func chartSignals(report *models.Report) ([]byte, error) {
	return json.Marshal(map[string]any{
		"monthlyData":  report.Current.Monthly,
		"topClients":   report.Clients.Top,
		"seasonalData": report.Seasonal,
		"goals":        report.Goals.Comparisons,
	})
}

// HandleAnalyze reads the upload form, then streams the rendered report
// into #report. The form is consumed before the SSE stream opens.
func (h *SSEHandlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	in, err := parseAnalysisForm(w, r, h.opts)
	var report *models.Report
	if err == nil {
		report, err = h.analyzer.Analyze(r.Context(), in)
	}

	sse := datastar.NewSSE(w, r)

	if err != nil {
		appErr := errors.FromDomain(err)
		h.logger.Warn("analysis rejected", "error_code", appErr.Code, "error", err)
		html, renderErr := render(r.Context(), templates.ReportError(errorMessage(appErr)))
		if renderErr != nil {
			h.logger.Error("render error fragment", "error", renderErr)
			return
		}
		sse.PatchElements(html)
		return
	}

	html, err := render(r.Context(), templates.Report(report, h.opts.Format))
	if err != nil {
		h.logger.Error("render report", "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := chartSignals(report)
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func errorMessage(appErr *errors.AppError) string {
	if appErr.Details != "" {
		return appErr.Message + " (" + appErr.Details + ")"
	}
	return appErr.Message
}
