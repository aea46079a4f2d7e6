package server

import (
	"log/slog"
	"net/http"

	"monotributo-dashboard/internal/handlers"
	"monotributo-dashboard/internal/services"
)

type Server struct {
	analyzer     *services.Analyzer
	mux          *http.ServeMux
	logger       *slog.Logger
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
}

func NewServer(analyzer *services.Analyzer, logger *slog.Logger, opts handlers.Options) *Server {
	s := &Server{
		analyzer:     analyzer,
		mux:          http.NewServeMux(),
		logger:       logger,
		apiHandlers:  handlers.NewAPIHandlers(analyzer, opts, logger),
		sseHandlers:  handlers.NewSSEHandlers(analyzer, opts, logger),
		pageHandlers: handlers.NewPageHandlers(analyzer, opts, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("POST /report", s.pageHandlers.HandleReport)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("POST /api/analysis", s.apiHandlers.HandleAnalysis)
	s.mux.HandleFunc("GET /api/categories", s.apiHandlers.HandleCategories)

	// Datastar SSE endpoints
	s.mux.HandleFunc("POST /sse/analyze", s.sseHandlers.HandleAnalyze)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
