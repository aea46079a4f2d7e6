package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"monotributo-dashboard/internal/config"
	"monotributo-dashboard/internal/handlers"
	"monotributo-dashboard/internal/middleware"
	"monotributo-dashboard/internal/observability"
	"monotributo-dashboard/internal/server"
	"monotributo-dashboard/internal/services"
	"monotributo-dashboard/internal/ui/templates"
)

func loadCategories(cfg config.AnalysisConfig, logger *slog.Logger) (*services.CategoryTable, error) {
	if cfg.CategoryFile == "" {
		return services.DefaultCategoryTable(), nil
	}
	table, err := services.LoadCategoryTable(cfg.CategoryFile)
	if err != nil {
		return nil, err
	}
	logger.Info("category table loaded", "file", cfg.CategoryFile, "categories", table.Labels())
	return table, nil
}

func newHandler(cfg *config.Config, logger *slog.Logger, analyzer *services.Analyzer, format *templates.Formatter, limiter *middleware.RateLimiter) http.Handler {
	srv := server.NewServer(analyzer, logger, handlers.Options{
		MaxUploadBytes:      cfg.Analysis.MaxUploadBytes,
		DefaultCategory:     cfg.Analysis.DefaultCategory,
		DefaultTargetGrowth: cfg.Analysis.DefaultTargetGrowth,
		DefaultManualRate:   cfg.Analysis.DefaultManualRate,
		Format:              format,
	})

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
	)

	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	categories, err := loadCategories(cfg.Analysis, logger)
	if err != nil {
		logger.Error("failed to load category table", "error", err)
		os.Exit(1)
	}
	if _, ok := categories.Ceiling(cfg.Analysis.DefaultCategory); !ok {
		logger.Error("default category not in table", "category", cfg.Analysis.DefaultCategory)
		os.Exit(1)
	}

	format, err := templates.NewFormatter(cfg.Analysis.Locale)
	if err != nil {
		logger.Error("invalid locale", "error", err)
		os.Exit(1)
	}

	analyzer := services.NewAnalyzer(categories,
		services.WithLogger(logger),
		services.WithTopClients(cfg.Analysis.TopClients),
	)

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	go rateLimiter.Run(limiterCtx)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, logger, analyzer, format, rateLimiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook("rate-limiter", func(ctx context.Context) error {
		stopLimiter()
		return nil
	})
	gracefulServer.RegisterShutdownHook("analyzer-stats", func(ctx context.Context) error {
		logger.Info("analyzer stats at shutdown", "stats", analyzer.Stats())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
