package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("Server.Port = %d, want 8084", cfg.Server.Port)
	}
	if cfg.Analysis.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.Analysis.MaxUploadBytes, 10<<20)
	}
	if cfg.Analysis.TopClients != 10 || cfg.Analysis.DefaultCategory != "A" {
		t.Errorf("Analysis = %+v", cfg.Analysis)
	}
	if cfg.Analysis.DefaultTargetGrowth != 10 || cfg.Analysis.DefaultManualRate != 5 {
		t.Errorf("goal defaults = %v/%v, want 10/5", cfg.Analysis.DefaultTargetGrowth, cfg.Analysis.DefaultManualRate)
	}
	if cfg.Analysis.Locale != "es-AR" {
		t.Errorf("Locale = %q, want es-AR", cfg.Analysis.Locale)
	}
	if cfg.Address() != "localhost:8084" {
		t.Errorf("Address() = %q", cfg.Address())
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("ANALYSIS_MAX_UPLOAD_BYTES", "2048")
	t.Setenv("ANALYSIS_DEFAULT_TARGET_GROWTH", "12.5")
	t.Setenv("ANALYSIS_CATEGORY_FILE", "/etc/monotributo/categorias.yaml")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Analysis.MaxUploadBytes != 2048 {
		t.Errorf("MaxUploadBytes = %d, want 2048", cfg.Analysis.MaxUploadBytes)
	}
	if cfg.Analysis.DefaultTargetGrowth != 12.5 {
		t.Errorf("DefaultTargetGrowth = %v, want 12.5", cfg.Analysis.DefaultTargetGrowth)
	}
	if cfg.Analysis.CategoryFile != "/etc/monotributo/categorias.yaml" {
		t.Errorf("CategoryFile = %q", cfg.Analysis.CategoryFile)
	}
	if len(cfg.Security.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.Security.AllowedOrigins)
	}
	if cfg.Logger.Format != "text" {
		t.Errorf("Logger.Format = %q", cfg.Logger.Format)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ANALYSIS_TOP_CLIENTS=5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("ANALYSIS_TOP_CLIENTS") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Analysis.TopClients != 5 {
		t.Errorf("TopClients = %d, want 5 from .env", cfg.Analysis.TopClients)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantMsg string
	}{
		{"SERVER_PORT", "70000", "server port"},
		{"ANALYSIS_TOP_CLIENTS", "0", "top clients"},
		{"ANALYSIS_DEFAULT_TARGET_GROWTH", "2000", "default target growth"},
		{"ANALYSIS_DEFAULT_MANUAL_RATE", "-101", "default manual rate"},
		{"LOG_LEVEL", "verbose", "invalid log level"},
		{"SECURITY_RATE_LIMIT_BURST", "-1", "rate limit burst"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}
