package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"monotributo-dashboard/internal/models"
	"monotributo-dashboard/internal/services"
	"monotributo-dashboard/internal/ui/templates"
)

const (
	testHeader  = "Fecha de Emisión;Tipo de Comprobante;Punto de Venta;Número Desde;Número Hasta;Nro. Doc. Receptor;Denominación Receptor;Moneda;Imp. Total"
	currentRows = "2024-01-10;11;3;101;101;20123456789;ACME SA;PES;1.000,00\n" +
		"2024-01-20;11;3;102;102;00012345;Beta SRL;PES;500,50\n" +
		"2024-02-05;13;3;5;5;20123456789;ACME SA;PES;200,00\n" +
		"2024-03-15;11;3;103;103;20999999999;Gamma;PES;2.000,00\n"
	priorRows = "2023-01-10;11;3;50;50;20123456789;ACME SA;PES;1.000,00\n" +
		"2023-03-10;11;3;51;51;20123456789;ACME SA;PES;1.000,00\n"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testOptions(t *testing.T) Options {
	t.Helper()
	format, err := templates.NewFormatter("es-AR")
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}
	return Options{
		MaxUploadBytes:      1 << 20,
		DefaultCategory:     "A",
		DefaultTargetGrowth: 10,
		DefaultManualRate:   5,
		Format:              format,
	}
}

func createTestAnalyzer() *services.Analyzer {
	return services.NewAnalyzer(nil, services.WithLogger(testLogger()))
}

// uploadForm builds a multipart body. Files with empty content are left
// out of the form.
func uploadForm(t *testing.T, fields map[string]string, files map[string]string) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for field, content := range files {
		if content == "" {
			continue
		}
		fw, err := mw.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, mw.FormDataContentType()
}

func fullUpload(t *testing.T, category string) (io.Reader, string) {
	t.Helper()
	return uploadForm(t,
		map[string]string{formTaxpayer: "Juan Pérez", formCategory: category},
		map[string]string{formCurrentFile: testHeader + "\n" + currentRows, formPriorFile: testHeader + "\n" + priorRows},
	)
}

type analysisResponse struct {
	Success bool          `json:"success"`
	Data    models.Report `json:"data"`
}

type errorResponse struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func TestNewAPIHandlers(t *testing.T) {
	analyzer := createTestAnalyzer()
	logger := testLogger()
	handlers := NewAPIHandlers(analyzer, testOptions(t), logger)

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analyzer != analyzer {
		t.Error("NewAPIHandlers() should set analyzer field")
	}
	if handlers.logger != logger {
		t.Error("NewAPIHandlers() should set logger field")
	}
}

func TestAPIHandlers_HandleAnalysis(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalyzer(), testOptions(t), testLogger())

	body, contentType := fullUpload(t, "A")
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	handlers.HandleAnalysis(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected cache-control 'no-store', got %q", cc)
	}

	var response analysisResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if !response.Success {
		t.Error("expected success=true in response")
	}

	report := response.Data
	if !report.Complete || report.Taxpayer != "Juan Pérez" {
		t.Errorf("report = complete %v taxpayer %q", report.Complete, report.Taxpayer)
	}
	if !report.Current.KPIs.Total.Equal(decimal.RequireFromString("3300.50")) {
		t.Errorf("current total = %s, want 3300.50", report.Current.KPIs.Total)
	}
	if !report.Goals.Target.Total.Equal(decimal.RequireFromString("2200")) {
		t.Errorf("target total = %s, want 2200", report.Goals.Target.Total)
	}
	if len(report.Current.Monthly) != 3 || report.Current.Monthly[1].Month.String() != "2024-02" {
		t.Errorf("monthly = %+v", report.Current.Monthly)
	}
	if len(report.Seasonal) != 3 {
		t.Errorf("seasonal points = %d, want 3", len(report.Seasonal))
	}
}

func TestAPIHandlers_HandleAnalysis_Errors(t *testing.T) {
	tests := []struct {
		name        string
		fields      map[string]string
		files       map[string]string
		maxBytes    int64
		wantStatus  int
		wantCode    string
		wantDetails string
	}{
		{
			name:       "unknown category",
			fields:     map[string]string{formCategory: "Z"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "target growth not a number",
			fields:     map[string]string{formTargetGrowthPct: "diez"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "manual rate out of range",
			fields:     map[string]string{formRateMode: "manual", formManualRatePct: "-150"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:        "current file missing columns",
			files:       map[string]string{formCurrentFile: "Fecha;Importe\n2024-01-01;10\n"},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "SCHEMA_ERROR",
			wantDetails: "current",
		},
		{
			name:        "prior file bad date",
			files:       map[string]string{formPriorFile: testHeader + "\n01/02/2023;11;3;1;1;2011;A;PES;10,00\n"},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "PARSE_ERROR",
			wantDetails: "prior",
		},
		{
			name:       "upload too large",
			files:      map[string]string{formCurrentFile: testHeader + "\n" + strings.Repeat(currentRows, 20)},
			maxBytes:   512,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "PAYLOAD_TOO_LARGE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t)
			if tt.maxBytes > 0 {
				opts.MaxUploadBytes = tt.maxBytes
			}
			handlers := NewAPIHandlers(createTestAnalyzer(), opts, testLogger())

			body, contentType := uploadForm(t, tt.fields, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			handlers.HandleAnalysis(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			var response errorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			if response.Success {
				t.Error("expected success=false in response")
			}
			if response.Error.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, response.Error.Code)
			}
			if response.Error.Details != tt.wantDetails {
				t.Errorf("expected details %q, got %q", tt.wantDetails, response.Error.Details)
			}
		})
	}
}

func TestAPIHandlers_HandleAnalysis_MalformedMultipart(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"missing boundary", "multipart/form-data", "taxpayer=Ana"},
		{"truncated body", "multipart/form-data; boundary=xyz", "--xyz\r\nContent-Disposition: form-data; name=\"taxpayer\"\r\n\r\nAna"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := NewAPIHandlers(createTestAnalyzer(), testOptions(t), testLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			handlers.HandleAnalysis(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
			}
			var response errorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			if response.Error.Code != "BAD_REQUEST" {
				t.Errorf("expected code BAD_REQUEST, got %q", response.Error.Code)
			}
		})
	}
}

func TestAPIHandlers_HandleAnalysis_URLEncodedForm(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalyzer(), testOptions(t), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis", strings.NewReader("taxpayer=Ana&category=B&target_growth_pct=12,5"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	handlers.HandleAnalysis(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var response analysisResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if response.Data.Complete {
		t.Error("report without files should not be complete")
	}
	if response.Data.Category.Current != "B" {
		t.Errorf("category = %q, want B", response.Data.Category.Current)
	}
	if !response.Data.Goals.Target.TargetGrowthPct.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("target growth = %s, want 12.5", response.Data.Goals.Target.TargetGrowthPct)
	}
	if len(response.Data.Notes) == 0 {
		t.Error("expected a note about the undefined target rate")
	}
}

func TestAPIHandlers_HandleCategories(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalyzer(), testOptions(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()

	handlers.HandleCategories(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
	}

	var response struct {
		Success bool                  `json:"success"`
		Data    []models.CategoryBand `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if len(response.Data) != 11 {
		t.Fatalf("expected 11 categories, got %d", len(response.Data))
	}
	if response.Data[0].Label != "A" || !response.Data[0].Ceiling.Equal(decimal.RequireFromString("7813063.45")) {
		t.Errorf("first category = %+v", response.Data[0])
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalyzer(), testOptions(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	// Health endpoint should NOT have cache-control header
	if cc := w.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("health endpoint should not set cache-control, got %q", cc)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected health data in response")
	}
	if status, ok := data["status"].(string); !ok || status != "healthy" {
		t.Errorf("expected status 'healthy', got %q", status)
	}
	if timestamp, ok := data["timestamp"].(string); !ok || timestamp == "" {
		t.Error("expected non-empty timestamp")
	} else if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		t.Errorf("invalid timestamp format: %v", err)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	analyzer := createTestAnalyzer()
	handlers := NewAPIHandlers(analyzer, testOptions(t), testLogger())

	body, contentType := fullUpload(t, "K")
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", body)
	req.Header.Set("Content-Type", contentType)
	handlers.HandleAnalysis(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	handlers.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if analyses, ok := response.Data["analyses"].(float64); !ok || analyses != 1 {
		t.Errorf("expected analyses=1, got %v", response.Data["analyses"])
	}
	if _, ok := response.Data["last_analysis"]; !ok {
		t.Error("expected last_analysis in stats")
	}
}
