package handlers

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"monotributo-dashboard/internal/models"
	"monotributo-dashboard/internal/services"
	"monotributo-dashboard/internal/ui/templates"
)

const (
	formTaxpayer        = "taxpayer"
	formCategory        = "category"
	formCurrentFile     = "current_file"
	formPriorFile       = "prior_file"
	formTargetGrowthPct = "target_growth_pct"
	formRateMode        = "rate_mode"
	formManualRatePct   = "manual_rate_pct"

	multipartMemory = 4 << 20
)

// Options carries the request limits and form defaults shared by the
// API, SSE and page handlers.
type Options struct {
	MaxUploadBytes      int64
	DefaultCategory     string
	DefaultTargetGrowth float64
	DefaultManualRate   float64
	Format              *templates.Formatter
}

// parseAnalysisForm reads the upload form. Missing files are nil readers;
// the body is capped at MaxUploadBytes.
func parseAnalysisForm(w http.ResponseWriter, r *http.Request, opts Options) (services.AnalysisInput, error) {
	if r.ContentLength > opts.MaxUploadBytes {
		return services.AnalysisInput{}, &http.MaxBytesError{Limit: opts.MaxUploadBytes}
	}
	r.Body = http.MaxBytesReader(w, r.Body, opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return services.AnalysisInput{}, err
		}
		if !stderrors.Is(err, http.ErrNotMultipart) {
			return services.AnalysisInput{}, &services.ValidationError{Field: "form", Message: err.Error()}
		}
		if err := r.ParseForm(); err != nil {
			return services.AnalysisInput{}, &services.ValidationError{Field: "form", Message: err.Error()}
		}
	}

	in := services.AnalysisInput{
		Taxpayer: strings.TrimSpace(r.FormValue(formTaxpayer)),
		Category: strings.TrimSpace(r.FormValue(formCategory)),
		Goals:    services.DefaultGoalParams(),
	}
	if in.Category == "" {
		in.Category = opts.DefaultCategory
	}

	in.Goals.TargetGrowthPct = decimal.NewFromFloat(opts.DefaultTargetGrowth)
	if v := formNumber(r, formTargetGrowthPct); v != "" {
		pct, err := decimal.NewFromString(v)
		if err != nil {
			return services.AnalysisInput{}, &services.ValidationError{Field: formTargetGrowthPct, Message: fmt.Sprintf("not a number: %q", v)}
		}
		in.Goals.TargetGrowthPct = pct
	}

	if mode := strings.TrimSpace(r.FormValue(formRateMode)); mode != "" {
		in.Goals.RateMode = models.GoalRateMode(mode)
	}

	in.Goals.ManualRatePct = opts.DefaultManualRate
	if v := formNumber(r, formManualRatePct); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return services.AnalysisInput{}, &services.ValidationError{Field: formManualRatePct, Message: fmt.Sprintf("not a number: %q", v)}
		}
		in.Goals.ManualRatePct = rate
	}

	var err error
	if in.Current, err = formFile(r, formCurrentFile); err != nil {
		return services.AnalysisInput{}, err
	}
	if in.Prior, err = formFile(r, formPriorFile); err != nil {
		return services.AnalysisInput{}, err
	}
	return in, nil
}

// formNumber accepts both "12.5" and "12,5".
func formNumber(r *http.Request, key string) string {
	return strings.Replace(strings.TrimSpace(r.FormValue(key)), ",", ".", 1)
}

// formFile buffers one upload. It returns a nil reader when the field is
// absent, or the form is not multipart, so that "not uploaded" stays
// distinguishable from an empty file.
func formFile(r *http.Request, key string) (io.Reader, error) {
	f, _, err := r.FormFile(key)
	if stderrors.Is(err, http.ErrMissingFile) || stderrors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, &services.ValidationError{Field: key, Message: err.Error()}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return bytes.NewReader(data), nil
}
