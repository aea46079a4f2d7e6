package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"monotributo-dashboard/internal/models"
	"monotributo-dashboard/internal/observability"
)

const (
	noteCurrentGrowthUndefined = "tasa de crecimiento actual no definida: el primer mes facturado es cero"
	notePriorGrowthUndefined   = "tasa de crecimiento del período anterior no definida: el primer mes facturado es cero"
	noteTargetRateUndefined    = "tasa objetivo no definida: la facturación del período anterior es cero"
)

// AnalysisInput is one analysis request. A nil reader means the file was
// not uploaded, which is a valid empty period.
type AnalysisInput struct {
	Taxpayer string
	Category string
	Goals    GoalParams
	Current  io.Reader
	Prior    io.Reader
}

// Analyzer runs the billing pipeline. It holds no per-analysis state; every
// call recomputes the report from its input.
type Analyzer struct {
	categories *CategoryTable
	topClients int
	monthNames MonthNames
	logger     *slog.Logger

	analyses atomic.Int64
	failures atomic.Int64
	lastRun  atomic.Int64
}

type AnalyzerOption func(*Analyzer)

func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = logger }
}

func WithTopClients(n int) AnalyzerOption {
	return func(a *Analyzer) { a.topClients = n }
}

func WithMonthNames(names MonthNames) AnalyzerOption {
	return func(a *Analyzer) { a.monthNames = names }
}

func NewAnalyzer(categories *CategoryTable, opts ...AnalyzerOption) *Analyzer {
	if categories == nil {
		categories = DefaultCategoryTable()
	}
	a := &Analyzer{
		categories: categories,
		topClients: DefaultTopClients,
		monthNames: SpanishMonthNames,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Categories() *CategoryTable {
	return a.categories
}

func (a *Analyzer) Analyze(ctx context.Context, in AnalysisInput) (*models.Report, error) {
	report, err := a.analyze(ctx, in)
	a.lastRun.Store(time.Now().UnixNano())
	if err != nil {
		a.failures.Add(1)
		return nil, err
	}
	a.analyses.Add(1)
	return report, nil
}

func (a *Analyzer) analyze(ctx context.Context, in AnalysisInput) (*models.Report, error) {
	ctx, span := observability.StartSpan(ctx, "analysis")
	defer func() {
		span.Finish()
		a.logger.Debug("analysis span finished", "span", span)
	}()

	if _, ok := a.categories.Ceiling(in.Category); !ok {
		err := &ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("unknown category %q, must be one of %s", in.Category, strings.Join(a.categories.Labels(), ", ")),
		}
		span.SetError(err)
		return nil, err
	}
	if err := in.Goals.Validate(); err != nil {
		span.SetError(err)
		return nil, err
	}

	current, prior, err := a.normalizeBoth(ctx, in.Current, in.Prior)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	report := &models.Report{
		ID:          uuid.NewString(),
		Taxpayer:    in.Taxpayer,
		Complete:    in.Current != nil && in.Prior != nil,
		GeneratedAt: time.Now().UTC(),
	}
	span.SetTag("analysis.id", report.ID)

	var notes []string
	report.Current, err = a.analyzePeriod(in.Current != nil, current)
	if errors.Is(err, ErrDivisionByZero) {
		notes = append(notes, noteCurrentGrowthUndefined)
	}
	report.Prior, err = a.analyzePeriod(in.Prior != nil, prior)
	if errors.Is(err, ErrDivisionByZero) {
		notes = append(notes, notePriorGrowthUndefined)
	}

	report.Category, err = EvaluateCategory(report.Current.Accumulated, in.Category, a.categories)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	report.Summary = Summarize(report.Current.Monthly, report.Category)
	report.Clients = BuildClientReport(current, a.topClients)
	report.CreditNotes = CreditNotes(current)
	report.Seasonal = CompareSeasons(report.Current.Monthly, report.Prior.Monthly, a.monthNames)

	target, err := ProjectGoals(report.Prior.KPIs.Total, in.Goals)
	if errors.Is(err, ErrDivisionByZero) {
		notes = append(notes, noteTargetRateUndefined)
	}
	actual := ActualsFrom(report.Current.KPIs)
	report.Goals = models.GoalReport{
		Target:      target,
		Comparisons: CompareGoals(actual, target),
		Gaps:        AnalyzeGaps(actual, target),
	}
	report.Notes = notes

	for _, note := range notes {
		a.logger.Warn("analysis value undefined", "analysis_id", report.ID, "note", note)
	}
	a.logger.Info("analysis completed",
		"analysis_id", report.ID,
		"request_id", observability.GetRequestID(ctx),
		"current_records", report.Current.RecordCount,
		"prior_records", report.Prior.RecordCount,
		"category", report.Category.Current,
		"exceeded", report.Category.Exceeded,
	)
	return report, nil
}

// normalizeBoth parses both uploads in parallel. A failure in either file
// fails the whole analysis.
func (a *Analyzer) normalizeBoth(ctx context.Context, current, prior io.Reader) ([]models.InvoiceRecord, []models.InvoiceRecord, error) {
	var cur, pri []models.InvoiceRecord
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := a.normalize(ctx, RoleCurrent, current)
		cur = records
		return err
	})
	g.Go(func() error {
		records, err := a.normalize(ctx, RolePrior, prior)
		pri = records
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return cur, pri, nil
}

func (a *Analyzer) normalize(ctx context.Context, role FileRole, r io.Reader) ([]models.InvoiceRecord, error) {
	_, span := observability.StartSpan(ctx, "normalize."+string(role))
	defer func() {
		span.Finish()
		a.logger.Debug("normalize span finished", "span", span)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := NormalizeCSV(r)
	if err != nil {
		span.SetError(err)
		a.logger.Warn("normalization failed", "file", role, "error", err)
		return nil, &FileError{Role: role, Err: err}
	}

	a.logger.Debug("file normalized",
		"file", role,
		"provided", r != nil,
		"records", len(records),
		"duration", time.Since(start),
	)
	return records, nil
}

func (a *Analyzer) analyzePeriod(provided bool, records []models.InvoiceRecord) (models.PeriodAnalysis, error) {
	monthly := AggregateMonthly(records)
	kpis, err := ComputeKPIs(monthly)
	return models.PeriodAnalysis{
		Provided:    provided,
		Records:     records,
		RecordCount: len(records),
		Monthly:     monthly,
		KPIs:        kpis,
		Accumulated: Accumulated(monthly),
	}, err
}

// Stats reports service counters for monitoring.
func (a *Analyzer) Stats() map[string]any {
	stats := map[string]any{
		"analyses":    a.analyses.Load(),
		"failures":    a.failures.Load(),
		"categories":  len(a.categories.bands),
		"top_clients": a.topClients,
	}
	if last := a.lastRun.Load(); last > 0 {
		stats["last_analysis"] = time.Unix(0, last).UTC()
	}
	return stats
}
