package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MonthlyBucket struct {
	Month            YearMonth       `json:"month"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	CumulativeAmount decimal.Decimal `json:"cumulative_amount"`
}

// KPISet holds the headline figures of one period. Nil pointers mean the
// value is undefined for the series (empty, too short, zero base).
type KPISet struct {
	Total          decimal.Decimal  `json:"total"`
	MonthlyAverage *decimal.Decimal `json:"monthly_average"`
	GrowthRate     *float64         `json:"growth_rate_pct"`
}

type CategoryBand struct {
	Label   string          `json:"label" yaml:"label"`
	Ceiling decimal.Decimal `json:"ceiling" yaml:"ceiling"`
}

type CategoryStatus struct {
	Current     string          `json:"current"`
	Ceiling     decimal.Decimal `json:"ceiling"`
	Accumulated decimal.Decimal `json:"accumulated"`
	Margin      decimal.Decimal `json:"margin"`
	Excess      decimal.Decimal `json:"excess"`
	Exceeded    bool            `json:"exceeded"`
	// Recategorized is empty unless Exceeded and a band fits the accumulated billing.
	Recategorized    string `json:"recategorized,omitempty"`
	NoHigherCategory bool   `json:"no_higher_category"`
}

type ClientSummary struct {
	Name              string          `json:"name"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	InvoiceCount      int             `json:"invoice_count"`
	AveragePerInvoice decimal.Decimal `json:"average_per_invoice"`
}

type ClientShare struct {
	ClientSummary
	SharePct decimal.NullDecimal `json:"share_pct"`
}

type ClientDetail struct {
	Name         string          `json:"name"`
	Invoices     []InvoiceRecord `json:"invoices"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	InvoiceCount int             `json:"invoice_count"`
}

type ClientReport struct {
	Summaries   []ClientSummary `json:"summaries"`
	Top         []ClientShare   `json:"top"`
	UniqueCount int             `json:"unique_count"`
	Details     []ClientDetail  `json:"details"`
}

type CreditNoteSummary struct {
	Records []InvoiceRecord `json:"records"`
	Total   decimal.Decimal `json:"total"`
}

type Period struct {
	Start YearMonth `json:"start"`
	End   YearMonth `json:"end"`
}

func (p Period) String() string {
	return p.Start.String() + " a " + p.End.String()
}

type BillingSummary struct {
	Total      decimal.Decimal `json:"total"`
	MaxMonthly decimal.Decimal `json:"max_monthly"`
	Ceiling    decimal.Decimal `json:"ceiling"`
	Excess     decimal.Decimal `json:"excess"`
	Available  decimal.Decimal `json:"available"`
	Period     *Period         `json:"period"`
}

type SeasonalPoint struct {
	Month   time.Month          `json:"month"`
	Label   string              `json:"label"`
	Current decimal.NullDecimal `json:"current"`
	Prior   decimal.NullDecimal `json:"prior"`
}

type PeriodAnalysis struct {
	Provided    bool            `json:"provided"`
	Records     []InvoiceRecord `json:"-"`
	RecordCount int             `json:"record_count"`
	Monthly     []MonthlyBucket `json:"monthly"`
	KPIs        KPISet          `json:"kpis"`
	Accumulated decimal.Decimal `json:"accumulated"`
}

type Report struct {
	ID          string            `json:"id"`
	Taxpayer    string            `json:"taxpayer"`
	Complete    bool              `json:"complete"`
	Current     PeriodAnalysis    `json:"current"`
	Prior       PeriodAnalysis    `json:"prior"`
	Category    CategoryStatus    `json:"category"`
	Summary     BillingSummary    `json:"summary"`
	Clients     ClientReport      `json:"clients"`
	CreditNotes CreditNoteSummary `json:"credit_notes"`
	Goals       GoalReport        `json:"goals"`
	Seasonal    []SeasonalPoint   `json:"seasonal"`
	Notes       []string          `json:"notes,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}
