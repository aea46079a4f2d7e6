package models

import "github.com/shopspring/decimal"

type GoalRateMode string

const (
	RateModeAuto   GoalRateMode = "auto"
	RateModeManual GoalRateMode = "manual"
)

type GoalStatus string

const (
	StatusMet    GoalStatus = "met"
	StatusNear   GoalStatus = "near"
	StatusNotMet GoalStatus = "not_met"
)

// Label is the dashboard wording of the status.
func (s GoalStatus) Label() string {
	switch s {
	case StatusMet:
		return "✅ Cumplido"
	case StatusNear:
		return "⚠️ Cerca"
	default:
		return "❌ No cumplido"
	}
}

type KPI string

const (
	KPITotal          KPI = "total"
	KPIMonthlyAverage KPI = "monthly_average"
	KPIGrowthRate     KPI = "growth_rate"
)

func (k KPI) Label() string {
	switch k {
	case KPITotal:
		return "Facturación Total"
	case KPIMonthlyAverage:
		return "Facturación Promedio Mensual"
	case KPIGrowthRate:
		return "Tasa de Crecimiento Promedio Mensual"
	default:
		return string(k)
	}
}

// Unit tells the presentation how to format a KPI value.
type Unit string

const (
	UnitAmount  Unit = "amount"
	UnitPercent Unit = "percent"
)

type GoalTarget struct {
	PriorTotal      decimal.Decimal `json:"prior_total"`
	TargetGrowthPct decimal.Decimal `json:"target_growth_pct"`
	Total           decimal.Decimal `json:"total"`
	MonthlyAverage  decimal.Decimal `json:"monthly_average"`
	RateMode        GoalRateMode    `json:"rate_mode"`
	GrowthRate      *float64        `json:"growth_rate_pct"`
}

type GoalComparison struct {
	KPI        KPI                 `json:"kpi"`
	Unit       Unit                `json:"unit"`
	Actual     decimal.Decimal     `json:"actual"`
	Target     decimal.NullDecimal `json:"target"`
	Attainment *float64            `json:"attainment_pct"`
	Status     GoalStatus          `json:"status"`
}

type GapAnalysis struct {
	KPI            KPI                 `json:"kpi"`
	Unit           Unit                `json:"unit"`
	Gap            decimal.NullDecimal `json:"gap"`
	Shortfall      bool                `json:"shortfall"`
	Interpretation string              `json:"interpretation"`
}

type GoalReport struct {
	Target      GoalTarget       `json:"target"`
	Comparisons []GoalComparison `json:"comparisons"`
	Gaps        []GapAnalysis    `json:"gaps"`
}
