package services

import (
	"math"

	"github.com/shopspring/decimal"

	"monotributo-dashboard/internal/models"
)

const (
	DefaultTargetGrowthPct = 10.0
	DefaultManualRatePct   = 5.0

	minTargetGrowthPct = 0.0
	maxTargetGrowthPct = 1000.0
	minManualRatePct   = -100.0
	maxManualRatePct   = 1000.0

	monthsPerYear = 12

	metThresholdPct  = 100.0
	nearThresholdPct = 85.0
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(monthsPerYear)
)

// GoalParams are the user's goal settings. ManualRatePct is only read in
// manual mode.
type GoalParams struct {
	TargetGrowthPct decimal.Decimal
	RateMode        models.GoalRateMode
	ManualRatePct   float64
}

func DefaultGoalParams() GoalParams {
	return GoalParams{
		TargetGrowthPct: decimal.NewFromFloat(DefaultTargetGrowthPct),
		RateMode:        models.RateModeAuto,
		ManualRatePct:   DefaultManualRatePct,
	}
}

func (p GoalParams) Validate() error {
	if p.TargetGrowthPct.LessThan(decimal.NewFromFloat(minTargetGrowthPct)) ||
		p.TargetGrowthPct.GreaterThan(decimal.NewFromFloat(maxTargetGrowthPct)) {
		return &ValidationError{Field: "target_growth_pct", Message: "must be between 0 and 1000"}
	}
	switch p.RateMode {
	case models.RateModeAuto:
	case models.RateModeManual:
		if math.IsNaN(p.ManualRatePct) || p.ManualRatePct < minManualRatePct || p.ManualRatePct > maxManualRatePct {
			return &ValidationError{Field: "manual_rate_pct", Message: "must be between -100 and 1000"}
		}
	default:
		return &ValidationError{Field: "rate_mode", Message: "must be auto or manual"}
	}
	return nil
}

// ProjectGoals derives the targets for the current period from the prior
// period total. In automatic mode the monthly rate is the compound rate
// that turns the prior total into the target over twelve months; a zero
// prior total leaves it nil and returns ErrDivisionByZero alongside the
// otherwise complete target.
func ProjectGoals(priorTotal decimal.Decimal, p GoalParams) (models.GoalTarget, error) {
	total := priorTotal.Mul(decimal.NewFromInt(1).Add(p.TargetGrowthPct.Div(hundred)))
	target := models.GoalTarget{
		PriorTotal:      priorTotal,
		TargetGrowthPct: p.TargetGrowthPct,
		Total:           total,
		MonthlyAverage:  total.Div(twelve),
		RateMode:        p.RateMode,
	}

	if p.RateMode == models.RateModeManual {
		rate := p.ManualRatePct
		target.GrowthRate = &rate
		return target, nil
	}

	if priorTotal.IsZero() {
		return target, ErrDivisionByZero
	}
	ratio := total.Div(priorTotal).InexactFloat64()
	rate := (math.Pow(ratio, 1.0/monthsPerYear) - 1) * 100
	if !math.IsNaN(rate) && !math.IsInf(rate, 0) {
		target.GrowthRate = &rate
	}
	return target, nil
}

// Actuals are the current-period KPIs as goal comparison sees them: an
// undefined KPI counts as zero.
type Actuals struct {
	Total          decimal.Decimal
	MonthlyAverage decimal.Decimal
	GrowthRate     float64
}

func ActualsFrom(k models.KPISet) Actuals {
	a := Actuals{Total: k.Total, MonthlyAverage: decimal.Zero}
	if k.MonthlyAverage != nil {
		a.MonthlyAverage = *k.MonthlyAverage
	}
	if k.GrowthRate != nil {
		a.GrowthRate = *k.GrowthRate
	}
	return a
}

func ClassifyAttainment(pct float64) models.GoalStatus {
	switch {
	case pct >= metThresholdPct:
		return models.StatusMet
	case pct >= nearThresholdPct:
		return models.StatusNear
	default:
		return models.StatusNotMet
	}
}

func classify(pct *float64) models.GoalStatus {
	if pct == nil {
		return models.StatusNotMet
	}
	return ClassifyAttainment(*pct)
}

// CompareGoals returns attainment (actual / target * 100) for total,
// monthly average and growth rate, in that order. Amount attainment is nil
// for a zero target. Growth attainment is 0 when the rate target is zero or
// undefined.
func CompareGoals(actual Actuals, target models.GoalTarget) []models.GoalComparison {
	total := amountAttainment(actual.Total, target.Total)
	monthly := amountAttainment(actual.MonthlyAverage, target.MonthlyAverage)

	growth := 0.0
	if target.GrowthRate != nil && *target.GrowthRate != 0 {
		growth = actual.GrowthRate / *target.GrowthRate * 100
	}

	return []models.GoalComparison{
		{
			KPI:        models.KPITotal,
			Unit:       models.UnitAmount,
			Actual:     actual.Total,
			Target:     decimal.NewNullDecimal(target.Total),
			Attainment: total,
			Status:     classify(total),
		},
		{
			KPI:        models.KPIMonthlyAverage,
			Unit:       models.UnitAmount,
			Actual:     actual.MonthlyAverage,
			Target:     decimal.NewNullDecimal(target.MonthlyAverage),
			Attainment: monthly,
			Status:     classify(monthly),
		},
		{
			KPI:        models.KPIGrowthRate,
			Unit:       models.UnitPercent,
			Actual:     decimal.NewFromFloat(actual.GrowthRate),
			Target:     nullRate(target.GrowthRate),
			Attainment: &growth,
			Status:     ClassifyAttainment(growth),
		},
	}
}

func amountAttainment(actual, target decimal.Decimal) *float64 {
	if target.IsZero() {
		return nil
	}
	pct := actual.Div(target).Mul(hundred).InexactFloat64()
	return &pct
}

func nullRate(rate *float64) decimal.NullDecimal {
	if rate == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*rate))
}

var gapWording = map[models.KPI][2]string{
	models.KPITotal:          {"Faltante para alcanzar el objetivo", "Superávit sobre el objetivo"},
	models.KPIMonthlyAverage: {"Faltante mensual promedio", "Superávit mensual promedio"},
	models.KPIGrowthRate:     {"Crecimiento adicional necesario", "Crecimiento por encima del objetivo"},
}

const gapUndefined = "Objetivo no definido"

// AnalyzeGaps returns target - actual per KPI. A positive gap is a
// shortfall; zero or negative is a surplus.
func AnalyzeGaps(actual Actuals, target models.GoalTarget) []models.GapAnalysis {
	gaps := []models.GapAnalysis{
		gapFor(models.KPITotal, models.UnitAmount, decimal.NewNullDecimal(target.Total.Sub(actual.Total))),
		gapFor(models.KPIMonthlyAverage, models.UnitAmount, decimal.NewNullDecimal(target.MonthlyAverage.Sub(actual.MonthlyAverage))),
	}

	rateGap := decimal.NullDecimal{}
	if target.GrowthRate != nil {
		rateGap = decimal.NewNullDecimal(decimal.NewFromFloat(*target.GrowthRate - actual.GrowthRate))
	}
	return append(gaps, gapFor(models.KPIGrowthRate, models.UnitPercent, rateGap))
}

func gapFor(kpi models.KPI, unit models.Unit, gap decimal.NullDecimal) models.GapAnalysis {
	g := models.GapAnalysis{KPI: kpi, Unit: unit, Gap: gap}
	if !gap.Valid {
		g.Interpretation = gapUndefined
		return g
	}
	g.Shortfall = gap.Decimal.IsPositive()
	if g.Shortfall {
		g.Interpretation = gapWording[kpi][0]
	} else {
		g.Interpretation = gapWording[kpi][1]
	}
	return g
}
