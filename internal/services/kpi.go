package services

import (
	"math"

	"github.com/shopspring/decimal"

	"monotributo-dashboard/internal/models"
)

func Total(series []models.MonthlyBucket) decimal.Decimal {
	total := decimal.Zero
	for _, b := range series {
		total = total.Add(b.TotalAmount)
	}
	return total
}

// MonthlyAverage is the mean bucket total, nil for an empty series.
func MonthlyAverage(series []models.MonthlyBucket) *decimal.Decimal {
	if len(series) == 0 {
		return nil
	}
	avg := Total(series).Div(decimal.NewFromInt(int64(len(series))))
	return &avg
}

// AverageGrowthRate returns ((last/first)^(1/n) - 1) * 100 where n is the
// number of buckets. The exponent is 1/n, not 1/(n-1) intervals; reports
// already issued use this figure, so keep it.
//
// The rate is nil for fewer than two buckets and when last/first is
// negative. A zero first bucket returns ErrDivisionByZero.
func AverageGrowthRate(series []models.MonthlyBucket) (*float64, error) {
	n := len(series)
	if n < 2 {
		return nil, nil
	}
	first := series[0].TotalAmount
	last := series[n-1].TotalAmount
	if first.IsZero() {
		return nil, ErrDivisionByZero
	}

	ratio := last.Div(first).InexactFloat64()
	rate := (math.Pow(ratio, 1/float64(n)) - 1) * 100
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, nil
	}
	return &rate, nil
}

// ComputeKPIs evaluates the three headline figures. The error, if any, is
// ErrDivisionByZero from the growth rate; the other fields are still set.
func ComputeKPIs(series []models.MonthlyBucket) (models.KPISet, error) {
	rate, err := AverageGrowthRate(series)
	return models.KPISet{
		Total:          Total(series),
		MonthlyAverage: MonthlyAverage(series),
		GrowthRate:     rate,
	}, err
}
