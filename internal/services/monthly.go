package services

import (
	"slices"

	"github.com/shopspring/decimal"

	"monotributo-dashboard/internal/models"
)

// AggregateMonthly sums records per calendar month, ascending, with a
// running total in month order. Empty input gives an empty series.
func AggregateMonthly(records []models.InvoiceRecord) []models.MonthlyBucket {
	groups := make(map[models.YearMonth]decimal.Decimal)
	for _, rec := range records {
		m := rec.Month()
		groups[m] = groups[m].Add(rec.TotalAmount)
	}
	return sortMonthly(groups)
}

func sortMonthly(groups map[models.YearMonth]decimal.Decimal) []models.MonthlyBucket {
	result := make([]models.MonthlyBucket, 0, len(groups))
	for month, total := range groups {
		result = append(result, models.MonthlyBucket{Month: month, TotalAmount: total})
	}
	slices.SortFunc(result, func(a, b models.MonthlyBucket) int {
		return a.Month.Compare(b.Month)
	})

	running := decimal.Zero
	for i := range result {
		running = running.Add(result[i].TotalAmount)
		result[i].CumulativeAmount = running
	}
	return result
}

// Accumulated is the last cumulative value of the series, zero when empty.
func Accumulated(series []models.MonthlyBucket) decimal.Decimal {
	if len(series) == 0 {
		return decimal.Zero
	}
	return series[len(series)-1].CumulativeAmount
}
