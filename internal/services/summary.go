package services

import (
	"time"

	"github.com/shopspring/decimal"

	"monotributo-dashboard/internal/models"
)

// MonthNames labels calendar months, January first. Callers pass the table
// explicitly; there is no process-wide locale.
type MonthNames [12]string

var SpanishMonthNames = MonthNames{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

func (n MonthNames) Label(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return n[m-1]
}

// CreditNotes collects the credit-note rows. Their total is negative once
// normalized.
func CreditNotes(records []models.InvoiceRecord) models.CreditNoteSummary {
	summary := models.CreditNoteSummary{Records: make([]models.InvoiceRecord, 0)}
	for _, rec := range records {
		if rec.IsCreditNote() {
			summary.Records = append(summary.Records, rec)
			summary.Total = summary.Total.Add(rec.TotalAmount)
		}
	}
	return summary
}

func Summarize(series []models.MonthlyBucket, status models.CategoryStatus) models.BillingSummary {
	s := models.BillingSummary{
		Total:     Total(series),
		Ceiling:   status.Ceiling,
		Excess:    status.Excess,
		Available: status.Margin,
	}
	if len(series) == 0 {
		return s
	}

	s.MaxMonthly = series[0].TotalAmount
	for _, b := range series[1:] {
		s.MaxMonthly = decimal.Max(s.MaxMonthly, b.TotalAmount)
	}
	s.Period = &models.Period{Start: series[0].Month, End: series[len(series)-1].Month}
	return s
}

// CompareSeasons lines up both periods by calendar month, January to
// December, keeping only months billed in either period. When a period
// spans the same calendar month twice the amounts are added.
func CompareSeasons(current, prior []models.MonthlyBucket, names MonthNames) []models.SeasonalPoint {
	var cur, pri [13]decimal.NullDecimal
	fold := func(dst *[13]decimal.NullDecimal, series []models.MonthlyBucket) {
		for _, b := range series {
			slot := &dst[b.Month.Month]
			slot.Decimal = slot.Decimal.Add(b.TotalAmount)
			slot.Valid = true
		}
	}
	fold(&cur, current)
	fold(&pri, prior)

	points := make([]models.SeasonalPoint, 0, 12)
	for m := time.January; m <= time.December; m++ {
		if !cur[m].Valid && !pri[m].Valid {
			continue
		}
		points = append(points, models.SeasonalPoint{
			Month:   m,
			Label:   names.Label(m),
			Current: cur[m],
			Prior:   pri[m],
		})
	}
	return points
}
