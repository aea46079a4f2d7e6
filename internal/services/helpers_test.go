package services

import (
	"math"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"monotributo-dashboard/internal/models"
)

const testHeader = "Fecha de Emisión;Tipo de Comprobante;Punto de Venta;Número Desde;Número Hasta;Nro. Doc. Receptor;Denominación Receptor;Moneda;Imp. Total"

func csvOf(rows ...string) string {
	return strings.Join(append([]string{testHeader}, rows...), "\n") + "\n"
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ym(year int, month int) models.YearMonth {
	return models.YearMonth{Year: year, Month: timeMonth(month)}
}

func invoice(day string, voucher int, client string, amount string) models.InvoiceRecord {
	return models.InvoiceRecord{
		IssueDate:        date(day),
		VoucherType:      voucher,
		CounterpartyName: client,
		TotalAmount:      dec(amount),
	}
}

func series(totals ...string) []models.MonthlyBucket {
	records := make([]models.InvoiceRecord, 0, len(totals))
	for i, t := range totals {
		records = append(records, models.InvoiceRecord{
			IssueDate:   civil.Date{Year: 2024, Month: timeMonth(i + 1), Day: 1},
			TotalAmount: dec(t),
		})
	}
	return AggregateMonthly(records)
}

func assertDecimal(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func assertFloat(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s = nil, want %v", name, want)
	}
	if math.Abs(*got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, *got, want)
	}
}

func timeMonth(m int) time.Month {
	return time.Month(m)
}
