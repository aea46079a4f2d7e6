package models

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// VoucherTypeCreditNote is the AFIP voucher code for "Nota de Crédito C".
const VoucherTypeCreditNote = 13

// InvoiceRecord is one normalized row of an issued-invoices export.
type InvoiceRecord struct {
	IssueDate        civil.Date      `json:"issue_date"`
	VoucherType      int             `json:"voucher_type"`
	PointOfSale      string          `json:"point_of_sale"`
	NumberFrom       string          `json:"number_from"`
	NumberTo         string          `json:"number_to"`
	CounterpartyID   string          `json:"counterparty_id"`
	CounterpartyName string          `json:"counterparty_name"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}

func (r InvoiceRecord) IsCreditNote() bool {
	return r.VoucherType == VoucherTypeCreditNote
}

func (r InvoiceRecord) Month() YearMonth {
	return YearMonth{Year: r.IssueDate.Year, Month: r.IssueDate.Month}
}

// YearMonth keys the monthly series. The day is discarded.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m YearMonth) Before(o YearMonth) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

func (m YearMonth) Compare(o YearMonth) int {
	switch {
	case m.Before(o):
		return -1
	case o.Before(m):
		return 1
	default:
		return 0
	}
}

func (m YearMonth) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *YearMonth) UnmarshalText(text []byte) error {
	t, err := time.Parse("2006-01", string(text))
	if err != nil {
		return fmt.Errorf("parse year-month %q: %w", text, err)
	}
	m.Year, m.Month = t.Year(), t.Month()
	return nil
}
