package templates

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"monotributo-dashboard/internal/models"
)

const undefinedValue = "—"

// Formatter renders amounts and percentages for one locale.
type Formatter struct {
	printer *message.Printer
}

func NewFormatter(locale string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return &Formatter{printer: message.NewPrinter(tag)}, nil
}

func (f *Formatter) Money(d decimal.Decimal) string {
	return f.printer.Sprintf("$%.2f", d.InexactFloat64())
}

func (f *Formatter) MoneyPtr(d *decimal.Decimal) string {
	if d == nil {
		return undefinedValue
	}
	return f.Money(*d)
}

func (f *Formatter) Percent(p *float64) string {
	if p == nil {
		return undefinedValue
	}
	return f.printer.Sprintf("%.2f%%", *p)
}

func (f *Formatter) Attainment(p *float64) string {
	if p == nil {
		return undefinedValue
	}
	return f.printer.Sprintf("%.1f%%", *p)
}

func (f *Formatter) Share(v decimal.NullDecimal) string {
	return f.Value(models.UnitPercent, v)
}

// Value formats a KPI value by unit; invalid values render as undefined.
func (f *Formatter) Value(unit models.Unit, v decimal.NullDecimal) string {
	if !v.Valid {
		return undefinedValue
	}
	if unit == models.UnitPercent {
		return f.printer.Sprintf("%.2f%%", v.Decimal.InexactFloat64())
	}
	return f.Money(v.Decimal)
}

func (f *Formatter) Actual(unit models.Unit, v decimal.Decimal) string {
	return f.Value(unit, decimal.NewNullDecimal(v))
}

func (f *Formatter) Int(n int) string {
	return f.printer.Sprintf("%d", n)
}
