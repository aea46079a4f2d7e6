package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"monotributo-dashboard/internal/models"
)

// Column names of the "Mis Comprobantes - Emitidos" export.
const (
	ColIssueDate        = "Fecha de Emisión"
	ColVoucherType      = "Tipo de Comprobante"
	ColPointOfSale      = "Punto de Venta"
	ColNumberFrom       = "Número Desde"
	ColNumberTo         = "Número Hasta"
	ColCounterpartyID   = "Nro. Doc. Receptor"
	ColCounterpartyName = "Denominación Receptor"
	ColTotalAmount      = "Imp. Total"
)

const (
	fieldDelimiter = ';'
	issueDateFmt   = "YYYY-MM-DD"
)

var requiredColumns = []string{
	ColIssueDate,
	ColVoucherType,
	ColPointOfSale,
	ColNumberFrom,
	ColNumberTo,
	ColCounterpartyID,
	ColCounterpartyName,
	ColTotalAmount,
}

// NormalizeCSV reads a semicolon-delimited export with comma decimals and
// returns its rows as typed records, credit notes negated. A nil reader
// stands for "no file uploaded" and yields an empty table.
func NormalizeCSV(r io.Reader) ([]models.InvoiceRecord, error) {
	records := make([]models.InvoiceRecord, 0)
	if r == nil {
		return records, nil
	}

	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.Comma = fieldDelimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{Missing: append([]string(nil), requiredColumns...)}
	}
	if err != nil {
		return nil, csvParseError(err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}

		line, _ := reader.FieldPos(0)
		rec, err := parseRecord(row, index, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(norm.NFC.String(name))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return index, nil
}

func parseRecord(row []string, index map[string]int, line int) (models.InvoiceRecord, error) {
	field := func(col string) (string, error) {
		i := index[col]
		if i >= len(row) {
			return "", &ParseError{Line: line, Column: col, Err: fmt.Errorf("row has %d fields", len(row))}
		}
		return strings.TrimSpace(row[i]), nil
	}

	values := make(map[string]string, len(requiredColumns))
	for _, col := range requiredColumns {
		v, err := field(col)
		if err != nil {
			return models.InvoiceRecord{}, err
		}
		values[col] = v
	}

	date, err := civil.ParseDate(values[ColIssueDate])
	if err != nil {
		return models.InvoiceRecord{}, &ParseError{
			Line:   line,
			Column: ColIssueDate,
			Value:  values[ColIssueDate],
			Err:    fmt.Errorf("expected %s", issueDateFmt),
		}
	}

	voucherType, err := parseVoucherType(values[ColVoucherType])
	if err != nil {
		return models.InvoiceRecord{}, &ParseError{Line: line, Column: ColVoucherType, Value: values[ColVoucherType], Err: err}
	}

	amount, err := ParseLocaleAmount(values[ColTotalAmount])
	if err != nil {
		return models.InvoiceRecord{}, &ParseError{Line: line, Column: ColTotalAmount, Value: values[ColTotalAmount], Err: err}
	}

	rec := models.InvoiceRecord{
		IssueDate:        date,
		VoucherType:      voucherType,
		PointOfSale:      values[ColPointOfSale],
		NumberFrom:       values[ColNumberFrom],
		NumberTo:         values[ColNumberTo],
		CounterpartyID:   values[ColCounterpartyID],
		CounterpartyName: values[ColCounterpartyName],
		TotalAmount:      amount,
	}
	if rec.IsCreditNote() {
		rec.TotalAmount = rec.TotalAmount.Neg()
	}
	return rec, nil
}

// parseVoucherType accepts the bare code ("13") and the labelled form some
// exports use ("13 - Nota de Crédito C").
func parseVoucherType(s string) (int, error) {
	code, label, labelled := strings.Cut(strings.TrimSpace(s), " - ")
	if !isDigits(code) || (labelled && strings.TrimSpace(label) == "") {
		return 0, errors.New("not a voucher code")
	}
	return strconv.Atoi(code)
}

// ParseLocaleAmount parses "1.234.567,89": period thousands, comma decimals.
// Exponents and currency symbols are rejected.
func ParseLocaleAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	unsigned := strings.TrimPrefix(s, "-")
	if !isDigits(strings.NewReplacer(".", "", ",", "").Replace(unsigned)) {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	return decimal.NewFromString(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func csvParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Err: err}
}
