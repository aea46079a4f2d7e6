package models

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestYearMonth_Order(t *testing.T) {
	dec2023 := YearMonth{Year: 2023, Month: time.December}
	jan2024 := YearMonth{Year: 2024, Month: time.January}

	if !dec2023.Before(jan2024) || jan2024.Before(dec2023) {
		t.Error("December 2023 should sort before January 2024")
	}
	if dec2023.Compare(jan2024) != -1 || jan2024.Compare(dec2023) != 1 || jan2024.Compare(jan2024) != 0 {
		t.Error("Compare disagrees with Before")
	}
}

func TestYearMonth_Text(t *testing.T) {
	m := YearMonth{Year: 2024, Month: time.March}

	data, err := json.Marshal(map[string]YearMonth{"month": m})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"month":"2024-03"}` {
		t.Errorf("json = %s", data)
	}

	var back YearMonth
	if err := back.UnmarshalText([]byte("2024-03")); err != nil {
		t.Fatal(err)
	}
	if back != m {
		t.Errorf("UnmarshalText() = %v, want %v", back, m)
	}
	if err := back.UnmarshalText([]byte("03/2024")); err == nil {
		t.Error("UnmarshalText() should reject other layouts")
	}
}

func TestInvoiceRecord(t *testing.T) {
	r := InvoiceRecord{IssueDate: civil.Date{Year: 2024, Month: time.February, Day: 29}, VoucherType: VoucherTypeCreditNote}

	if !r.IsCreditNote() {
		t.Error("type 13 should be a credit note")
	}
	if got := r.Month(); got != (YearMonth{Year: 2024, Month: time.February}) {
		t.Errorf("Month() = %v", got)
	}

	r.VoucherType = 11
	if r.IsCreditNote() {
		t.Error("type 11 should not be a credit note")
	}
}
