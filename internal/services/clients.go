package services

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"monotributo-dashboard/internal/models"
)

const DefaultTopClients = 10

// AggregateClients groups records by counterparty name. Rows are ordered
// by total descending, then name.
func AggregateClients(records []models.InvoiceRecord) []models.ClientSummary {
	groups := make(map[string]*models.ClientSummary)
	for _, rec := range records {
		g := groups[rec.CounterpartyName]
		if g == nil {
			g = &models.ClientSummary{Name: rec.CounterpartyName}
			groups[rec.CounterpartyName] = g
		}
		g.TotalAmount = g.TotalAmount.Add(rec.TotalAmount)
		g.InvoiceCount++
	}

	result := make([]models.ClientSummary, 0, len(groups))
	for _, g := range groups {
		g.AveragePerInvoice = g.TotalAmount.Div(decimal.NewFromInt(int64(g.InvoiceCount))).Round(2)
		result = append(result, *g)
	}
	slices.SortFunc(result, func(a, b models.ClientSummary) int {
		if c := b.TotalAmount.Cmp(a.TotalAmount); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return result
}

// TopClients takes the n largest clients by total. Each share is a
// percentage of the sum of the returned rows only, rounded to cents; the
// last row takes the rounding remainder so the shares add up to exactly
// 100. Shares are null when that sum is zero.
func TopClients(summaries []models.ClientSummary, n int) []models.ClientShare {
	ranked := slices.Clone(summaries)
	slices.SortStableFunc(ranked, func(a, b models.ClientSummary) int {
		return b.TotalAmount.Cmp(a.TotalAmount)
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	subtotal := decimal.Zero
	for _, c := range ranked {
		subtotal = subtotal.Add(c.TotalAmount)
	}

	result := make([]models.ClientShare, 0, len(ranked))
	assigned := decimal.Zero
	for i, c := range ranked {
		share := models.ClientShare{ClientSummary: c}
		if !subtotal.IsZero() {
			pct := hundred.Sub(assigned)
			if i < len(ranked)-1 {
				pct = c.TotalAmount.Mul(hundred).Div(subtotal).Round(2)
			}
			assigned = assigned.Add(pct)
			share.SharePct = decimal.NewNullDecimal(pct)
		}
		result = append(result, share)
	}
	return result
}

func UniqueClients(records []models.InvoiceRecord) int {
	seen := make(map[string]struct{})
	for _, rec := range records {
		seen[rec.CounterpartyName] = struct{}{}
	}
	return len(seen)
}

// ClientInvoices returns the invoices issued to one client in file order.
func ClientInvoices(records []models.InvoiceRecord, name string) models.ClientDetail {
	detail := models.ClientDetail{Name: name, Invoices: make([]models.InvoiceRecord, 0)}
	for _, rec := range records {
		if rec.CounterpartyName != name {
			continue
		}
		detail.Invoices = append(detail.Invoices, rec)
		detail.TotalAmount = detail.TotalAmount.Add(rec.TotalAmount)
	}
	detail.InvoiceCount = len(detail.Invoices)
	return detail
}

// ClientDetails lists every client's invoices, clients sorted by name.
func ClientDetails(records []models.InvoiceRecord) []models.ClientDetail {
	names := make([]string, 0)
	seen := make(map[string]struct{})
	for _, rec := range records {
		if _, ok := seen[rec.CounterpartyName]; ok {
			continue
		}
		seen[rec.CounterpartyName] = struct{}{}
		names = append(names, rec.CounterpartyName)
	}
	slices.Sort(names)

	details := make([]models.ClientDetail, 0, len(names))
	for _, name := range names {
		details = append(details, ClientInvoices(records, name))
	}
	return details
}

// BuildClientReport assembles the client section for the top n clients.
func BuildClientReport(records []models.InvoiceRecord, n int) models.ClientReport {
	summaries := AggregateClients(records)
	return models.ClientReport{
		Summaries:   summaries,
		Top:         TopClients(summaries, n),
		UniqueCount: UniqueClients(records),
		Details:     ClientDetails(records),
	}
}
