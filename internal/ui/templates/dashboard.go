package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"monotributo-dashboard/internal/models"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

// DashboardProps feeds the full page. Report and Error are both empty
// before the first upload.
type DashboardProps struct {
	Categories          []models.CategoryBand
	DefaultCategory     string
	DefaultTargetGrowth float64
	DefaultManualRate   float64
	Report              *models.Report
	Error               string
	Format              *Formatter
}

// ReportView is the data of the #report fragment.
type ReportView struct {
	Report *models.Report
	Error  string
	F      *Formatter
}

// View is the #report fragment data of the page.
func (p DashboardProps) View() ReportView {
	return ReportView{Report: p.Report, Error: p.Error, F: p.Format}
}

var funcs = template.FuncMap{
	"bar": func(v decimal.NullDecimal) string {
		if !v.Valid {
			return "0"
		}
		return v.Decimal.StringFixed(2)
	},
	"datastar": func() string { return datastarScript },
}

var pages = template.Must(template.New("page").Funcs(funcs).Parse(pageHTML))

func init() {
	template.Must(pages.New("report").Parse(reportHTML))
}

func Dashboard(props DashboardProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, "page", props)
	})
}

// Report renders the #report fragment patched in by the SSE endpoint.
func Report(report *models.Report, f *Formatter) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, "report", ReportView{Report: report, F: f})
	})
}

func ReportError(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, "report", ReportView{Error: message})
	})
}

const pageHTML = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Análisis de Monotributo</title>
<script type="module" src="{{datastar}}"></script>
</head>
<body>
<h1>📊 Análisis de Monotributo</h1>
<details>
<summary>ℹ️ Guía de Uso</summary>
<ol>
<li>Descargá el CSV de comprobantes emitidos de los últimos 12 meses desde Mis Comprobantes.</li>
<li>Descargá también el CSV del período anterior.</li>
<li>Subí ambos archivos, indicá tu nombre y categoría actual y enviá el formulario.</li>
</ol>
</details>
<form id="analysis-form" action="/report" method="post" enctype="multipart/form-data"
      data-on-submit="@post('/sse/analyze', {contentType: 'form'})">
<label>Nombre del Contribuyente <input type="text" name="taxpayer"></label>
<label>Categoría actual
<select name="category">
{{range .Categories}}<option value="{{.Label}}"{{if eq .Label $.DefaultCategory}} selected{{end}}>{{.Label}}</option>
{{end}}</select>
</label>
<label>CSV últimos 12 meses <input type="file" name="current_file" accept=".csv"></label>
<label>CSV período anterior <input type="file" name="prior_file" accept=".csv"></label>
<fieldset>
<legend>Objetivos de Facturación</legend>
<label>Crecimiento objetivo (%) <input type="number" name="target_growth_pct" min="0" max="1000" step="0.01" value="{{printf "%.2f" .DefaultTargetGrowth}}"></label>
<label><input type="radio" name="rate_mode" value="auto" checked> Calcular tasa automáticamente</label>
<label><input type="radio" name="rate_mode" value="manual"> Tasa manual</label>
<label>Tasa mensual objetivo (%) <input type="number" name="manual_rate_pct" min="-100" max="1000" step="0.01" value="{{printf "%.2f" .DefaultManualRate}}"></label>
</fieldset>
<button type="submit">Analizar</button>
</form>
{{template "report" .View}}
</body>
</html>`

const reportHTML = `<div id="report">
{{- if .Error}}
<div class="alert error" role="alert">{{.Error}}</div>
{{- else if not .Report}}
<div class="alert warning">Por favor, sube los archivos CSV para ver la información.</div>
{{- else if not .Report.Complete}}
<div class="alert warning">Por favor, sube los archivos CSV para ver la información.</div>
{{- else}}
{{- $r := .Report}}{{$f := .F}}
<section id="metrics">
<h2>Métricas de Facturación{{if $r.Taxpayer}} - {{$r.Taxpayer}}{{end}}</h2>
<dl>
<dt>Facturación Total</dt><dd>{{$f.Money $r.Current.KPIs.Total}}</dd>
<dt>Facturación Promedio Mensual</dt><dd>{{$f.MoneyPtr $r.Current.KPIs.MonthlyAverage}}</dd>
<dt>Tasa de Crecimiento Promedio Mensual</dt><dd>{{$f.Percent $r.Current.KPIs.GrowthRate}}</dd>
<dt>Margen de facturación</dt><dd>{{$f.Money $r.Category.Margin}} (categoría {{$r.Category.Current}})</dd>
</dl>
<progress max="{{$r.Category.Ceiling}}" value="{{$r.Category.Accumulated}}"></progress>
<p>Facturación acumulada {{$f.Money $r.Category.Accumulated}} / límite categoría {{$r.Category.Current}} {{$f.Money $r.Category.Ceiling}}</p>
{{- if $r.Category.Exceeded}}
{{- if $r.Category.NoHigherCategory}}
<div class="alert error"><strong>Alerta! Exceso de facturación.</strong> No hay una categoría superior disponible.</div>
{{- else}}
<div class="alert error"><strong>Alerta! Exceso de facturación.</strong> Con la facturación actual, queda encuadrado en la <strong>Categoría {{$r.Category.Recategorized}}</strong>.</div>
{{- end}}
{{- end}}
</section>
<section id="monthly">
<h2>Facturación mensual</h2>
<table>
<thead><tr><th>Mes</th><th>Facturación</th><th>Acumulado</th></tr></thead>
<tbody>
{{range $r.Current.Monthly}}<tr><td>{{.Month}}</td><td>{{$f.Money .TotalAmount}}</td><td>{{$f.Money .CumulativeAmount}}</td></tr>
{{end}}</tbody>
</table>
</section>
<section id="clients">
<h2>Facturación por cliente</h2>
<p>Número de clientes únicos en el año: {{$f.Int $r.Clients.UniqueCount}}</p>
<table>
<thead><tr><th>Cliente</th><th>Importe Total</th><th>Cantidad de Facturas</th><th>Promedio por Factura</th></tr></thead>
<tbody>
{{range $r.Clients.Summaries}}<tr><td>{{.Name}}</td><td>{{$f.Money .TotalAmount}}</td><td>{{.InvoiceCount}}</td><td>{{$f.Money .AveragePerInvoice}}</td></tr>
{{end}}</tbody>
</table>
<h3>Top {{len $r.Clients.Top}} Clientes por Facturación</h3>
<table>
<thead><tr><th>Cliente</th><th>Importe Total</th><th>Porcentaje</th></tr></thead>
<tbody>
{{range $r.Clients.Top}}<tr><td>{{.Name}}</td><td>{{$f.Money .TotalAmount}}</td><td><progress max="100" value="{{bar .SharePct}}"></progress> {{$f.Share .SharePct}}</td></tr>
{{end}}</tbody>
</table>
<details>
<summary>ℹ️ Detalle de Facturas por Cliente</summary>
{{range $r.Clients.Details}}<details class="client">
<summary>{{.Name}} ({{.InvoiceCount}})</summary>
<table>
<thead><tr><th>Fecha</th><th>Tipo</th><th>Punto de Venta</th><th>Número</th><th>Importe</th></tr></thead>
<tbody>
{{range .Invoices}}<tr><td>{{.IssueDate}}</td><td>{{.VoucherType}}</td><td>{{.PointOfSale}}</td><td>{{.NumberFrom}}</td><td>{{$f.Money .TotalAmount}}</td></tr>
{{end}}</tbody>
</table>
<p>Total Facturado: {{$f.Money .TotalAmount}} · Cantidad de Facturas: {{.InvoiceCount}}</p>
</details>
{{end}}</details>
</section>
<section id="credit-notes">
<details>
<summary>ℹ️ Detalle Notas de Crédito C</summary>
<table>
<thead><tr><th>Fecha</th><th>Cliente</th><th>Importe</th></tr></thead>
<tbody>
{{range $r.CreditNotes.Records}}<tr><td>{{.IssueDate}}</td><td>{{.CounterpartyName}}</td><td>{{$f.Money .TotalAmount}}</td></tr>
{{end}}</tbody>
</table>
<p>Total notas de crédito: {{$f.Money $r.CreditNotes.Total}}</p>
</details>
</section>
<section id="goals">
<h2>Comparativa con Objetivos</h2>
<p>Objetivo de Facturación Total: {{$f.Money $r.Goals.Target.Total}} · Objetivo Mensual Promedio: {{$f.Money $r.Goals.Target.MonthlyAverage}} · Tasa objetivo: {{$f.Percent $r.Goals.Target.GrowthRate}}</p>
<table>
<thead><tr><th>Métrica</th><th>Valor Actual</th><th>Objetivo</th><th>Cumplimiento</th><th>Estado</th></tr></thead>
<tbody>
{{range $r.Goals.Comparisons}}<tr class="status-{{.Status}}"><td>{{.KPI.Label}}</td><td>{{$f.Actual .Unit .Actual}}</td><td>{{$f.Value .Unit .Target}}</td><td>{{$f.Attainment .Attainment}}</td><td>{{.Status.Label}}</td></tr>
{{end}}</tbody>
</table>
<h2>Análisis de Brecha</h2>
<table>
<thead><tr><th>Métrica</th><th>Valor</th><th>Interpretación</th></tr></thead>
<tbody>
{{range $r.Goals.Gaps}}<tr><td>Brecha {{.KPI.Label}}</td><td>{{$f.Value .Unit .Gap}}</td><td>{{.Interpretation}}</td></tr>
{{end}}</tbody>
</table>
</section>
<section id="seasonal">
<h2>Comparación Mensual: Año Actual vs Año Anterior</h2>
{{- if and $r.Current.Monthly $r.Prior.Monthly}}
<table>
<thead><tr><th>Mes</th><th>Año Actual</th><th>Año Anterior</th></tr></thead>
<tbody>
{{range $r.Seasonal}}<tr><td>{{.Label}}</td><td>{{$f.Value "amount" .Current}}</td><td>{{$f.Value "amount" .Prior}}</td></tr>
{{end}}</tbody>
</table>
{{- else}}
<div class="alert warning">No hay suficientes datos para comparar la facturación mensual entre años.</div>
{{- end}}
</section>
<section id="summary">
<h2>Resumen de Facturación{{with $r.Summary.Period}} del período {{.}}{{end}}</h2>
<table>
<tbody>
<tr><td>Facturación Total</td><td>{{$f.Money $r.Summary.Total}}</td></tr>
<tr><td>Facturación Máxima Mensual</td><td>{{$f.Money $r.Summary.MaxMonthly}}</td></tr>
<tr><td>Límite de Categoría Actual</td><td>{{$f.Money $r.Summary.Ceiling}}</td></tr>
<tr><td>Exceso de Facturación</td><td>{{$f.Money $r.Summary.Excess}}</td></tr>
<tr><td>Facturación Disponible</td><td>{{$f.Money $r.Summary.Available}}</td></tr>
</tbody>
</table>
</section>
{{- range $r.Notes}}
<p class="note">{{.}}</p>
{{- end}}
{{- end}}
</div>`
