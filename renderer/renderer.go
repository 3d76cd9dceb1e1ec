// Package renderer turns the portfolio into markdown reports, and markdown
// into terminal or HTML output.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/kite"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var templatesFS embed.FS

var templates, _ = fs.Sub(templatesFS, "templates")

var funcs = template.FuncMap{
	"pct": func(d decimal.Decimal) string { return d.StringFixed(2) + "%" },
	"signedPct": func(d decimal.Decimal) string {
		if d.IsPositive() {
			return "+" + d.StringFixed(2) + "%"
		}
		return d.StringFixed(2) + "%"
	},
	"nt":       func(d decimal.Decimal) string { return kite.NT(d).String() },
	"ntSigned": func(d decimal.Decimal) string { return kite.NT(d).SignedString() },
}

// the sections shared by every page.
var sections = map[string]string{
	"totals":         "totals.md",
	"sync":           "sync.md",
	"holdings_table": "holdings_table.md",
	"history_table":  "history_table.md",
}

// RenderSummary renders the totals and the sync state.
func RenderSummary(d *Dashboard) string {
	return renderTemplate("summary", "summary.md", sections, d)
}

// RenderHoldings renders the holdings table.
func RenderHoldings(d *Dashboard) string {
	return renderTemplate("holdings", "holdings.md", sections, d)
}

// RenderHistory renders the settled snapshots, newest first.
func RenderHistory(d *Dashboard) string {
	return renderTemplate("history", "history.md", sections, d)
}

// RenderReport renders every section in a single document.
func RenderReport(d *Dashboard) string {
	return renderTemplate("report", "report.md", sections, d)
}

// RenderSyncStatus renders the outcome of one price sync.
func RenderSyncStatus(s kite.SyncStatus) string {
	return renderTemplate("sync_status", "sync_status.md", nil, s)
}

// renderTemplate renders a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
