// Package render formats estimates for people: a printable HTML document
// for customers and a terminal report for the CLI.
package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const printStyle = "body{font-family:Arial,sans-serif;margin:24px;color:#111;} " +
	"h1,h2,h3{margin-bottom:8px;} .muted{color:#666;font-size:12px;} " +
	".totals{margin-top:20px;width:320px;margin-left:auto;border-collapse:collapse;} " +
	".totals td{padding:6px 8px;border-top:1px solid #ddd;} " +
	".line-items{width:100%;border-collapse:collapse;margin-top:16px;} " +
	".line-items th,.line-items td{border:1px solid #ddd;padding:8px;vertical-align:top;} " +
	".line-items th{background:#f8f8f8;text-align:left;} " +
	".num{text-align:right;} .alerts{color:#92400e;} " +
	"@media print{body{margin:0;} .alerts{display:none;}}"

// RenderEstimateHTML builds a standalone printable document. Every
// interpolated value is escaped; payment terms are rendered from Markdown.
func RenderEstimateHTML(estimate *types.Estimate, businessName string) (string, error) {
	if strings.TrimSpace(businessName) == "" {
		businessName = "HVAC Estimate"
	}

	terms, err := markdownHTML(estimate.Assumptions.PaymentTerms)
	if err != nil {
		return "", err
	}

	customerName := normalize.Text(estimate.Customer["name"])
	if customerName == "" {
		customerName = "Customer"
	}
	projectSummary := normalize.Text(estimate.Project["summary"])
	if projectSummary == "" {
		projectSummary = "HVAC service estimate"
	}

	var out strings.Builder
	out.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	out.WriteString("<meta charset=\"utf-8\" />\n<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\" />\n")
	out.WriteString("<title>Estimate " + html.EscapeString(estimate.ID) + "</title>\n")
	out.WriteString("<style>" + printStyle + "</style>\n</head>\n<body>\n")

	out.WriteString("<h1>" + html.EscapeString(businessName) + "</h1>\n")
	out.WriteString("<div class=\"muted\">Estimate ID: " + html.EscapeString(estimate.ID) + "</div>\n")
	out.WriteString("<div class=\"muted\">Generated: " + html.EscapeString(formatDate(estimate.GeneratedAt)) + "</div>\n")
	out.WriteString("<div class=\"muted\">Expires: " + html.EscapeString(formatDate(estimate.ExpiresAt)) + "</div>\n")

	out.WriteString("<h3>Customer</h3>\n<div>" + html.EscapeString(customerName) + "</div>\n")
	if address := normalize.Text(estimate.Customer["address"]); address != "" {
		out.WriteString("<div class=\"muted\">" + html.EscapeString(address) + "</div>\n")
	}
	out.WriteString("<h3>Project</h3>\n<div>" + html.EscapeString(projectSummary) + "</div>\n")

	out.WriteString("<table class=\"line-items\">\n<thead><tr><th>Code</th><th>Description</th><th>Qty</th>" +
		"<th class=\"num\">Unit Price</th><th class=\"num\">Line Total</th></tr></thead>\n<tbody>\n")
	for _, line := range estimate.LineItems {
		writeLine(&out, line, estimate.Currency)
	}
	out.WriteString("</tbody>\n</table>\n")

	totals := estimate.Totals
	out.WriteString("<table class=\"totals\">\n")
	writeTotal(&out, "Subtotal", totals.RecommendedSubtotal, estimate.Currency, false)
	if totals.DiscountTotal > 0 {
		writeTotal(&out, "Discount", -totals.DiscountTotal, estimate.Currency, false)
		writeTotal(&out, "Subtotal after discount", totals.SubtotalAfterDiscount, estimate.Currency, false)
	}
	writeTotal(&out, "Tax", totals.TaxTotal, estimate.Currency, false)
	writeTotal(&out, "Total", totals.GrandTotal, estimate.Currency, true)
	out.WriteString("</table>\n")

	if terms != "" {
		out.WriteString("<h3>Payment terms</h3>\n<div class=\"terms\">" + terms + "</div>\n")
	}

	if len(estimate.Alerts) > 0 {
		out.WriteString("<ul class=\"alerts\">\n")
		for _, alert := range estimate.Alerts {
			out.WriteString("<li>" + html.EscapeString(alert) + "</li>\n")
		}
		out.WriteString("</ul>\n")
	}

	out.WriteString("</body>\n</html>\n")
	return out.String(), nil
}

func writeLine(out *strings.Builder, line types.LineItem, currency string) {
	unitPrice := 0.0
	if line.Quantity > 0 {
		unitPrice = line.Costs.TargetSellPrice / line.Quantity
	}

	out.WriteString("<tr><td>" + html.EscapeString(line.Code) + "</td><td><strong>" + html.EscapeString(line.Name) + "</strong>")
	if len(line.Features) > 0 {
		out.WriteString("<div>" + html.EscapeString(strings.Join(line.Features, " | ")) + "</div>")
	}
	if line.Notes != "" {
		out.WriteString("<div class=\"muted\">" + html.EscapeString(line.Notes) + "</div>")
	}
	out.WriteString("</td><td>" + decimal.NewFromFloat(line.Quantity).String() + "</td>")
	out.WriteString("<td class=\"num\">" + FormatMoney(unitPrice, currency) + "</td>")
	out.WriteString("<td class=\"num\">" + FormatMoney(line.Costs.TargetSellPrice, currency) + "</td></tr>\n")
}

func writeTotal(out *strings.Builder, label string, amount float64, currency string, strong bool) {
	value := html.EscapeString(FormatMoney(amount, currency))
	label = html.EscapeString(label)
	if strong {
		label = "<strong>" + label + "</strong>"
		value = "<strong>" + value + "</strong>"
	}
	out.WriteString("<tr><td>" + label + "</td><td class=\"num\">" + value + "</td></tr>\n")
}

// markdownHTML converts free text to HTML. Raw HTML in the source is dropped
// by goldmark's default renderer.
func markdownHTML(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(text), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return content.String(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("January 2, 2006")
}

var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "CA$",
	"EUR": "€",
	"GBP": "£",
}

// FormatMoney renders an amount with thousands separators, e.g. $1,234.50
func FormatMoney(amount float64, currency string) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	symbol, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok {
		return sign + strings.ToUpper(currency) + " " + grouped.String() + "." + cents
	}
	return sign + symbol + grouped.String() + "." + cents
}
