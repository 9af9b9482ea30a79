// Package mail composes and delivers the weekly report email: the HTML
// body, recipient resolution and paced SMTP delivery with the PDF attached.
package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"invrep/internal/report"
)

const subjectDateLayout = "02 Jan 2006"

// Subject returns the email subject for a report date.
// The dash is an en dash, matching the historical subject line filters.
func Subject(reportDate time.Time) string {
	return fmt.Sprintf("Inventory Report – Priority Items (Data as of %s)", reportDate.Format(subjectDateLayout))
}

// FormatMT renders tonnage with thousand separators and two decimals,
// e.g. 1234.5 -> "1,234.50".
func FormatMT(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String() + frac
	}
	return b.String() + frac
}

type bodyItem struct {
	Specification string
	FreeForSale   string
}

type bodyData struct {
	Greeting string
	DateStr  string
	Items    []bodyItem
	ERPURL   string
	PDFSpecs []string
}

// Body renders the Gmail-safe HTML email body. An empty priority list is
// valid and renders a placeholder row.
func Body(items []report.PriorityItem, reportDate time.Time, erpURL string, pdfSpecs []string) (string, error) {
	data := bodyData{
		Greeting: "Hi there,",
		DateStr:  reportDate.Format(subjectDateLayout),
		ERPURL:   erpURL,
		PDFSpecs: pdfSpecs,
	}
	for _, it := range items {
		data.Items = append(data.Items, bodyItem{
			Specification: strings.TrimSpace(it.Specification),
			FreeForSale:   FormatMT(it.FreeForSaleMT),
		})
	}

	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}
	return buf.String(), nil
}

var bodyTmpl = template.Must(template.New("body").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; font-size: 14px; line-height: 1.6; color: #333; margin: 0; padding: 20px;">

    <p>{{.Greeting}}</p>

    <h2 style="color: #2c3e50; margin-top: 20px; margin-bottom: 10px;">Inventory Report - Priority Items for Sales Focus</h2>
    <p style="color: #666; margin-bottom: 20px;"><strong>{{.DateStr}}</strong></p>

    <p>This report highlights inventory items that currently require priority sales focus based on available Free-For-Sale quantities.</p>

    <p>The information shared below represents a point-in-time snapshot of inventory as of the date mentioned above.</p>

    <table style="width: 100%; border-collapse: collapse; margin-bottom: 20px; border: 1px solid #ddd;">
        <thead>
            <tr style="background-color: #333; color: white;">
                <th style="padding: 10px; border: 1px solid #ddd; text-align: left;">Specification</th>
                <th style="padding: 10px; border: 1px solid #ddd; text-align: right;">Free-For-Sale (MT)</th>
            </tr>
        </thead>
        <tbody>
{{- range .Items}}
            <tr>
                <td style="padding: 8px; border: 1px solid #ddd;">{{.Specification}}</td>
                <td style="padding: 8px; border: 1px solid #ddd; text-align: right;">{{.FreeForSale}}</td>
            </tr>
{{- else}}
            <tr>
                <td colspan="2" style="padding: 8px; border: 1px solid #ddd; text-align: center; color: #666;">
                    No priority items found above threshold.
                </td>
            </tr>
{{- end}}
        </tbody>
    </table>

    <p style="margin-top: 20px; margin-bottom: 20px;">
        <strong>Note:</strong><br>
        Items are ordered from highest to lowest available inventory, indicating increasing urgency for sales focus.<br>
        This snapshot of inventory data is as of the date mentioned above.
    </p>

    <p style="margin-top: 20px; margin-bottom: 20px;">
        For real-time inventory levels, reservations, and incoming stock updates, please refer to the ERP system using the link below:
    </p>

    <p style="margin-top: 10px; margin-bottom: 20px;">
        <a href="{{.ERPURL}}" style="color: #0066cc; text-decoration: none; font-weight: bold;">View Live Inventory in ERP &rarr;</a>
    </p>

    <p style="margin-top: 30px; margin-bottom: 10px;">
        Attached to this email are detailed inventory reports providing a breakdown of Free-For-Sale stock across schedules and categories for the following grades:
    </p>

    <ul style="margin-top: 10px; margin-bottom: 20px; padding-left: 20px;">
{{- range .PDFSpecs}}
        <li>{{.}}</li>
{{- end}}
    </ul>

    <p style="margin-top: 30px; margin-bottom: 5px;">
        Regards,<br>
        <strong>Evergreen Analytics</strong>
    </p>

    <p style="margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; color: #666; font-size: 12px;">
        <em>This is a system-generated email. For the latest and most accurate data, please rely on the ERP as the source of truth.</em>
    </p>

</body>
</html>
`))
