package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	reportTitle    = "INVENTORY REPORT"
	filenamePrefix = "inventory_report_"

	// Layouts shared with the email body.
	displayDateLayout  = "02-Jan-2006"
	filenameDateLayout = "2006_01_02"
)

// Heatmap cell palette: a 10-step green scale for positive values, crimson
// for oversold cells. Index 7 and up flips the text to white.
var greenScale = [10][3]int{
	{0xF0, 0xFF, 0xF0}, {0xE0, 0xFF, 0xE0}, {0xC1, 0xFF, 0xC1}, {0xA3, 0xFF, 0xA3},
	{0x85, 0xFF, 0x85}, {0x66, 0xFF, 0x66}, {0x48, 0xD1, 0x48}, {0x2E, 0x8B, 0x2E},
	{0x1F, 0x60, 0x1F}, {0x2E, 0x5A, 0x2E},
}

var crimson = [3]int{0xDC, 0x14, 0x3C}

// PDFFilename is deterministic per report date so a rerun for the same
// workbook overwrites rather than accumulates.
func PDFFilename(reportDate time.Time) string {
	return filenamePrefix + reportDate.Format(filenameDateLayout) + ".pdf"
}

// WritePDF assembles the report: a cover page with a table of contents, then
// one page per heatmap (grid plus summary metrics). The file persists in
// outputDir after sending; it is never cleaned up on success.
func WritePDF(heatmaps []*Heatmap, reportDate time.Time, outputDir string) (string, error) {
	if len(heatmaps) == 0 {
		return "", fmt.Errorf("no heatmaps to render")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outputDir, PDFFilename(reportDate))

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 15)

	writeCoverPage(pdf, heatmaps, reportDate)
	for i, h := range heatmaps {
		writeSpecPage(pdf, h, i+2)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write pdf: %w", err)
	}
	fi, err := os.Stat(path)
	if err != nil || fi.Size() == 0 {
		_ = os.Remove(path)
		return "", fmt.Errorf("pdf %s is empty or unreadable", path)
	}
	return path, nil
}

func writeCoverPage(pdf *fpdf.Fpdf, heatmaps []*Heatmap, reportDate time.Time) {
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetY(25)
	pdf.CellFormat(pageW-30, 12, reportTitle, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(pageW-30, 8, reportDate.Format(displayDateLayout), "", 1, "C", false, 0, "")

	pdf.SetY(60)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(pageW-30, 10, "TABLE OF CONTENTS", "", 1, "C", false, 0, "")

	pdf.SetY(80)
	pdf.SetFont("Helvetica", "", 14)
	for i, h := range heatmaps {
		entry := fmt.Sprintf("%d. %s", i+1, h.Specification)
		page := fmt.Sprintf("%d", i+2)
		dots := strings.Repeat(".", maxInt(3, 50-len(entry)-len(page)))
		pdf.CellFormat(0, 9, fmt.Sprintf("%s %s %s", entry, dots, page), "", 1, "L", false, 0, "")
	}

	writePageNumber(pdf, 1)
}

func writeSpecPage(pdf *fpdf.Fpdf, h *Heatmap, pageNum int) {
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 30

	pdf.SetY(15)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 9, h.Specification, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "HEATMAP TABLE (Free For Sale MT)", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// Metrics box needs ~45mm at the bottom; the grid scales into the rest.
	const metricsReserve = 50.0
	gridTop := pdf.GetY()
	gridBottom := pageH - 15 - metricsReserve
	drawHeatmapGrid(pdf, h, gridTop, gridBottom, contentW)

	writeMetricsBox(pdf, h.Metrics, gridBottom+6)
	writePageNumber(pdf, pageNum)
}

func drawHeatmapGrid(pdf *fpdf.Fpdf, h *Heatmap, top, bottom, contentW float64) {
	rows := len(h.RowLabels)
	rowH := clampF((bottom-top)/float64(rows+1), 3.2, 7.0)

	labelW := 32.0
	colW := (contentW - labelW) / float64(len(h.Columns))

	fontSize := 8.0
	if colW < 16 || rowH < 4 {
		fontSize = 6.5
	}

	// Header row.
	pdf.SetXY(15, top)
	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.SetFillColor(0x33, 0x33, 0x33)
	pdf.SetTextColor(0xFF, 0xFF, 0xFF)
	pdf.SetDrawColor(0xDD, 0xDD, 0xDD)
	pdf.CellFormat(labelW, rowH, "OD Category", "1", 0, "L", true, 0, "")
	for _, col := range h.Columns {
		pdf.CellFormat(colW, rowH, col, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(rowH)

	for i, label := range h.RowLabels {
		isTotalRow := i == rows-1
		pdf.SetX(15)
		style := ""
		if isTotalRow || strings.HasPrefix(label, "* ") {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, fontSize)
		pdf.SetFillColor(0xF7, 0xF7, 0xF7)
		pdf.SetTextColor(0x22, 0x22, 0x22)
		pdf.CellFormat(labelW, rowH, label, "1", 0, "L", true, 0, "")

		for j, v := range h.Values[i] {
			isTotalCol := j == len(h.Columns)-1
			fill, text := cellColors(v, h.PosMin, h.PosMax)
			weight := ""
			if v != 0 || isTotalRow || isTotalCol {
				weight = "B"
			}
			if isTotalRow || isTotalCol {
				fill, text = [3]int{0xEE, 0xEE, 0xEE}, [3]int{0x22, 0x22, 0x22}
				if v < 0 {
					text = crimson
				}
			}
			pdf.SetFont("Helvetica", weight, fontSize)
			pdf.SetFillColor(fill[0], fill[1], fill[2])
			pdf.SetTextColor(text[0], text[1], text[2])
			pdf.CellFormat(colW, rowH, fmt.Sprintf("%.2f", v), "1", 0, "R", true, 0, "")
		}
		pdf.Ln(rowH)
	}
	pdf.SetTextColor(0, 0, 0)
}

// cellColors ports the dashboard's conditional formatting: zeros are white
// with grey text, negatives crimson with white text, positives walk the
// green scale between posMin and posMax.
func cellColors(v, posMin, posMax float64) (fill, text [3]int) {
	switch {
	case v == 0:
		return [3]int{0xFF, 0xFF, 0xFF}, [3]int{0xCC, 0xCC, 0xCC}
	case v < 0:
		return crimson, [3]int{0xFF, 0xFF, 0xFF}
	}
	idx := 0
	if posMax > posMin {
		idx = int((v - posMin) / (posMax - posMin) * float64(len(greenScale)-1))
		idx = clampI(idx, 0, len(greenScale)-1)
	}
	text = [3]int{0x22, 0x22, 0x22}
	if idx >= 7 {
		text = [3]int{0xFF, 0xFF, 0xFF}
	}
	return greenScale[idx], text
}

func writeMetricsBox(pdf *fpdf.Fpdf, m Metrics, top float64) {
	pdf.SetXY(15, top)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 7, "SUMMARY METRICS (Total)", "", 1, "L", false, 0, "")

	boxTop := pdf.GetY() + 1
	pdf.SetDrawColor(0, 0, 0)
	pdf.Rect(15, boxTop, 140, 30, "D")

	pdf.SetFont("Helvetica", "", 11)
	y := boxTop + 4
	for _, row := range []struct {
		label string
		value float64
	}{
		{"Stock", m.Stock},
		{"Reservation", m.Reservation},
		{"Incoming", m.Incoming},
		{"Free For Sale", m.FreeForSale},
	} {
		pdf.SetXY(20, y)
		pdf.CellFormat(45, 6, row.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.2f MT", row.value), "", 0, "L", false, 0, "")
		y += 6
	}
}

func writePageNumber(pdf *fpdf.Fpdf, n int) {
	pageW, pageH := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(pageW-35, pageH-10)
	pdf.CellFormat(25, 5, fmt.Sprintf("Page %d", n), "", 0, "R", false, 0, "")
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
