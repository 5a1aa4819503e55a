package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidthLandscape = 277.0
	headerRowHeight    = 8.0
	bodyRowHeight      = 7.0
)

// PDFExporter renders datasets into a landscape tabular PDF.
type PDFExporter struct {
	// Subtitle is printed under the title on the first page.
	Subtitle string
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title; the column header is
// repeated on every page.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	// Core fonts are cp1252; translate so accented names survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	colWidth := pageWidthLandscape / float64(len(data.Headers))
	drawHeader := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(226, 232, 240)
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, headerRowHeight, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}

	first := true
	pdf.SetHeaderFunc(func() {
		if first {
			first = false
			if title != "" {
				pdf.SetFont("Arial", "B", 14)
				pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
			}
			if e.Subtitle != "" {
				pdf.SetFont("Arial", "", 9)
				pdf.CellFormat(0, 6, tr(e.Subtitle), "", 1, "C", false, 0, "")
			}
			pdf.Ln(3)
		}
		drawHeader()
	})
	pdf.AddPage()

	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, bodyRowHeight, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
