package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const pdfContentWidth = 277.0 // A4 landscape minus 10mm margins

// PDFExporter renders datasets into a landscape table, banded by Dataset.GroupBy.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}

	columns := make([]string, 0, len(data.Headers))
	for _, header := range data.Headers {
		if header != data.GroupBy {
			columns = append(columns, header)
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("pdf requires a column besides %s", data.GroupBy)
	}
	widths := columnWidths(columns, data.Widths)

	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	generated := e.now().UTC().Format("2006-01-02 15:04 MST")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s - page %d/{nb}", generated, pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	header := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, col := range columns {
			pdf.CellFormat(widths[i], 8, tr(col), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.AddPage()
	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}
	header()

	group := ""
	for i, row := range data.Rows {
		if data.GroupBy != "" && (i == 0 || row[data.GroupBy] != group) {
			group = row[data.GroupBy]
			pdf.SetFont("Arial", "B", 10)
			pdf.SetFillColor(200, 215, 235)
			pdf.CellFormat(pdfContentWidth, 7, tr(group), "1", 1, "L", true, 0, "")
		}
		pdf.SetFont("Arial", "", 9)
		for j, col := range columns {
			pdf.CellFormat(widths[j], 7, tr(truncate(row[col], widths[j])), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(columns []string, weights map[string]float64) []float64 {
	total := 0.0
	raw := make([]float64, len(columns))
	for i, col := range columns {
		w := weights[col]
		if w <= 0 {
			w = 1
		}
		raw[i] = w
		total += w
	}
	for i := range raw {
		raw[i] = raw[i] / total * pdfContentWidth
	}
	return raw
}

// truncate keeps a cell on one line; about two characters fit per millimetre at 9pt.
func truncate(value string, width float64) string {
	limit := int(width * 2)
	runes := []rune(value)
	if limit < 4 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
