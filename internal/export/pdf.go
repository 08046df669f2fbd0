package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin    = 10.0
	pdfRowHeight = 7.0
	pdfFontSize  = 8.0
	pdfCellPad   = 2.0
	ellipsis     = "..."
)

// WritePDF renders the table on landscape A4 pages. Every column gets the
// same width; cell text that does not fit is cut with an ellipsis. The header
// row is repeated at the top of each page.
func WritePDF(w io.Writer, t Table, title string, generatedAt time.Time) error {
	pdf := renderPDF(t, title, generatedAt)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return pdf.Output(w)
}

func renderPDF(t Table, title string, generatedAt time.Time) *fpdf.Fpdf {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	cols := len(t.Columns)
	if cols == 0 {
		cols = 1
	}
	colW := (pageW - 2*pdfMargin) / float64(cols)

	cell := func(text string, fill bool) {
		fitted := truncateToWidth(tr(text), colW-pdfCellPad, pdf.GetStringWidth)
		pdf.CellFormat(colW, pdfRowHeight, fitted, "1", 0, "L", fill, 0, "")
	}
	header := func() {
		pdf.SetFont("Helvetica", "B", pdfFontSize)
		pdf.SetFillColor(225, 225, 225)
		for _, c := range t.Columns {
			cell(c, true)
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", pdfFontSize)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", pdfFontSize)
	pdf.CellFormat(0, 5, tr("Generated "+generatedAt.Format("2006-01-02 15:04:05 MST")), "", 1, "L", false, 0, "")
	header()

	for _, row := range t.Rows {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}
		for i := range t.Columns {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			cell(v, false)
		}
		pdf.Ln(-1)
	}
	return pdf
}

// truncateToWidth cuts s until it plus an ellipsis fits width. s is already
// in the single-byte font encoding, so cutting bytes is safe.
func truncateToWidth(s string, width float64, measure func(string) float64) string {
	if measure(s) <= width {
		return s
	}
	b := s
	for len(b) > 0 && measure(b+ellipsis) > width {
		b = b[:len(b)-1]
	}
	if len(b) == 0 && measure(ellipsis) > width {
		return ""
	}
	return b + ellipsis
}
