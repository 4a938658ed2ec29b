package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin   = 10.0
	bandHeight   = 14.0
	footerHeight = 12.0
	headerHeight = 8.0
	rowHeight    = 7.0
	tableFont    = 8.0
	minColWeight = 6
	maxColWeight = 28
)

type rgb struct{ r, g, b int }

var (
	brandGreen = rgb{22, 101, 52}
	headerFill = rgb{40, 167, 69}
	zebraFill  = rgb{240, 247, 242}
	gridColor  = rgb{200, 200, 200}
	mutedText  = rgb{100, 100, 100}
)

// WritePDF renders a landscape A4 table: brand band, title, period line,
// record count, zebra-striped rows with the header repeated on each page
// and a "Page N of M" footer.
func (r *Renderer) WritePDF(w io.Writer, doc Document) error {
	if len(doc.Records) == 0 {
		return errNoData()
	}
	cols := Columns(doc.Type, doc.Records[0])
	rows := Project(cols, doc.Records, r.cells())
	generated := doc.GeneratedAt.In(r.location).Format("02/01/2006 15:04")

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(doc.Title(), true)
	pdf.SetCreator(r.brand, true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, footerHeight)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	tableW := pageW - 2*pageMargin
	widths := columnWidths(cols, rows, tableW)

	pdf.SetHeaderFunc(func() {
		fill(pdf.SetFillColor, brandGreen)
		pdf.Rect(0, 0, pageW, bandHeight, "F")
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(pageMargin, 0)
		pdf.CellFormat(tableW, bandHeight, tr(r.brand), "", 0, "LM", false, 0, "")
		pdf.SetY(bandHeight + 4)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-footerHeight + 2)
		pdf.SetFont("Helvetica", "", 8)
		fill(pdf.SetTextColor, mutedText)
		pdf.CellFormat(tableW/2, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "L", false, 0, "")
		pdf.CellFormat(tableW/2, 6, "Generated on "+generated, "", 0, "R", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(tableW, 8, tr(doc.Title()), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	fill(pdf.SetTextColor, mutedText)
	pdf.CellFormat(tableW, 6, tr(r.periodLine(doc, generated)), "", 1, "L", false, 0, "")

	badge := fmt.Sprintf("Total Records: %d", len(rows))
	pdf.SetFont("Helvetica", "B", 9)
	fill(pdf.SetFillColor, headerFill)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(pdf.GetStringWidth(badge)+6, 6, badge, "", 1, "C", true, 0, "")
	pdf.Ln(3)

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", tableFont)
		fill(pdf.SetFillColor, headerFill)
		fill(pdf.SetDrawColor, gridColor)
		pdf.SetTextColor(255, 255, 255)
		for i, c := range cols {
			pdf.CellFormat(widths[i], headerHeight, tr(fit(pdf, c.Header, widths[i])), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", tableFont)
		pdf.SetTextColor(0, 0, 0)
	}
	drawHeader()

	for n, row := range rows {
		if pdf.GetY()+rowHeight > pageH-footerHeight-2 {
			pdf.AddPage()
			drawHeader()
		}
		striped := n%2 == 1
		if striped {
			fill(pdf.SetFillColor, zebraFill)
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], rowHeight, tr(fit(pdf, cell, widths[i])), "1", 0, "L", striped, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

func (r *Renderer) periodLine(doc Document, generated string) string {
	if !doc.HasRange() {
		return "All records | Generated on " + generated
	}
	from, to := "Beginning", "Present"
	if doc.From != nil && !doc.From.IsZero() {
		from = doc.From.Time().Format(displayDate)
	}
	if doc.To != nil && !doc.To.IsZero() {
		to = doc.To.Time().Format(displayDate)
	}
	return "Period: " + from + " to " + to
}

// columnWidths shares total across columns in proportion to the longest
// of each column's header and cells, clamped so no column starves.
func columnWidths(cols []Column, rows [][]string, total float64) []float64 {
	weights := make([]int, len(cols))
	sum := 0
	for i, c := range cols {
		wt := utf8.RuneCountInString(c.Header)
		for _, row := range rows {
			wt = max(wt, utf8.RuneCountInString(row[i]))
		}
		wt = min(max(wt, minColWeight), maxColWeight)
		weights[i] = wt
		sum += wt
	}
	widths := make([]float64, len(cols))
	for i, wt := range weights {
		widths[i] = total * float64(wt) / float64(sum)
	}
	return widths
}

// fit trims s with an ellipsis until it fits in width w minus padding.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimSpace(string(runes)) + "..."
		if pdf.GetStringWidth(candidate) <= limit {
			return candidate
		}
	}
	return ""
}

func fill(set func(r, g, b int), c rgb) { set(c.r, c.g, c.b) }
