// Package rendersvc turns report documents into downloadable files.
package rendersvc

import (
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/report"
)

const (
	pdfMargin      = 15.0
	pdfRowHeight   = 7.0
	pdfHeadHeight  = 8.0
	pdfFontSize    = 9.0
	pdfMinColWidth = 14.0
	// tables wider than this switch the page to landscape
	pdfPortraitColumns = 6
)

// PDF renders documents as A4 pages, one bordered table per section.
type PDF struct{}

var _ report.Renderer = PDF{}

func (PDF) ContentType() string { return "application/pdf" }
func (PDF) Extension() string   { return ".pdf" }

func (PDF) Render(w io.Writer, doc report.Document) error {
	orientation := "P"
	for _, s := range doc.Sections {
		if len(s.Table.Columns) > pdfPortraitColumns {
			orientation = "L"
			break
		}
	}

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	usable := pageW - 2*pdfMargin
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin + 5)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(usable/2, 5, tr(doc.Title), "", 0, "L", false, 0, "")
		pdf.CellFormat(usable/2, 5, "Page "+strconv.Itoa(pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	// title
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if doc.Subtitle != "" {
		pdf.CellFormat(0, 6, tr(doc.Subtitle), "", 1, "L", false, 0, "")
	}
	if !doc.GeneratedAt.IsZero() {
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6, "Generated on "+doc.GeneratedAt.Format(core.DateLayout+" 15:04"), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.SetDrawColor(40, 145, 108)
	pdf.SetLineWidth(0.5)
	pdf.Line(pdfMargin, pdf.GetY()+1, pageW-pdfMargin, pdf.GetY()+1)
	pdf.Ln(6)

	for _, s := range doc.Sections {
		if s.Title != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, tr(s.Title), "", 1, "L", false, 0, "")
		}
		if len(s.Table.Columns) > 0 {
			widths := columnWidths(s.Table, usable)
			pdfTableHeader(pdf, s.Table, widths, tr)
			pdf.SetFont("Arial", "", pdfFontSize)
			for i, row := range s.Table.Rows {
				if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
					pdf.AddPage()
					pdfTableHeader(pdf, s.Table, widths, tr)
					pdf.SetFont("Arial", "", pdfFontSize)
				}
				fill := i%2 == 1
				for j, width := range widths {
					var cell string
					if j < len(row) {
						cell = row[j]
					}
					pdf.CellFormat(width, pdfRowHeight, tr(fit(pdf, cell, width)), "1", 0, "L", fill, 0, "")
				}
				pdf.Ln(-1)
			}
			if len(s.Table.Rows) == 0 {
				pdf.SetFont("Arial", "I", pdfFontSize)
				pdf.CellFormat(usable, pdfRowHeight, "No records", "1", 1, "C", false, 0, "")
			}
			pdf.Ln(3)
		}
		if !s.Summary.IsEmpty() {
			for _, p := range s.Summary.Pairs {
				pdf.SetFont("Arial", "", 10)
				pdf.CellFormat(50, 6, tr(p.Label+":"), "", 0, "L", false, 0, "")
				pdf.SetFont("Arial", "B", 10)
				pdf.CellFormat(0, 6, tr(p.Value), "", 1, "L", false, 0, "")
			}
		}
		pdf.Ln(6)
	}

	if err := pdf.Error(); err != nil {
		return errors.Wrap(err, "pdf.Error()")
	}
	return errors.Wrap(pdf.Output(w), "pdf.Output()")
}

func pdfTableHeader(pdf *gofpdf.Fpdf, t report.Table, widths []float64, tr func(string) string) {
	pdf.SetFont("Arial", "B", pdfFontSize)
	pdf.SetFillColor(40, 145, 108)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.2)
	for i, h := range t.Headers() {
		pdf.CellFormat(widths[i], pdfHeadHeight, tr(fit(pdf, h, widths[i])), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(245, 245, 245)
}

// columnWidths shares the usable width in proportion to the longest text of every column.
func columnWidths(t report.Table, usable float64) []float64 {
	lengths := make([]float64, len(t.Columns))
	var total float64
	for i, col := range t.Columns {
		n := utf8.RuneCountInString(col.Header)
		for _, row := range t.Rows {
			if i < len(row) {
				if l := utf8.RuneCountInString(row[i]); l > n {
					n = l
				}
			}
		}
		if n < 3 {
			n = 3
		}
		lengths[i] = float64(n)
		total += lengths[i]
	}

	widths := make([]float64, len(lengths))
	var fixed, flexible float64
	for i, l := range lengths {
		widths[i] = usable * l / total
		if widths[i] < pdfMinColWidth {
			widths[i] = pdfMinColWidth
			fixed += widths[i]
		} else {
			flexible += widths[i]
		}
	}
	if flexible > 0 && fixed+flexible > usable {
		scale := (usable - fixed) / flexible
		for i := range widths {
			if widths[i] > pdfMinColWidth {
				widths[i] *= scale
			}
		}
	}
	return widths
}

// fit truncates s with an ellipsis so it fits in a cell of the given width.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	max := width - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(s) <= max {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
