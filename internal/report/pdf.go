// Package report renders the expense report as a PDF document.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"finstress/internal/finance"
	"finstress/internal/models"

	"github.com/go-pdf/fpdf"
)

// ErrNoExpenses is returned when there is nothing to report.
var ErrNoExpenses = errors.New("add expenses to generate the report")

const (
	margin       = 14.0
	bottomMargin = 20.0
	rowHeight    = 6.0
)

var (
	brand   = [3]int{99, 102, 241}
	muted   = [3]int{100, 100, 100}
	black   = [3]int{0, 0, 0}
	palette = map[finance.Severity][3]int{
		finance.SeverityAlert:   {59, 130, 246},
		finance.SeverityWarning: {245, 158, 11},
		finance.SeverityDanger:  {239, 68, 68},
	}
)

// FileName is the download name of a report generated at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("FinStress_Expenses_%s.pdf", now.Format("02-01-2006"))
}

// Render writes the report for list against budget.
func Render(w io.Writer, list []models.Expense, budget float64, now time.Time) error {
	return render(w, list, budget, now, true)
}

type column struct {
	title string
	width float64
	align string
}

func render(w io.Writer, list []models.Expense, budget float64, now time.Time, compress bool) error {
	if len(list) == 0 {
		return ErrNoExpenses
	}
	summary := finance.Summarize(list, budget)
	alert := finance.Evaluate(summary)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(margin, 20, margin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		setColor(pdf, muted)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// Title block.
	pdf.SetFont("Helvetica", "B", 20)
	setColor(pdf, brand)
	pdf.CellFormat(0, 10, "FinStress AI", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 16)
	setColor(pdf, black)
	pdf.CellFormat(0, 8, "Expense Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	setColor(pdf, muted)
	pdf.CellFormat(0, 6, "Generated on "+now.Format("02/01/2006")+" at "+now.Format("15:04:05"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// Summary block.
	pdf.SetFont("Helvetica", "B", 12)
	setColor(pdf, black)
	pdf.CellFormat(0, 8, "Financial Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		"Monthly budget: " + finance.FormatMoney(summary.Budget),
		"Total spent: " + finance.FormatMoney(summary.TotalSpent),
		"Remaining: " + finance.FormatMoney(summary.Remaining),
		fmt.Sprintf("Percentage spent: %.1f%%", summary.Percentage),
		fmt.Sprintf("Number of expenses: %d", summary.Count),
	} {
		pdf.CellFormat(0, rowHeight, tr(line), "", 1, "L", false, 0, "")
	}
	if alert.Active() {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 11)
		setColor(pdf, palette[alert.Severity])
		pdf.CellFormat(0, rowHeight, alert.ReportLine(), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Category totals. Shares are relative to the total spent.
	section(pdf, "Spending by Category")
	catCols := []column{{"Category", 90, "L"}, {"Amount", 46, "R"}, {"Share", 46, "R"}}
	header(pdf, catCols)
	for i, ct := range summary.CategoryTotals {
		row(pdf, catCols, header, i, []string{
			ct.Category.Info().Name,
			finance.FormatMoney(ct.Total),
			fmt.Sprintf("%.1f%%", ct.Share),
		})
	}
	pdf.Ln(8)

	// Itemized list, in the order given.
	section(pdf, "Expense Details")
	expCols := []column{{"Date", 25, "L"}, {"Description", 87, "L"}, {"Category", 40, "L"}, {"Amount", 30, "R"}}
	header(pdf, expCols)
	for i, e := range list {
		row(pdf, expCols, header, i, []string{
			e.Date.Display(),
			tr(e.Description),
			e.Category.Info().Name,
			finance.FormatMoney(e.Amount),
		})
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return pdf.Output(w)
}

func setColor(pdf *fpdf.Fpdf, c [3]int) {
	pdf.SetTextColor(c[0], c[1], c[2])
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	setColor(pdf, black)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func header(pdf *fpdf.Fpdf, cols []column) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(brand[0], brand[1], brand[2])
	pdf.SetTextColor(255, 255, 255)
	for _, c := range cols {
		pdf.CellFormat(c.width, rowHeight+1, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 8)
	setColor(pdf, black)
}

// row writes one table row, repeating the header after a page break.
func row(pdf *fpdf.Fpdf, cols []column, repeat func(*fpdf.Fpdf, []column), index int, values []string) {
	_, pageHeight := pdf.GetPageSize()
	if pdf.GetY()+rowHeight > pageHeight-bottomMargin {
		pdf.AddPage()
		repeat(pdf, cols)
	}
	fill := index%2 == 1
	pdf.SetFillColor(243, 244, 246)
	for i, c := range cols {
		pdf.CellFormat(c.width, rowHeight, fit(pdf, values[i], c.width-2), "1", 0, c.align, fill, 0, "")
	}
	pdf.Ln(-1)
}

// fit truncates s so that it fits into width.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
