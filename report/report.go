// Package report renders budget exports as PDF documents.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/types"
)

const (
	dateLayout = "2006-01-02"
	lineHeight = 6.0
	brand      = "Ficore Africa"
)

// historyColumns are the table headings and widths (mm) of a history export.
var historyColumns = []struct {
	title string
	width float64
}{
	{"Date", 30},
	{"Income", 28},
	{"Fixed Exp.", 28},
	{"Variable Exp.", 30},
	{"Savings Goal", 30},
	{"Surplus/Deficit", 34},
}

// Single renders the details of one budget.
func Single(owner *account.Account, b *budget.Budget, now time.Time) ([]byte, error) {
	pdf := newDocument(owner, now)
	pdf.AddPage()

	title(pdf, "Budget Details Export")

	pdf.SetFont("Helvetica", "", 10)
	line(pdf, "Budget ID: "+b.ID.String())
	line(pdf, "Created: "+b.CreatedAt.Format(dateLayout))
	amountLine(pdf, "Income", b.Income)
	amountLine(pdf, "Fixed Expenses", b.FixedExpenses)
	amountLine(pdf, "Variable Expenses", b.VariableExpenses)
	amountLine(pdf, "Savings Goal", b.SavingsGoal)
	amountLine(pdf, "Surplus/Deficit", b.SurplusDeficit)
	line(pdf, fmt.Sprintf("Dependents: %d", b.Dependents))
	pdf.Ln(lineHeight)

	section(pdf, "Expense Categories")
	amountLine(pdf, "Housing", b.Housing)
	amountLine(pdf, "Food", b.Food)
	amountLine(pdf, "Transport", b.Transport)
	amountLine(pdf, "Miscellaneous", b.Miscellaneous)
	amountLine(pdf, "Others", b.Others)

	if len(b.CustomCategories) > 0 {
		pdf.Ln(lineHeight)
		section(pdf, "Custom Categories")
		for _, c := range b.CustomCategories {
			amountLine(pdf, budget.SanitizeName(c.Name), c.Amount)
		}
	}

	return render(pdf)
}

// History renders a table of budgets, newest first as given.
func History(owner *account.Account, budgets []*budget.Budget, now time.Time) ([]byte, error) {
	pdf := newDocument(owner, now)
	pdf.AddPage()

	title(pdf, "Budget History Export")
	tableHeader(pdf)

	pdf.SetFont("Helvetica", "", 9)
	for _, b := range budgets {
		// Repeat the header when the row would not fit on this page.
		_, pageHeight := pdf.GetPageSize()
		_, _, _, bottom := pdf.GetMargins()
		if pdf.GetY()+lineHeight > pageHeight-bottom {
			pdf.AddPage()
			tableHeader(pdf)
			pdf.SetFont("Helvetica", "", 9)
		}

		cells := []string{
			b.CreatedAt.Format(dateLayout),
			types.FormatAmount(b.Income),
			types.FormatAmount(b.FixedExpenses),
			types.FormatAmount(b.VariableExpenses),
			types.FormatAmount(b.SavingsGoal),
			types.FormatAmount(b.SurplusDeficit),
		}
		for i, c := range cells {
			pdf.CellFormat(historyColumns[i].width, lineHeight, c, "", 0, "L", false, 0, "")
		}
		pdf.Ln(lineHeight)
	}

	if len(budgets) == 0 {
		line(pdf, "No budgets recorded yet.")
	}

	return render(pdf)
}

// Filename is the attachment name for an export made at now.
func Filename(exportType string, now time.Time) string {
	return fmt.Sprintf("budget_%s_%s.pdf", exportType, now.Format("20060102"))
}

func newDocument(owner *account.Account, now time.Time) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(brand+" budget export", true)
	pdf.SetCreator(brand, true)
	pdf.SetAutoPageBreak(true, 15)

	name := owner.DisplayName
	if name == "" {
		name = owner.Email
	}
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, brand, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, name, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, "Generated "+now.Format("2006-01-02 15:04 MST"), "B", 1, "L", false, 0, "")
		pdf.Ln(4)
	})
	return pdf
}

func title(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func section(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 10)
	line(pdf, text)
	pdf.SetFont("Helvetica", "", 9)
}

func line(pdf *fpdf.Fpdf, text string) {
	pdf.CellFormat(0, lineHeight, text, "", 1, "L", false, 0, "")
}

func amountLine(pdf *fpdf.Fpdf, label string, v decimal.Decimal) {
	line(pdf, label+": "+types.FormatAmount(v))
}

func tableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	for _, c := range historyColumns {
		pdf.CellFormat(c.width, lineHeight+1, c.title, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(lineHeight + 2)
}

func render(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
