package financial

import (
	"fmt"
	"io"

	"gestionexus-backend/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Reporte Financiero"

// WriteXLSX renders the ledger as a workbook with a totals row.
func WriteXLSX(w io.Writer, entries []models.FinancialLedgerEntry, sum Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4F81BD"}},
	})
	if err != nil {
		return err
	}
	moneyFmt := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt})
	if err != nil {
		return err
	}

	headers := []string{"Fecha", "Concepto", "Ingresos", "Egresos"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(reportSheet, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(reportSheet, "A1", "D1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, e := range entries {
		values := []any{
			e.EntryDate.Format("2006-01-02"),
			e.Concept,
			e.Income.InexactFloat64(),
			e.Expense.InexactFloat64(),
		}
		if err := f.SetSheetRow(reportSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		row++
	}
	if row > 2 {
		if err := f.SetCellStyle(reportSheet, "C2", fmt.Sprintf("D%d", row-1), moneyStyle); err != nil {
			return err
		}
	}

	totals := []any{"", "TOTALES", sum.TotalIncome.InexactFloat64(), sum.TotalExpense.InexactFloat64()}
	if err := f.SetSheetRow(reportSheet, fmt.Sprintf("A%d", row), &totals); err != nil {
		return err
	}
	if err := f.SetCellStyle(reportSheet, fmt.Sprintf("B%d", row), fmt.Sprintf("D%d", row), totalStyle); err != nil {
		return err
	}

	widths := []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 14},
		{"B", "B", 50},
		{"C", "D", 18},
	}
	for _, cw := range widths {
		if err := f.SetColWidth(reportSheet, cw.from, cw.to, cw.width); err != nil {
			return fmt.Errorf("set column width %s: %w", cw.from, err)
		}
	}

	_, err = f.WriteTo(w)
	return err
}

// WritePDF renders the ledger as a single table with totals and net balance.
func WritePDF(w io.Writer, entries []models.FinancialLedgerEntry, sum Summary, period string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Reporte Financiero", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Reporte Financiero"), "", 1, "C", false, 0, "")
	if period != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(period), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{28, 92, 35, 35}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(79, 129, 189)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range []string{"Fecha", "Concepto", "Ingresos", "Egresos"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, e := range entries {
		concept := e.Concept
		if r := []rune(concept); len(r) > 60 {
			concept = string(r[:57]) + "..."
		}
		pdf.CellFormat(widths[0], 7, e.EntryDate.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(concept), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, money(e.Income), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(e.Expense), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(widths[0]+widths[1], 8, "TOTALES", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[2], 8, money(sum.TotalIncome), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, money(sum.TotalExpense), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
	pdf.CellFormat(widths[0]+widths[1], 8, "BALANCE NETO", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[2]+widths[3], 8, money(sum.NetBalance), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	return pdf.Output(w)
}

func money(d decimal.Decimal) string {
	return "$ " + d.StringFixed(2)
}
