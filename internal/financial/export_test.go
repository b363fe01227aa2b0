package financial

import (
	"bytes"
	"testing"
	"time"

	"gestionexus-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleEntries() []models.FinancialLedgerEntry {
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	return []models.FinancialLedgerEntry{
		{ID: 1, EntryDate: day, Concept: "Venta #10", Income: decimal.RequireFromString("180000")},
		{ID: 2, EntryDate: day, Concept: "Abono inicial Plan Separe #3 - Marta Díaz", Income: decimal.RequireFromString("20000")},
		{ID: 3, EntryDate: day.AddDate(0, 0, 1), Concept: "Pago arriendo", Expense: decimal.RequireFromString("150000")},
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(sampleEntries())
	assert.True(t, sum.TotalIncome.Equal(decimal.RequireFromString("200000")))
	assert.True(t, sum.TotalExpense.Equal(decimal.RequireFromString("150000")))
	assert.True(t, sum.NetBalance.Equal(decimal.RequireFromString("50000")))

	empty := Summarize(nil)
	assert.True(t, empty.NetBalance.IsZero())
}

func TestWriteXLSX(t *testing.T) {
	entries := sampleEntries()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, entries, Summarize(entries)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Fecha", "Concepto", "Ingresos", "Egresos"}, rows[0])
	assert.Equal(t, "Venta #10", rows[1][1])
	assert.Equal(t, "TOTALES", rows[4][1])

	income, err := f.GetCellValue(reportSheet, "C5", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "200000", income)

	width, err := f.GetColWidth(reportSheet, "B")
	require.NoError(t, err)
	assert.Equal(t, float64(50), width)
}

func TestWritePDF(t *testing.T) {
	entries := sampleEntries()
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, entries, Summarize(entries), "Del 2024-05-01 al 2024-05-31"))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestDescribePeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Del 2024-01-01 al 2024-01-31", describePeriod(Filter{Start: start, End: end}))
	assert.Equal(t, "Desde 2024-01-01", describePeriod(Filter{Start: start}))
	assert.Equal(t, "", describePeriod(Filter{}))
}
