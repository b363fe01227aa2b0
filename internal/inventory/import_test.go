package inventory

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCellAcceptsNumbersAndStrings(t *testing.T) {
	var req BulkImportRequest
	payload := `{"products":[{"NOMBRE":"Camisa Polo","MARCA":"Lacoste","CATEGORIA":"Camisas","TALLAS":"M","REFERENCIA":1020,"CANTIDAD":12,"PRECIO":"89900.50","COSTO":45000,"EXTRA":true}]}`
	require.NoError(t, json.Unmarshal([]byte(payload), &req))
	require.Len(t, req.Products, 1)

	row := req.Products[0]
	assert.Equal(t, Cell("1020"), row.Reference)
	assert.Equal(t, Cell("12"), row.Quantity)
	assert.Equal(t, Cell("89900.50"), row.Price)

	var c Cell
	require.NoError(t, json.Unmarshal([]byte("null"), &c))
	assert.Equal(t, Cell(""), c)
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &c))
}

func TestToInputs(t *testing.T) {
	inputs, err := ToInputs([]ImportRow{
		{Name: " Jean Slim ", Reference: "J-01", Size: "32", Quantity: "4", Price: "$120000", Cost: "60000"},
		{Name: "Jean Slim", Reference: "J-01", Size: "34", Quantity: "", Price: "120000", Cost: ""},
	})
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	assert.Equal(t, "Jean Slim", inputs[0].Name)
	assert.True(t, inputs[0].Price.Equal(decimal.NewFromInt(120000)))
	assert.Equal(t, Count(0), inputs[1].Quantity)
	assert.True(t, inputs[1].Cost.IsZero())
}

func TestToInputsReportsRow(t *testing.T) {
	_, err := ToInputs([]ImportRow{
		{Name: "A", Reference: "R1", Quantity: "1", Price: "1", Cost: "1"},
		{Name: "B", Reference: "R2", Quantity: "uno", Price: "1", Cost: "1"},
	})
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, "CANTIDAD", rowErr.Field)

	_, err = ToInputs([]ImportRow{{Name: "", Reference: "R3", Quantity: "-1"}})
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 1, rowErr.Row)
	assert.Contains(t, rowErr.Message, "name")
}

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf := &bytes.Buffer{}
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf
}

func TestParseWorkbook(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"referencia", "NOMBRE", "MARCA", "CATEGORIA", "TALLAS", "CANTIDAD", "PRECIO", "COSTO"},
		{"C-10", "Camiseta básica", "Nike", "Camisetas", "S", 10, 35000, 18000},
		{"", "", "", "", "", "", "", ""},
		{"C-10", "Camiseta básica", "Nike", "Camisetas", "M", 7, 35000, 18000},
	})

	rows, err := ParseWorkbook(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Cell("C-10"), rows[0].Reference)
	assert.Equal(t, Cell("Camiseta básica"), rows[0].Name)
	assert.Equal(t, Cell("M"), rows[1].Size)
	assert.Equal(t, Cell("7"), rows[1].Quantity)
}

func TestParseWorkbookMissingColumns(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"NOMBRE", "PRECIO"},
		{"Gorra", 20000},
	})

	_, err := ParseWorkbook(buf)
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "REFERENCIA")
}
