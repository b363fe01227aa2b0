package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ImportColumns are the spreadsheet headers a bulk import must carry.
var ImportColumns = []string{"NOMBRE", "MARCA", "CATEGORIA", "TALLAS", "REFERENCIA", "CANTIDAD", "PRECIO", "COSTO"}

var ErrMissingColumns = errors.New("spreadsheet is missing required columns")

// Cell accepts a JSON string, number or null, since client-side
// spreadsheet parsers emit numeric cells as numbers.
type Cell string

func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Cell(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("unsupported cell value %s", b)
	}
	*c = Cell(n.String())
	return nil
}

// ErrInvalidCount reports a quantity that is neither an integer nor an integer string.
var ErrInvalidCount = errors.New("quantity is not an integer")

// Count is an integer that also decodes from a numeric JSON string,
// which is how HTML form values arrive.
type Count int

func (n *Count) UnmarshalJSON(b []byte) error {
	var c Cell
	if err := c.UnmarshalJSON(b); err != nil {
		return ErrInvalidCount
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(c)))
	if err != nil {
		return ErrInvalidCount
	}
	*n = Count(v)
	return nil
}

// ImportRow is one spreadsheet row keyed by its header.
type ImportRow struct {
	Name      Cell `json:"NOMBRE"`
	Brand     Cell `json:"MARCA"`
	Category  Cell `json:"CATEGORIA"`
	Size      Cell `json:"TALLAS"`
	Reference Cell `json:"REFERENCIA"`
	Quantity  Cell `json:"CANTIDAD"`
	Price     Cell `json:"PRECIO"`
	Cost      Cell `json:"COSTO"`
}

// RowError reports the first invalid field of an import row.
type RowError struct {
	Row     int
	Field   string
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("fila %d, %s: %s", e.Row, e.Field, e.Message)
}

// ToInputs converts and validates rows. Row numbers in errors are 1-based.
func ToInputs(rows []ImportRow) ([]ProductInput, error) {
	out := make([]ProductInput, 0, len(rows))
	for i, r := range rows {
		in, err := r.toInput(i + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func (r ImportRow) toInput(row int) (ProductInput, error) {
	in := ProductInput{
		Name:      string(r.Name),
		Brand:     string(r.Brand),
		Category:  string(r.Category),
		Size:      string(r.Size),
		Reference: string(r.Reference),
	}

	qty := strings.TrimSpace(string(r.Quantity))
	if qty == "" {
		qty = "0"
	}
	n, err := strconv.Atoi(qty)
	if err != nil {
		return in, &RowError{Row: row, Field: "CANTIDAD", Message: "debe ser un número entero"}
	}
	in.Quantity = Count(n)

	if in.Price, err = parseMoney(string(r.Price)); err != nil {
		return in, &RowError{Row: row, Field: "PRECIO", Message: "debe ser un número"}
	}
	if in.Cost, err = parseMoney(string(r.Cost)); err != nil {
		return in, &RowError{Row: row, Field: "COSTO", Message: "debe ser un número"}
	}

	in.Normalize()
	if errs := in.Validate(); !errs.Empty() {
		return in, &RowError{Row: row, Field: "datos", Message: errs.Error()}
	}
	return in, nil
}

func parseMoney(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "$", ""))
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// ParseWorkbook reads the first sheet of an xlsx file. The first row must
// hold the ImportColumns headers in any order and case.
func ParseWorkbook(r io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrMissingColumns
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, col := range ImportColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	get := func(row []string, col string) Cell {
		i := index[col]
		if i < len(row) {
			return Cell(strings.TrimSpace(row[i]))
		}
		return ""
	}

	out := make([]ImportRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		out = append(out, ImportRow{
			Name:      get(row, "NOMBRE"),
			Brand:     get(row, "MARCA"),
			Category:  get(row, "CATEGORIA"),
			Size:      get(row, "TALLAS"),
			Reference: get(row, "REFERENCIA"),
			Quantity:  get(row, "CANTIDAD"),
			Price:     get(row, "PRECIO"),
			Cost:      get(row, "COSTO"),
		})
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
