package importer

// Table is a parsed spreadsheet: one header row plus data rows. Cells hold
// nil, string, float64 or bool. Every row has exactly len(Headers) cells.
type Table struct {
	Headers []string
	Rows    [][]any
}

// HeaderIndex returns the column index of header or -1.
func (t *Table) HeaderIndex(header string) int {
	for i, candidate := range t.Headers {
		if candidate == header {
			return i
		}
	}
	return -1
}

// Cell returns the value at row/col. Cells past the end of a short row are nil.
func (t *Table) Cell(row, col int) any {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return nil
	}
	values := t.Rows[row]
	if col >= len(values) {
		return nil
	}
	return values[col]
}

// Head returns at most n rows from the top of the table.
func (t *Table) Head(n int) [][]any {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

func isBlankCell(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}

func isBlankRow(row []any) bool {
	for _, value := range row {
		if !isBlankCell(value) {
			return false
		}
	}
	return true
}
