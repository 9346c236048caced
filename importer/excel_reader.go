package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

type ExcelReader struct{}

func (r *ExcelReader) Read(path string) (*Table, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file %s: %w", path, err)
	}
	defer file.Close()

	return readFirstSheet(file)
}

// ReadFrom parses a workbook streamed from an upload.
func (r *ExcelReader) ReadFrom(src io.Reader) (*Table, error) {
	file, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open excel upload: %w", err)
	}
	defer file.Close()

	return readFirstSheet(file)
}

func readFirstSheet(file *excelize.File) (*Table, error) {
	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrEmptySheet)
	}

	// Raw values keep display formats from rewriting numbers.
	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySheet, sheetName)
	}

	headers, err := buildHeaders(rows[0])
	if err != nil {
		return nil, err
	}

	table := &Table{Headers: headers, Rows: make([][]any, 0, len(rows)-1)}
	for i, raw := range rows[1:] {
		rowNumber := i + 2
		row := make([]any, len(headers))
		for col := range headers {
			if col >= len(raw) || raw[col] == "" {
				continue
			}
			row[col] = typedCell(file, sheetName, col, rowNumber, raw[col])
		}
		if isBlankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDataRows, sheetName)
	}

	return table, nil
}

// buildHeaders trims the header row, names blank columns Column_<n> and
// suffixes repeated names so every header is a unique key. Literal headers
// keep their text; generated names skip anything already taken.
func buildHeaders(raw []string) ([]string, error) {
	trimmed := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	literal := make([]bool, len(raw))
	for i, header := range raw {
		header = strings.TrimSpace(header)
		trimmed[i] = header
		if header != "" && !used[header] {
			used[header] = true
			literal[i] = true
		}
	}
	if len(used) == 0 {
		return nil, ErrNoHeaders
	}

	headers := make([]string, len(raw))
	for i, header := range trimmed {
		if literal[i] {
			headers[i] = header
			continue
		}
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
			if !used[header] {
				used[header] = true
				headers[i] = header
				continue
			}
		}
		headers[i] = nextFreeName(header, used)
	}
	return headers, nil
}

func nextFreeName(base string, used map[string]bool) string {
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}

// typedCell recovers numbers and booleans from the formatted cell text so
// callers can tell 9876543210 the number from "9876543210" the string.
func typedCell(file *excelize.File, sheet string, col, row int, value string) any {
	cell, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return value
	}
	cellType, err := file.GetCellType(sheet, cell)
	if err != nil {
		return value
	}

	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if number, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return number
		}
	case excelize.CellTypeBool:
		if flag, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return flag
		}
	}
	return value
}
