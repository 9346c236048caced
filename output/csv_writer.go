package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"rosterload/adminapi"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter emits UTF-8 with a byte order mark and CRLF line endings so the
// file opens cleanly in spreadsheet tools.
type CSVWriter struct{}

func (w *CSVWriter) Extension() string {
	return "csv"
}

func (w *CSVWriter) WriteTo(dst io.Writer, result *adminapi.UploadResult) error {
	if _, err := dst.Write(utf8BOM); err != nil {
		return fmt.Errorf("write csv bom: %w", err)
	}

	writer := csv.NewWriter(dst)
	writer.UseCRLF = true

	if err := writer.Write(ResultColumns); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range result.Results {
		if err := writer.Write(resultRow(row)); err != nil {
			return fmt.Errorf("write csv row %d: %w", row.Index, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}
