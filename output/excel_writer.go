package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"rosterload/adminapi"
)

const resultSheet = "Results"

type ExcelWriter struct{}

func (w *ExcelWriter) Extension() string {
	return "xlsx"
}

func (w *ExcelWriter) WriteTo(dst io.Writer, result *adminapi.UploadResult) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), resultSheet); err != nil {
		return fmt.Errorf("rename excel sheet: %w", err)
	}

	for col, header := range ResultColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(resultSheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, row := range result.Results {
		line := i + 2
		for col, value := range resultRow(row) {
			cell, _ := excelize.CoordinatesToCellName(col+1, line)
			var err error
			if col == 0 {
				err = file.SetCellValue(resultSheet, cell, row.Index)
			} else {
				err = file.SetCellStr(resultSheet, cell, value)
			}
			if err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.Write(dst); err != nil {
		return fmt.Errorf("write excel output: %w", err)
	}
	return nil
}
