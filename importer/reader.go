package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrEmptySheet      = errors.New("sheet is empty")
	ErrNoHeaders       = errors.New("header row is empty")
	ErrNoDataRows      = errors.New("sheet has no data rows")
)

var acceptedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
}

var acceptedMIMETypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel": true,
}

type Reader interface {
	Read(path string) (*Table, error)
}

// CheckAccepted rejects anything that is not an Excel workbook, judged by
// file extension or, failing that, by the declared MIME type.
func CheckAccepted(name, mimeType string) error {
	if acceptedExtensions[strings.ToLower(filepath.Ext(name))] {
		return nil
	}
	mediaType, _, _ := strings.Cut(mimeType, ";")
	if acceptedMIMETypes[strings.ToLower(strings.TrimSpace(mediaType))] {
		return nil
	}
	return fmt.Errorf("%w: %s (please upload an Excel file: .xlsx or .xls)", ErrUnsupportedFile, filepath.Base(name))
}

func ReaderForFile(name, mimeType string) (Reader, error) {
	if err := CheckAccepted(name, mimeType); err != nil {
		return nil, err
	}
	return &ExcelReader{}, nil
}
