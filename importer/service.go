package importer

import (
	"fmt"
	"io"
	"path/filepath"
)

// Load checks the file type and parses the first sheet of the workbook at path.
func Load(path string) (*Table, error) {
	reader, err := ReaderForFile(path, "")
	if err != nil {
		return nil, err
	}
	return reader.Read(path)
}

// LoadUpload parses a workbook received as an upload. name and mimeType are
// the client supplied file name and content type.
func LoadUpload(name, mimeType string, src io.Reader) (*Table, error) {
	if err := CheckAccepted(name, mimeType); err != nil {
		return nil, err
	}
	table, err := (&ExcelReader{}).ReadFrom(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return table, nil
}
