package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rosterload/adminapi"
	"rosterload/internal/timeutil"
)

// ResultColumns is the column order shared by the CSV and Excel exports.
var ResultColumns = []string{"index", "status", "message", "email", "student_id", "provided"}

type Writer interface {
	Extension() string
	WriteTo(w io.Writer, result *adminapi.UploadResult) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteFile writes result to path with the given writer.
func WriteFile(path string, writer Writer, result *adminapi.UploadResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	if err := writer.WriteTo(file, result); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output %s: %w", path, err)
	}
	return nil
}

// Export writes result into dir under the bulk-upload-results-<stamp> name
// and returns the created path.
func Export(dir, format string, now time.Time, result *adminapi.UploadResult) (string, error) {
	writer, err := WriterForFormat(format)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, timeutil.ResultFileName(now, writer.Extension()))
	if err := WriteFile(path, writer, result); err != nil {
		return "", err
	}
	return path, nil
}

func resultRow(row adminapi.RowResult) []string {
	return []string{
		fmt.Sprint(row.Index),
		row.Status,
		row.Message,
		row.Email,
		string(row.StudentID),
		row.ProvidedText(),
	}
}

func normalizeFormat(value string) string {
	return strings.TrimPrefix(strings.TrimSpace(strings.ToLower(value)), ".")
}
