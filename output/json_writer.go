package output

import (
	"encoding/json"
	"fmt"
	"io"

	"rosterload/adminapi"
)

type JSONWriter struct{}

func (w *JSONWriter) Extension() string {
	return "json"
}

func (w *JSONWriter) WriteTo(dst io.Writer, result *adminapi.UploadResult) error {
	encoder := json.NewEncoder(dst)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}
