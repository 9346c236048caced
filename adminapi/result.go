package adminapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UploadResult is the server's answer to a bulk insert or upsert.
type UploadResult struct {
	TotalReceived int         `json:"total_received"`
	CreatedCount  *int        `json:"created_count,omitempty"`
	UpdatedCount  *int        `json:"updated_count,omitempty"`
	Results       []RowResult `json:"results"`
}

// RowResult is the outcome for one submitted row. Provided echoes the
// record the server received, verbatim.
type RowResult struct {
	Index     int             `json:"index"`
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	StudentID FlexibleString  `json:"student_id,omitempty"`
	Email     string          `json:"email,omitempty"`
	Provided  json.RawMessage `json:"provided,omitempty"`
}

// FlexibleString accepts identifiers the server sends either as JSON
// strings or as numbers.
type FlexibleString string

func (s FlexibleString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s *FlexibleString) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "" || text == "null" {
		*s = ""
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*s = FlexibleString(asString)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err == nil {
		if _, err := strconv.ParseFloat(number.String(), 64); err == nil {
			*s = FlexibleString(number.String())
			return nil
		}
	}

	return fmt.Errorf("unsupported id value %q", text)
}

// ProvidedText renders the provided record as compact JSON, or "" when the
// server did not echo it.
func (r RowResult) ProvidedText() string {
	raw := strings.TrimSpace(string(r.Provided))
	if raw == "" || raw == "null" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return raw
	}
	return buf.String()
}
