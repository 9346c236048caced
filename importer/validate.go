package importer

import (
	"fmt"
	"strings"

	"rosterload/student"
)

type Mode string

const (
	ModeInsert Mode = "insert"
	ModeUpsert Mode = "upsert"
)

func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeInsert:
		return ModeInsert, nil
	case ModeUpsert:
		return ModeUpsert, nil
	default:
		return "", fmt.Errorf("invalid mode %q (supported: insert|upsert)", value)
	}
}

// Operation selects how the mapped rows are written. PrimaryKey only
// matters for upsert.
type Operation struct {
	Mode       Mode   `json:"mode"`
	PrimaryKey string `json:"primaryKey,omitempty"`
}

// Verdict tells whether a mapping may be submitted. Reasons lists every unmet
// condition and is empty exactly when CanSubmit is true.
type Verdict struct {
	CanSubmit bool     `json:"canSubmit"`
	Reasons   []string `json:"reasons"`
}

// Validate checks that a submit would not be trivially incomplete. The
// server still validates every row.
func Validate(mapping *Mapping, op Operation) Verdict {
	reasons := make([]string, 0, 3)

	if mapping == nil || mapping.Len() == 0 {
		reasons = append(reasons, "map at least one column to a student field")
		mapping = NewMapping()
	}

	switch op.Mode {
	case ModeInsert:
		if !mapping.Has(student.FieldName) {
			reasons = append(reasons, "insert requires a column mapped to name")
		}
		if !mapping.Has(student.FieldEmail) {
			reasons = append(reasons, "insert requires a column mapped to email")
		}
	case ModeUpsert:
		reasons = append(reasons, upsertReasons(mapping, op.PrimaryKey)...)
	default:
		reasons = append(reasons, fmt.Sprintf("unknown mode %q (supported: insert|upsert)", op.Mode))
	}

	return Verdict{CanSubmit: len(reasons) == 0, Reasons: reasons}
}

func upsertReasons(mapping *Mapping, primaryKey string) []string {
	if primaryKey == "" {
		return []string{"upsert requires a primary key (one of: " + strings.Join(student.PrimaryCandidates(), ", ") + ")"}
	}

	reasons := make([]string, 0, 2)
	if !student.IsPrimaryCandidate(primaryKey) {
		reasons = append(reasons, fmt.Sprintf(
			"primary key %q is not allowed (one of: %s)",
			primaryKey,
			strings.Join(student.PrimaryCandidates(), ", "),
		))
	}
	if !mapping.Has(primaryKey) {
		reasons = append(reasons, fmt.Sprintf("upsert requires a column mapped to the primary key %s", primaryKey))
	}

	hasOther := false
	for _, field := range mapping.Values() {
		if field != primaryKey {
			hasOther = true
			break
		}
	}
	if !hasOther {
		reasons = append(reasons, fmt.Sprintf("upsert requires at least one mapped field besides %s", primaryKey))
	}
	return reasons
}
