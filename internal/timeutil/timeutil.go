package timeutil

import (
	"strings"
	"time"
)

const isoMillisLayout = "2006-01-02T15:04:05.000Z07:00"

// FileStamp renders t as UTC ISO 8601 with millisecond precision and with
// ':' and '.' replaced by '-', so the result is safe inside file names.
func FileStamp(t time.Time) string {
	iso := t.UTC().Format(isoMillisLayout)
	return strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}

// ResultFileName returns bulk-upload-results-<stamp>.<ext>.
func ResultFileName(t time.Time, ext string) string {
	return "bulk-upload-results-" + FileStamp(t) + "." + strings.TrimPrefix(ext, ".")
}
