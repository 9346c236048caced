package classify

import (
	"strings"

	"rosterload/adminapi"
)

// Bucket groups per-row statuses for display and summaries.
type Bucket string

const (
	BucketCreated     Bucket = "created"
	BucketEmailFailed Bucket = "email_failed"
	BucketUpdated     Bucket = "updated"
	BucketSkipped     Bucket = "skipped"
	BucketError       Bucket = "error"
)

// Status maps a server status string to its bucket. Anything outside the
// known vocabulary is an error.
func Status(status string) Bucket {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "created":
		return BucketCreated
	case "created_but_notification_failed":
		return BucketEmailFailed
	case "updated":
		return BucketUpdated
	case "skipped":
		return BucketSkipped
	default:
		return BucketError
	}
}

// Label is the short operator facing name of a bucket.
func Label(bucket Bucket) string {
	switch bucket {
	case BucketCreated:
		return "created"
	case BucketEmailFailed:
		return "email failed"
	case BucketUpdated:
		return "updated"
	case BucketSkipped:
		return "skipped"
	default:
		return "error"
	}
}

type Summary struct {
	Created     int
	EmailFailed int
	Updated     int
	Skipped     int
	Errors      int
}

func (s Summary) Total() int {
	return s.Created + s.EmailFailed + s.Updated + s.Skipped + s.Errors
}

func Summarize(results []adminapi.RowResult) Summary {
	var summary Summary
	for _, result := range results {
		switch Status(result.Status) {
		case BucketCreated:
			summary.Created++
		case BucketEmailFailed:
			summary.EmailFailed++
		case BucketUpdated:
			summary.Updated++
		case BucketSkipped:
			summary.Skipped++
		default:
			summary.Errors++
		}
	}
	return summary
}

// Failed returns the rows that ended in the error bucket.
func Failed(results []adminapi.RowResult) []adminapi.RowResult {
	out := make([]adminapi.RowResult, 0)
	for _, result := range results {
		if Status(result.Status) == BucketError {
			out = append(out, result)
		}
	}
	return out
}
