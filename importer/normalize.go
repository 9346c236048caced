package importer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader folds a header or field name into a comparable token:
// accents are stripped, letters lowercased, and everything outside [a-z0-9]
// removed. "Phone Number", "phone_number" and "PHONE-NUMBER" all become
// "phonenumber".
func NormalizeHeader(value string) string {
	decomposed := norm.NFD.String(strings.ToLower(value))

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
