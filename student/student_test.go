package student

import "testing"

func TestCatalogIsACopy(t *testing.T) {
	t.Parallel()

	fields := Catalog()
	if len(fields) != 17 {
		t.Fatalf("expected 17 catalog fields, got %d", len(fields))
	}
	if fields[0] != FieldName || fields[len(fields)-1] != FieldGuardianContact {
		t.Fatalf("unexpected catalog order: %v", fields)
	}

	fields[0] = "mutated"
	if Catalog()[0] != FieldName {
		t.Fatalf("catalog must not be mutable through returned slice")
	}
}

func TestPrimaryCandidatesAreCatalogFields(t *testing.T) {
	t.Parallel()

	for _, field := range PrimaryCandidates() {
		if !IsField(field) {
			t.Fatalf("primary candidate %q is not a catalog field", field)
		}
		if !IsPrimaryCandidate(field) {
			t.Fatalf("expected %q to be a primary candidate", field)
		}
	}
	if IsPrimaryCandidate(FieldName) {
		t.Fatalf("name must not be a primary candidate")
	}
}

func TestStringCoerced(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field string
		want  bool
	}{
		{field: FieldPhoneNumber, want: true},
		{field: FieldPincode, want: true},
		{field: FieldCGPA, want: false},
		{field: FieldGuardianContact, want: false},
	}
	for _, tc := range tests {
		if got := StringCoerced(tc.field); got != tc.want {
			t.Fatalf("StringCoerced(%q): want %v, got %v", tc.field, tc.want, got)
		}
	}
}
