package importer

import (
	"reflect"
	"testing"

	"rosterload/student"
)

func TestAutoMap_StudentSheet(t *testing.T) {
	t.Parallel()

	headers := []string{"Full Name", "E-Mail", "USN"}
	got := AutoMap(headers, student.Catalog()).Map()
	want := map[string]string{
		"Full Name": student.FieldName,
		"E-Mail":    student.FieldEmail,
		"USN":       student.FieldUSN,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected mapping: want %v, got %v", want, got)
	}
}

func TestAutoMap_PrefersExactMatchOverEarlierSubstring(t *testing.T) {
	t.Parallel()

	catalog := []string{"primary_email", "email"}
	got := AutoMap([]string{"email"}, catalog)

	if field, _ := got.Get("email"); field != "email" {
		t.Fatalf("expected exact match email, got %q", field)
	}
}

func TestAutoMap_ExactHeaderWinsOverEarlierSubstringHeader(t *testing.T) {
	t.Parallel()

	got := AutoMap([]string{"Student Email", "Email"}, student.Catalog())

	if field, _ := got.Get("Email"); field != student.FieldEmail {
		t.Fatalf("expected Email -> email, got %q", field)
	}
	if field, ok := got.Get("Student Email"); ok {
		t.Fatalf("expected Student Email to stay unmapped, got %q", field)
	}
}

func TestAutoMap_SubstringFallbackUsesCatalogOrder(t *testing.T) {
	t.Parallel()

	headers := []string{"Student Name", "Guardian Name", "Phone", "Pin"}
	got := AutoMap(headers, student.Catalog()).Map()
	want := map[string]string{
		"Student Name":  student.FieldName,
		"Guardian Name": student.FieldGuardianName,
		"Phone":         student.FieldPhoneNumber,
		"Pin":           student.FieldPincode,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected mapping: want %v, got %v", want, got)
	}
}

func TestAutoMap_LeavesUnmatchedAndSymbolOnlyHeaders(t *testing.T) {
	t.Parallel()

	got := AutoMap([]string{"Hobbies", "#", "Email"}, student.Catalog())
	if _, ok := got.Get("Hobbies"); ok {
		t.Fatalf("Hobbies must stay unmapped")
	}
	if _, ok := got.Get("#"); ok {
		t.Fatalf("symbol-only header must stay unmapped")
	}
	if field, _ := got.Get("Email"); field != student.FieldEmail {
		t.Fatalf("expected Email mapped to email, got %q", field)
	}
}

func TestAutoMap_NeverAssignsFieldTwice(t *testing.T) {
	t.Parallel()

	headerSets := [][]string{
		{"Email", "email", "EMAIL", "E_mail"},
		{"Name", "Student Name", "Guardian Name", "Name of Guardian"},
		{"Phone", "Phone Number", "Contact", "Guardian Contact"},
		{"a", "e", "i", "o", "u", "n"},
		{"State", "Statement", "Estate", "City", "Address", "Address Line 2"},
	}

	for _, headers := range headerSets {
		m := AutoMap(headers, student.Catalog())
		assertUniqueValues(t, m)
	}
}

func TestAutoMap_Deterministic(t *testing.T) {
	t.Parallel()

	headers := []string{"Name", "Email", "Phone", "Semester", "Sem", "CGPA", "Pincode", "Branch"}
	first := AutoMap(headers, student.Catalog()).Pairs()
	for i := 0; i < 20; i++ {
		if next := AutoMap(headers, student.Catalog()).Pairs(); !reflect.DeepEqual(first, next) {
			t.Fatalf("auto map not deterministic: %+v vs %+v", first, next)
		}
	}
}
