package importer

import (
	"reflect"
	"testing"

	"rosterload/student"
)

func TestProject_CoercesPhoneAndPincodeToString(t *testing.T) {
	t.Parallel()

	table := &Table{
		Headers: []string{"Phone", "PIN", "CGPA", "Year"},
		Rows: [][]any{
			{float64(9876543210), float64(560001), 8.75, float64(3)},
			{nil, "070001", nil, nil},
		},
	}
	m := mappingOf(t,
		Pair{Header: "Phone", Field: student.FieldPhoneNumber},
		Pair{Header: "PIN", Field: student.FieldPincode},
		Pair{Header: "CGPA", Field: student.FieldCGPA},
		Pair{Header: "Year", Field: student.FieldYearOfStudy},
	)

	records := Project(table, m)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first[student.FieldPhoneNumber] != "9876543210" {
		t.Fatalf("expected phone string, got %#v", first[student.FieldPhoneNumber])
	}
	if first[student.FieldPincode] != "560001" {
		t.Fatalf("expected pincode string, got %#v", first[student.FieldPincode])
	}
	if first[student.FieldCGPA] != 8.75 {
		t.Fatalf("expected cgpa to pass through as number, got %#v", first[student.FieldCGPA])
	}
	if first[student.FieldYearOfStudy] != float64(3) {
		t.Fatalf("expected year to pass through as number, got %#v", first[student.FieldYearOfStudy])
	}

	second := records[1]
	if second[student.FieldPhoneNumber] != nil {
		t.Fatalf("expected nil phone to stay nil, got %#v", second[student.FieldPhoneNumber])
	}
	if second[student.FieldPincode] != "070001" {
		t.Fatalf("expected leading zero preserved, got %#v", second[student.FieldPincode])
	}
}

func TestProject_ShortRowsAndMissingHeaders(t *testing.T) {
	t.Parallel()

	table := &Table{
		Headers: []string{"Name", "Email", "City"},
		Rows:    [][]any{{"Ravi"}},
	}
	m := mappingOf(t,
		Pair{Header: "Name", Field: student.FieldName},
		Pair{Header: "City", Field: student.FieldCity},
		Pair{Header: "Not In Sheet", Field: student.FieldUSN},
	)

	got := Project(table, m)
	want := []student.Record{{student.FieldName: "Ravi", student.FieldCity: nil}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected records: want %#v, got %#v", want, got)
	}
}

func TestImportPipeline_EndToEnd(t *testing.T) {
	t.Parallel()

	table := &Table{
		Headers: []string{"Full Name", "E-Mail", "USN"},
		Rows:    [][]any{{"Asha Rao", "asha@x.com", "1NI20CS001"}},
	}

	m := AutoMap(table.Headers, student.Catalog())
	wantMapping := map[string]string{"Full Name": "name", "E-Mail": "email", "USN": "usn"}
	if !reflect.DeepEqual(m.Map(), wantMapping) {
		t.Fatalf("unexpected auto mapping: %v", m.Map())
	}

	verdict := Validate(m, Operation{Mode: ModeInsert})
	if !verdict.CanSubmit {
		t.Fatalf("expected submittable insert, reasons: %v", verdict.Reasons)
	}

	records := Project(table, m)
	want := []student.Record{{"name": "Asha Rao", "email": "asha@x.com", "usn": "1NI20CS001"}}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("unexpected records: want %#v, got %#v", want, records)
	}
}
