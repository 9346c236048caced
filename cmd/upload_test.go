package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"rosterload/adminapi"
	"rosterload/config"
	"rosterload/importer"
	"rosterload/student"
	"rosterload/wizard"
)

type stubClient struct{}

func (stubClient) AddBulkStudents(context.Context, []student.Record) (*adminapi.UploadResult, error) {
	return &adminapi.UploadResult{Results: []adminapi.RowResult{}}, nil
}

func (stubClient) UpsertBulkStudents(context.Context, string, []student.Record) (*adminapi.UploadResult, error) {
	return &adminapi.UploadResult{Results: []adminapi.RowResult{}}, nil
}

func TestParseMappingOverride(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    importer.Pair
		wantErr bool
	}{
		{name: "simple", raw: "Mobile=phone_number", want: importer.Pair{Header: "Mobile", Field: "phone_number"}},
		{name: "trims and lowercases field", raw: " Roll No = USN ", want: importer.Pair{Header: "Roll No", Field: "usn"}},
		{name: "header containing equals", raw: "a=b=email", want: importer.Pair{Header: "a=b", Field: "email"}},
		{name: "empty field unmaps", raw: "Remarks=", want: importer.Pair{Header: "Remarks"}},
		{name: "missing separator", raw: "Remarks", wantErr: true},
		{name: "missing header", raw: "=email", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMappingOverride(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestResolveOperation(t *testing.T) {
	defaults := config.ImportConfig{Mode: "upsert", PrimaryKey: "email"}

	op, err := resolveOperation(defaults, "", "")
	if err != nil {
		t.Fatalf("resolve defaults: %v", err)
	}
	if op.Mode != importer.ModeUpsert || op.PrimaryKey != "email" {
		t.Fatalf("unexpected default operation: %+v", op)
	}

	op, err = resolveOperation(defaults, "insert", " USN ")
	if err != nil {
		t.Fatalf("resolve flags: %v", err)
	}
	if op.Mode != importer.ModeInsert || op.PrimaryKey != "usn" {
		t.Fatalf("unexpected flag operation: %+v", op)
	}

	if _, err := resolveOperation(defaults, "merge", ""); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestPrepareUploadAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.xlsx")
	file := excelize.NewFile()
	sheet := file.GetSheetName(0)
	rows := [][]any{
		{"Student Name", "Email", "Mobile", "Remarks"},
		{"Asha", "asha@x.com", 9876543210, "ok"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := file.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	_ = file.Close()

	wiz, err := wizard.New(wizard.Options{Client: stubClient{}})
	if err != nil {
		t.Fatalf("new wizard: %v", err)
	}

	state, err := prepareUpload(context.Background(), wiz, path, []string{"Mobile=phone_number", "Remarks=city"}, []string{"Remarks"})
	if err != nil {
		t.Fatalf("prepare upload: %v", err)
	}
	if field, _ := state.Mapping.Get("Mobile"); field != student.FieldPhoneNumber {
		t.Fatalf("expected Mobile -> phone_number, got %q", field)
	}
	if _, ok := state.Mapping.Get("Remarks"); ok {
		t.Fatalf("expected Remarks to be unmapped")
	}
	if !state.Verdict.CanSubmit {
		t.Fatalf("expected submittable verdict, got %v", state.Verdict.Reasons)
	}

	var buf bytes.Buffer
	printMapping(&buf, state.Table.Headers, state.Mapping)
	if !strings.Contains(buf.String(), "Remarks      -> (unmapped)") {
		t.Fatalf("unexpected mapping output:\n%s", buf.String())
	}
}

func TestPrepareUploadRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.xlsx")
	file := excelize.NewFile()
	row := []any{"Name", "Email"}
	if err := file.SetSheetRow(file.GetSheetName(0), "A1", &row); err != nil {
		t.Fatalf("set header row: %v", err)
	}
	data := []any{"Asha", "asha@x.com"}
	if err := file.SetSheetRow(file.GetSheetName(0), "A2", &data); err != nil {
		t.Fatalf("set data row: %v", err)
	}
	if err := file.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	_ = file.Close()

	wiz, err := wizard.New(wizard.Options{Client: stubClient{}})
	if err != nil {
		t.Fatalf("new wizard: %v", err)
	}
	_, err = prepareUpload(context.Background(), wiz, path, []string{"Name=nickname"}, nil)
	if !errors.Is(err, importer.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestDryRunUploadPrintsPayloadWithoutSending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.xlsx")
	file := excelize.NewFile()
	header := []any{"Student Name", "Email", "Mobile"}
	if err := file.SetSheetRow(file.GetSheetName(0), "A1", &header); err != nil {
		t.Fatalf("set header row: %v", err)
	}
	data := []any{"Asha", "asha@x.com", 9876543210}
	if err := file.SetSheetRow(file.GetSheetName(0), "A2", &data); err != nil {
		t.Fatalf("set data row: %v", err)
	}
	if err := file.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	_ = file.Close()

	var buf bytes.Buffer
	operation := importer.Operation{Mode: importer.ModeInsert}
	if err := dryRunUpload(context.Background(), &buf, path, operation, []string{"Mobile=phone_number"}, nil); err != nil {
		t.Fatalf("dry run: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Ready to submit",
		"Dry run: 1 rows would be sent.",
		`"phone_number": "9876543210"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestOfflineClientRefusesToSend(t *testing.T) {
	if _, err := (offlineClient{}).AddBulkStudents(context.Background(), nil); !errors.Is(err, errOffline) {
		t.Fatalf("expected errOffline from insert, got %v", err)
	}
	if _, err := (offlineClient{}).UpsertBulkStudents(context.Background(), student.FieldEmail, nil); !errors.Is(err, errOffline) {
		t.Fatalf("expected errOffline from upsert, got %v", err)
	}
}

func TestPrintUploadResultListsFailures(t *testing.T) {
	created := 1
	var buf bytes.Buffer
	printUploadResult(&buf, &adminapi.UploadResult{
		TotalReceived: 3,
		CreatedCount:  &created,
		Results: []adminapi.RowResult{
			{Index: 0, Status: "created"},
			{Index: 1, Status: "skipped"},
			{Index: 2, Status: "failed", Message: "Invalid email", Email: "bad@"},
		},
	})

	text := buf.String()
	for _, want := range []string{
		"Received: 3, Created: 1, Email failed: 0, Updated: 0, Skipped: 1, Errors: 1",
		"Server counts. Created: 1, Updated: -",
		"row 2 <bad@>: Invalid email",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestPrintVerdict(t *testing.T) {
	var buf bytes.Buffer
	printVerdict(&buf, importer.Operation{Mode: importer.ModeUpsert, PrimaryKey: "usn"}, importer.Verdict{
		Reasons: []string{"upsert requires a column mapped to the primary key usn"},
	})
	if !strings.Contains(buf.String(), "Cannot submit (upsert on usn):") {
		t.Fatalf("unexpected verdict output:\n%s", buf.String())
	}
}

func TestFormatCell(t *testing.T) {
	if got := formatCell(float64(9876543210)); got != "9876543210" {
		t.Fatalf("expected plain number, got %q", got)
	}
	if got := formatCell(nil); got != "" {
		t.Fatalf("expected empty cell, got %q", got)
	}
}
