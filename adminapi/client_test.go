package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"rosterload/student"
)

type fakeDoer struct {
	fn func(*http.Request) (*http.Response, error)
}

func (f fakeDoer) Do(req *http.Request) (*http.Response, error) {
	return f.fn(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newTestClient(t *testing.T, doer httpDoer) *HTTPClient {
	t.Helper()
	client, err := NewClient(ClientConfig{
		BaseURL:    "https://admin.example.edu/api/",
		Token:      "secret-token",
		UserAgent:  "rosterload-test",
		HTTPClient: doer,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestHTTPClient_AddBulkStudents(t *testing.T) {
	t.Parallel()

	var seenBody map[string]any
	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/students/add-bulk-students" {
			return nil, fmt.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Fatalf("unexpected Authorization header: %q", got)
		}
		if got := r.Header.Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
			t.Fatalf("unexpected Content-Type: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&seenBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{
			"total_received": 2,
			"created_count": 1,
			"results": [
				{"index": 0, "status": "created", "student_id": 42, "email": "asha@x.com", "provided": {"name": "Asha", "email": "asha@x.com"}},
				{"index": 1, "status": "Duplicate email", "message": "email already exists"}
			]
		}`), nil
	}}

	client := newTestClient(t, doer)
	result, err := client.AddBulkStudents(context.Background(), []student.Record{
		{"name": "Asha", "email": "asha@x.com", "phone_number": "9876543210"},
		{"name": "Ravi", "email": "ravi@x.com"},
	})
	if err != nil {
		t.Fatalf("add bulk students: %v", err)
	}

	rows, ok := seenBody["mappedData"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("expected mappedData with 2 rows, got %#v", seenBody)
	}
	first := rows[0].(map[string]any)
	if first["phone_number"] != "9876543210" {
		t.Fatalf("expected phone string in payload, got %#v", first["phone_number"])
	}

	if result.TotalReceived != 2 || result.CreatedCount == nil || *result.CreatedCount != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.UpdatedCount != nil {
		t.Fatalf("expected absent updated_count to stay nil")
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected 2 row results, got %d", len(result.Results))
	}
	if result.Results[0].StudentID != "42" {
		t.Fatalf("expected numeric student id to decode as string, got %q", result.Results[0].StudentID)
	}
	if got := result.Results[0].ProvidedText(); got != `{"name":"Asha","email":"asha@x.com"}` {
		t.Fatalf("unexpected provided text: %s", got)
	}
	if got := result.Results[1].ProvidedText(); got != "" {
		t.Fatalf("expected empty provided text, got %q", got)
	}
}

func TestHTTPClient_UpsertBulkStudents(t *testing.T) {
	t.Parallel()

	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/api/students/upsert-bulk-students" {
			return nil, fmt.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload upsertBulkRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.PrimaryField != "usn" || len(payload.Students) != 1 {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		return jsonResponse(http.StatusOK, `{"total_received":1,"updated_count":1,"results":[{"index":0,"status":"updated","student_id":"s-1"}]}`), nil
	}}

	client := newTestClient(t, doer)
	result, err := client.UpsertBulkStudents(context.Background(), "usn", []student.Record{{"usn": "1NI20CS001", "cgpa": 9.1}})
	if err != nil {
		t.Fatalf("upsert bulk students: %v", err)
	}
	if result.UpdatedCount == nil || *result.UpdatedCount != 1 || result.Results[0].Status != "updated" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestHTTPClient_ErrorResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
		wantErr     error
	}{
		{name: "json message", status: http.StatusBadRequest, body: `{"message":"primaryField is invalid"}`, wantStatus: 400, wantMessage: "primaryField is invalid"},
		{name: "json error key", status: http.StatusUnauthorized, body: `{"error":"token expired"}`, wantStatus: 401, wantMessage: "token expired"},
		{name: "plain text", status: http.StatusBadGateway, body: "upstream down", wantStatus: 502, wantMessage: "upstream down"},
		{name: "empty body", status: http.StatusInternalServerError, body: "", wantStatus: 500, wantMessage: "Internal Server Error"},
		{name: "missing results", status: http.StatusOK, body: `{"total_received":3}`, wantErr: ErrMalformedResponse},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: ErrMalformedResponse},
		{name: "empty success body", status: http.StatusOK, body: ``, wantErr: ErrMalformedResponse},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
				return jsonResponse(tc.status, tc.body), nil
			}}
			client := newTestClient(t, doer)
			_, err := client.AddBulkStudents(context.Background(), []student.Record{{"name": "x"}})
			if err == nil {
				t.Fatalf("expected error")
			}

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != tc.wantStatus || apiErr.Message != tc.wantMessage {
				t.Fatalf("unexpected api error: %+v", apiErr)
			}
		})
	}
}

func TestHTTPClient_TransportError(t *testing.T) {
	t.Parallel()

	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}}
	client := newTestClient(t, doer)
	_, err := client.UpsertBulkStudents(context.Background(), "email", []student.Record{{"email": "a@x.com"}})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestNewClient_RejectsInvalidBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "admin.example.edu", "://broken"} {
		if _, err := NewClient(ClientConfig{BaseURL: raw}); err == nil {
			t.Fatalf("expected error for base URL %q", raw)
		}
	}
}

func TestHTTPClient_RejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	}}
	client := newTestClient(t, doer)
	if _, err := client.AddBulkStudents(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty insert payload")
	}
	if _, err := client.UpsertBulkStudents(context.Background(), "", []student.Record{{"name": "x"}}); err == nil {
		t.Fatalf("expected error for missing primary field")
	}
}

func TestFlexibleString_Unmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    FlexibleString
		wantErr bool
	}{
		{input: `"abc"`, want: "abc"},
		{input: `123`, want: "123"},
		{input: `null`, want: ""},
		{input: `{"a":1}`, wantErr: true},
	}
	for _, tc := range tests {
		var got FlexibleString
		err := json.Unmarshal([]byte(tc.input), &got)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("expected error for %s", tc.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("unmarshal %s: want %q, got %q", tc.input, tc.want, got)
		}
	}
}
