// Package web serves the import wizard as a localhost-only single-user JSON
// API; it has no auth or CSRF protection in this mode.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"rosterload/adminapi"
	"rosterload/importer"
	"rosterload/internal/classify"
	"rosterload/internal/timeutil"
	"rosterload/output"
	"rosterload/student"
	"rosterload/wizard"
)

const (
	previewRows    = 10
	maxUploadBytes = 32 << 20
	maxNotices     = 20
)

type Config struct {
	Client    adminapi.Client
	Recorder  wizard.Recorder
	Operation importer.Operation
	// SubmitTimeout bounds the single bulk request; zero means no limit.
	SubmitTimeout time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

type Server struct {
	wizard        *wizard.Wizard
	notices       *noticeLog
	submitTimeout time.Duration
	now           func() time.Time
	mux           *http.ServeMux
}

type notice struct {
	Kind    wizard.NoticeKind `json:"kind"`
	Message string            `json:"message"`
	At      time.Time         `json:"at"`
}

// noticeLog keeps the latest notices for the state endpoint and forwards
// every notice to slog.
type noticeLog struct {
	mu      sync.Mutex
	entries []notice
	next    wizard.Notifier
	now     func() time.Time
}

func (l *noticeLog) Notify(kind wizard.NoticeKind, message string) {
	l.next.Notify(kind, message)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, notice{Kind: kind, Message: message, At: l.now()})
	if len(l.entries) > maxNotices {
		l.entries = l.entries[len(l.entries)-maxNotices:]
	}
}

func (l *noticeLog) snapshot() []notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]notice{}, l.entries...)
}

type stateView struct {
	Step       wizard.Step            `json:"step"`
	Source     string                 `json:"source,omitempty"`
	Headers    []string               `json:"headers,omitempty"`
	Rows       [][]any                `json:"rows,omitempty"`
	RowCount   int                    `json:"rowCount"`
	Mapping    *importer.Mapping      `json:"mapping,omitempty"`
	Operation  *importer.Operation    `json:"operation,omitempty"`
	Verdict    *importer.Verdict      `json:"verdict,omitempty"`
	Result     *adminapi.UploadResult `json:"result,omitempty"`
	Summary    *summaryView           `json:"summary,omitempty"`
	RunID      string                 `json:"runId,omitempty"`
	Submitting bool                   `json:"submitting"`
	Notices    []notice               `json:"notices"`
}

type summaryView struct {
	Created     int `json:"created"`
	EmailFailed int `json:"emailFailed"`
	Updated     int `json:"updated"`
	Skipped     int `json:"skipped"`
	Errors      int `json:"errors"`
}

type mappingRequest struct {
	Header string `json:"header"`
	Field  string `json:"field"`
}

type operationRequest struct {
	Mode       *string `json:"mode"`
	PrimaryKey *string `json:"primaryKey"`
}

type fieldsResponse struct {
	Fields            []string `json:"fields"`
	PrimaryCandidates []string `json:"primaryCandidates"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	notices := &noticeLog{next: wizard.SlogNotifier{Logger: logger}, now: now}
	wiz, err := wizard.New(wizard.Options{
		Client:    cfg.Client,
		Notifier:  notices,
		Recorder:  cfg.Recorder,
		Operation: cfg.Operation,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}

	server := &Server{
		wizard:        wiz,
		notices:       notices,
		submitTimeout: cfg.SubmitTimeout,
		now:           now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", server.handleState)
	mux.HandleFunc("GET /api/fields", server.handleFields)
	mux.HandleFunc("POST /api/upload", server.handleUpload)
	mux.HandleFunc("POST /api/confirm", server.handleConfirm)
	mux.HandleFunc("PUT /api/mapping", server.handleMapping)
	mux.HandleFunc("PUT /api/operation", server.handleOperation)
	mux.HandleFunc("POST /api/submit", server.handleSubmit)
	mux.HandleFunc("POST /api/back", server.handleBack)
	mux.HandleFunc("POST /api/reset", server.handleReset)
	mux.HandleFunc("GET /api/results.csv", server.handleResults(&output.CSVWriter{}, "text/csv; charset=utf-8"))
	mux.HandleFunc("GET /api/results.json", server.handleResults(&output.JSONWriter{}, "application/json"))
	mux.HandleFunc("GET /api/results.xlsx", server.handleResults(
		&output.ExcelWriter{},
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	))
	server.mux = mux

	return server, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fieldsResponse{
		Fields:            student.Catalog(),
		PrimaryCandidates: student.PrimaryCandidates(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("missing file upload"))
		return
	}
	defer file.Close()

	if err := s.wizard.LoadUpload(header.Filename, header.Header.Get("Content-Type"), file); err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			// Unreadable workbooks are a client problem.
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.wizard.Confirm())
}

func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	var body mappingRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(body.Header) == "" {
		writeError(w, http.StatusBadRequest, errors.New("header is required"))
		return
	}
	s.respond(w, s.wizard.SetMapping(body.Header, body.Field))
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	var body operationRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if body.Mode != nil {
		mode, err := importer.ParseMode(*body.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.wizard.SetMode(mode); err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
	}
	if body.PrimaryKey != nil {
		if err := s.wizard.SetPrimaryKey(*body.PrimaryKey); err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.submitTimeout)
		defer cancel()
	}

	_, err := s.wizard.Submit(ctx)
	s.respond(w, err)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.wizard.Back())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.wizard.Reset())
}

func (s *Server) handleResults(writer output.Writer, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		complete, ok := s.wizard.State().(wizard.CompleteState)
		if !ok {
			writeError(w, http.StatusConflict, errors.New("no completed upload to export"))
			return
		}

		name := timeutil.ResultFileName(s.now(), writer.Extension())
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		if err := writer.WriteTo(w, complete.Result); err != nil {
			slog.Error("write results export", "format", writer.Extension(), "error", err)
		}
	}
}

func (s *Server) respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) view() stateView {
	out := stateView{
		Submitting: s.wizard.Submitting(),
		Notices:    s.notices.snapshot(),
	}

	switch state := s.wizard.State().(type) {
	case wizard.UploadState:
		out.Step = state.Step()
	case wizard.PreviewState:
		out.Step = state.Step()
		out.Source = state.Source
		out.Headers = state.Table.Headers
		out.Rows = state.Table.Head(previewRows)
		out.RowCount = len(state.Table.Rows)
		out.Mapping = state.Mapping
	case wizard.MappingState:
		out.Step = state.Step()
		out.Source = state.Source
		out.Headers = state.Table.Headers
		out.Rows = state.Table.Head(previewRows)
		out.RowCount = len(state.Table.Rows)
		out.Mapping = state.Mapping
		out.Operation = &state.Operation
		out.Verdict = &state.Verdict
	case wizard.CompleteState:
		out.Step = state.Step()
		out.Source = state.Source
		out.Headers = state.Table.Headers
		out.RowCount = len(state.Table.Rows)
		out.Mapping = state.Mapping
		out.Operation = &state.Operation
		out.Result = state.Result
		out.RunID = state.RunID
		summary := classify.Summarize(state.Result.Results)
		out.Summary = &summaryView{
			Created:     summary.Created,
			EmailFailed: summary.EmailFailed,
			Updated:     summary.Updated,
			Skipped:     summary.Skipped,
			Errors:      summary.Errors,
		}
	}
	return out
}

func errorStatus(err error) int {
	var apiErr *adminapi.APIError
	switch {
	case errors.Is(err, wizard.ErrInvalidTransition), errors.Is(err, wizard.ErrSubmitInFlight):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrNotSubmittable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, importer.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, wizard.ErrUnknownHeader),
		errors.Is(err, importer.ErrUnknownField),
		errors.Is(err, importer.ErrEmptySheet),
		errors.Is(err, importer.ErrNoHeaders),
		errors.Is(err, importer.ErrNoDataRows):
		return http.StatusBadRequest
	case errors.As(err, &apiErr), errors.Is(err, adminapi.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
