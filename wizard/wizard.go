package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rosterload/adminapi"
	"rosterload/importer"
	"rosterload/internal/classify"
	"rosterload/storage"
	"rosterload/student"
)

var (
	ErrInvalidTransition = errors.New("invalid wizard transition")
	ErrSubmitInFlight    = errors.New("a submit is already in progress")
	ErrNotSubmittable    = errors.New("mapping cannot be submitted")
	ErrUnknownHeader     = errors.New("unknown spreadsheet header")
)

// Recorder persists completed runs. *storage.SQLiteStore satisfies it.
type Recorder interface {
	SaveRun(run storage.Run, result *adminapi.UploadResult) (storage.Run, error)
}

type Options struct {
	Client   adminapi.Client
	Notifier Notifier
	// Recorder is optional; without it runs get an unsaved ID.
	Recorder  Recorder
	Operation importer.Operation
	Now       func() time.Time
}

// Wizard walks one spreadsheet through upload, preview, mapping and
// completion. It is safe for concurrent use; at most one submit runs at a
// time.
type Wizard struct {
	client    adminapi.Client
	notifier  Notifier
	recorder  Recorder
	operation importer.Operation
	now       func() time.Time

	mu       sync.Mutex
	state    State
	inFlight bool
}

func New(opts Options) (*Wizard, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("admin api client is required")
	}
	operation := opts.Operation
	if operation.Mode == "" {
		operation.Mode = importer.ModeInsert
	}
	w := &Wizard{
		client:    opts.Client,
		notifier:  opts.Notifier,
		recorder:  opts.Recorder,
		operation: operation,
		now:       opts.Now,
		state:     UploadState{},
	}
	if w.notifier == nil {
		w.notifier = discardNotifier{}
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w, nil
}

// State returns a snapshot of the current state. Mappings in the snapshot
// are copies.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return snapshot(w.state)
}

func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight
}

// Load parses the workbook at path and moves to the preview step. On a
// parse error the wizard stays on the upload step.
func (w *Wizard) Load(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.expect(StepUpload); err != nil {
		return err
	}

	table, err := importer.Load(path)
	if err != nil {
		w.notifier.Notify(NoticeError, fmt.Sprintf("Could not read %s: %v", filepath.Base(path), err))
		return err
	}
	return w.LoadTable(table, filepath.Base(path))
}

// LoadUpload is Load for a workbook received as a stream. name and mimeType
// are the client supplied file name and content type.
func (w *Wizard) LoadUpload(name, mimeType string, src io.Reader) error {
	if err := w.expect(StepUpload); err != nil {
		return err
	}

	table, err := importer.LoadUpload(name, mimeType, src)
	if err != nil {
		w.notifier.Notify(NoticeError, fmt.Sprintf("Could not read %s: %v", filepath.Base(name), err))
		return err
	}
	return w.LoadTable(table, filepath.Base(name))
}

// LoadTable moves to the preview step with an already parsed table and
// seeds the mapping with AutoMap.
func (w *Wizard) LoadTable(table *importer.Table, source string) error {
	if table == nil || len(table.Headers) == 0 {
		w.notifier.Notify(NoticeError, "The spreadsheet has no header row")
		return importer.ErrNoHeaders
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.state.(UploadState); !ok {
		return w.invalid("load", StepUpload)
	}

	w.state = PreviewState{
		Table:   table,
		Source:  source,
		Mapping: importer.AutoMap(table.Headers, student.Catalog()),
	}
	w.notifier.Notify(NoticeInfo, fmt.Sprintf("Loaded %d rows from %s", len(table.Rows), source))
	return nil
}

// Confirm accepts the preview and opens the mapping step.
func (w *Wizard) Confirm() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	preview, ok := w.state.(PreviewState)
	if !ok {
		return w.invalid("confirm", StepPreview)
	}
	mapping := preview.Mapping
	if mapping == nil {
		mapping = importer.AutoMap(preview.Table.Headers, student.Catalog())
	}
	w.state = w.mappingState(preview.Table, preview.Source, mapping, w.operation)
	return nil
}

// SetMapping assigns field to header; an empty field unmaps the header.
func (w *Wizard) SetMapping(header, field string) error {
	return w.editMapping(func(state *MappingState) error {
		if state.Table.HeaderIndex(header) < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownHeader, header)
		}
		return state.Mapping.Set(header, strings.TrimSpace(field))
	})
}

func (w *Wizard) SetMode(mode importer.Mode) error {
	return w.editMapping(func(state *MappingState) error {
		state.Operation.Mode = mode
		return nil
	})
}

func (w *Wizard) SetPrimaryKey(field string) error {
	return w.editMapping(func(state *MappingState) error {
		state.Operation.PrimaryKey = strings.TrimSpace(field)
		return nil
	})
}

// Back returns to the previous step: preview to upload, mapping to preview.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight {
		return ErrSubmitInFlight
	}
	switch state := w.state.(type) {
	case PreviewState:
		w.state = UploadState{}
	case MappingState:
		w.operation = state.Operation
		w.state = PreviewState{Table: state.Table, Source: state.Source, Mapping: state.Mapping}
	default:
		return w.invalid("go back", StepPreview, StepMapping)
	}
	return nil
}

// Reset discards a completed run and returns to the upload step.
func (w *Wizard) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.state.(CompleteState); !ok {
		return w.invalid("reset", StepComplete)
	}
	w.state = UploadState{}
	return nil
}

// Submit validates the mapping, projects every row and performs exactly one
// bulk request. The lock is not held during the request; concurrent
// submits fail with ErrSubmitInFlight and other edits wait for the outcome.
func (w *Wizard) Submit(ctx context.Context) (*CompleteState, error) {
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	state, ok := w.state.(MappingState)
	if !ok {
		err := w.invalid("submit", StepMapping)
		w.mu.Unlock()
		return nil, err
	}
	verdict := importer.Validate(state.Mapping, state.Operation)
	if !verdict.CanSubmit {
		w.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrNotSubmittable, strings.Join(verdict.Reasons, "; "))
		w.notifier.Notify(NoticeError, err.Error())
		return nil, err
	}
	records := importer.Project(state.Table, state.Mapping)
	w.inFlight = true
	w.mu.Unlock()

	result, err := w.send(ctx, state.Operation, records)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false

	if err != nil {
		w.notifier.Notify(NoticeError, submitFailureMessage(err))
		return nil, err
	}

	runID := w.record(state, result)
	complete := CompleteState{
		Table:     state.Table,
		Source:    state.Source,
		Mapping:   state.Mapping,
		Operation: state.Operation,
		Result:    result,
		RunID:     runID,
	}
	w.state = complete
	w.notifier.Notify(NoticeSuccess, successMessage(result))

	out := snapshot(complete).(CompleteState)
	return &out, nil
}

func (w *Wizard) send(ctx context.Context, op importer.Operation, records []student.Record) (*adminapi.UploadResult, error) {
	switch op.Mode {
	case importer.ModeUpsert:
		return w.client.UpsertBulkStudents(ctx, op.PrimaryKey, records)
	default:
		return w.client.AddBulkStudents(ctx, records)
	}
}

func (w *Wizard) record(state MappingState, result *adminapi.UploadResult) string {
	run := storage.Run{
		ID:         uuid.NewString(),
		CreatedAt:  w.now(),
		SourceFile: state.Source,
		Mode:       string(state.Operation.Mode),
	}
	if state.Operation.Mode == importer.ModeUpsert {
		run.PrimaryKey = state.Operation.PrimaryKey
	}
	if w.recorder == nil {
		return run.ID
	}

	saved, err := w.recorder.SaveRun(run, result)
	if err != nil {
		w.notifier.Notify(NoticeError, fmt.Sprintf("Upload finished but the run could not be saved: %v", err))
		return run.ID
	}
	return saved.ID
}

func (w *Wizard) editMapping(edit func(state *MappingState) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight {
		return ErrSubmitInFlight
	}
	state, ok := w.state.(MappingState)
	if !ok {
		return w.invalid("edit the mapping", StepMapping)
	}
	if err := edit(&state); err != nil {
		return err
	}
	state.Verdict = importer.Validate(state.Mapping, state.Operation)
	w.state = state
	return nil
}

func (w *Wizard) mappingState(table *importer.Table, source string, mapping *importer.Mapping, op importer.Operation) MappingState {
	return MappingState{
		Table:     table,
		Source:    source,
		Mapping:   mapping,
		Operation: op,
		Verdict:   importer.Validate(mapping, op),
	}
}

func (w *Wizard) expect(step Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step() != step {
		return w.invalid("continue", step)
	}
	return nil
}

// invalid must be called with mu held.
func (w *Wizard) invalid(action string, allowed ...Step) error {
	names := make([]string, 0, len(allowed))
	for _, step := range allowed {
		names = append(names, string(step))
	}
	return fmt.Errorf("%w: cannot %s in step %s (allowed in: %s)",
		ErrInvalidTransition, action, w.state.Step(), strings.Join(names, ", "))
}

func snapshot(state State) State {
	switch s := state.(type) {
	case PreviewState:
		if s.Mapping != nil {
			s.Mapping = s.Mapping.Clone()
		}
		return s
	case MappingState:
		s.Mapping = s.Mapping.Clone()
		s.Verdict.Reasons = append([]string(nil), s.Verdict.Reasons...)
		return s
	case CompleteState:
		s.Mapping = s.Mapping.Clone()
		return s
	default:
		return state
	}
}

func successMessage(result *adminapi.UploadResult) string {
	summary := classify.Summarize(result.Results)
	return fmt.Sprintf(
		"Bulk upload finished: %d received, %d created, %d updated, %d skipped, %d email failed, %d errors",
		result.TotalReceived,
		summary.Created,
		summary.Updated,
		summary.Skipped,
		summary.EmailFailed,
		summary.Errors,
	)
}

func submitFailureMessage(err error) string {
	var apiErr *adminapi.APIError
	if errors.As(err, &apiErr) {
		return "Bulk upload failed: " + apiErr.Message
	}
	if errors.Is(err, adminapi.ErrMalformedResponse) {
		return "Bulk upload failed: the server returned an unexpected response"
	}
	return "Bulk upload failed: " + err.Error()
}
