package wizard

import (
	"rosterload/adminapi"
	"rosterload/importer"
)

// Step names the wizard screen a State belongs to.
type Step string

const (
	StepUpload   Step = "upload"
	StepPreview  Step = "preview"
	StepMapping  Step = "mapping"
	StepComplete Step = "complete"
)

// State is one of UploadState, PreviewState, MappingState or CompleteState.
type State interface {
	Step() Step
	isState()
}

type UploadState struct{}

// PreviewState shows the parsed sheet. Mapping is the proposal the mapping
// step starts from; it survives a Back from the mapping step.
type PreviewState struct {
	Table   *importer.Table
	Source  string
	Mapping *importer.Mapping
}

type MappingState struct {
	Table     *importer.Table
	Source    string
	Mapping   *importer.Mapping
	Operation importer.Operation
	Verdict   importer.Verdict
}

type CompleteState struct {
	Table     *importer.Table
	Source    string
	Mapping   *importer.Mapping
	Operation importer.Operation
	Result    *adminapi.UploadResult
	RunID     string
}

func (UploadState) Step() Step   { return StepUpload }
func (PreviewState) Step() Step  { return StepPreview }
func (MappingState) Step() Step  { return StepMapping }
func (CompleteState) Step() Step { return StepComplete }

func (UploadState) isState()   {}
func (PreviewState) isState()  {}
func (MappingState) isState()  {}
func (CompleteState) isState() {}
