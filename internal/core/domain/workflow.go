package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Stage string

const (
	StageIdle             Stage = "idle"
	StageUploading        Stage = "uploading"
	StageAnalyzing        Stage = "analyzing"
	StageAnalyzed         Stage = "analyzed"
	StageApplyingKeywords Stage = "applying_keywords"
	StageEditing          Stage = "editing"
	StageExporting        Stage = "exporting"
	StageError            Stage = "error"
)

type ExportFormat string

const (
	FormatPDF  ExportFormat = "pdf"
	FormatDOCX ExportFormat = "docx"
)

func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse export format", fmt.Errorf("unsupported format %q", raw))
	}
}

func (f ExportFormat) Extension() string { return "." + string(f) }

func (f ExportFormat) Label() string { return strings.ToUpper(string(f)) }

type EditableDocument struct {
	HTML string `json:"html"`
}

type ExportNotice struct {
	Format    ExportFormat `json:"format"`
	Message   string       `json:"message"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// State is one node of the workflow state machine together with the payload
// that node needs. Only the workflow controller produces new states.
type State interface {
	Stage() Stage
	isState()
}

type IdleState struct{}

type UploadingState struct {
	Resume         *ResumeFile `json:"resume,omitempty"`
	JobDescription string      `json:"job_description"`
}

func (s UploadingState) Input() UploadInput {
	return UploadInput{Resume: s.Resume, JobDescription: s.JobDescription}
}

func (s UploadingState) CanSubmit() bool { return s.Input().Ready() }

type AnalyzingState struct {
	Resume         *ResumeFile `json:"resume"`
	JobDescription string      `json:"job_description"`
}

type AnalyzedState struct {
	Result             AnalysisResult   `json:"result"`
	Selection          KeywordSelection `json:"selection"`
	PersistenceWarning string           `json:"persistence_warning,omitempty"`
}

// CanApply gates the apply-keywords action.
func (s AnalyzedState) CanApply() bool { return !s.Selection.Empty() }

type ApplyingKeywordsState struct {
	Result    AnalysisResult   `json:"result"`
	Selection KeywordSelection `json:"selection"`
}

type ExportingState struct {
	Format   ExportFormat     `json:"format"`
	Document EditableDocument `json:"document"`
}

type EditingState struct {
	Document        EditableDocument `json:"document"`
	Origin          AnalysisResult   `json:"origin"`
	AppliedKeywords []string         `json:"applied_keywords"`
	Exports         []ExportingState `json:"exports,omitempty"`
	Notices         []ExportNotice   `json:"notices,omitempty"`
}

// ErrorState holds a failed analyze or apply step. The interactive state that
// preceded it is kept so recovery loses no user input.
type ErrorState struct {
	FailedStage Stage  `json:"failed_stage"`
	Message     string `json:"message"`
	Err         error  `json:"-"`
	previous    State
}

func NewErrorState(failed Stage, err error, previous State) ErrorState {
	return ErrorState{
		FailedStage: failed,
		Message:     Message(err),
		Err:         err,
		previous:    previous,
	}
}

func (s ErrorState) Previous() State { return s.previous }

// WithMessage replaces the display message and keeps everything else.
func (s ErrorState) WithMessage(message string) ErrorState {
	s.Message = message
	return s
}

func (IdleState) Stage() Stage             { return StageIdle }
func (UploadingState) Stage() Stage        { return StageUploading }
func (AnalyzingState) Stage() Stage        { return StageAnalyzing }
func (AnalyzedState) Stage() Stage         { return StageAnalyzed }
func (ApplyingKeywordsState) Stage() Stage { return StageApplyingKeywords }
func (EditingState) Stage() Stage          { return StageEditing }
func (ExportingState) Stage() Stage        { return StageExporting }
func (ErrorState) Stage() Stage            { return StageError }

func (IdleState) isState()             {}
func (UploadingState) isState()        {}
func (AnalyzingState) isState()        {}
func (AnalyzedState) isState()         {}
func (ApplyingKeywordsState) isState() {}
func (EditingState) isState()          {}
func (ExportingState) isState()        {}
func (ErrorState) isState()            {}

func (s KeywordSelection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Available []string `json:"available"`
		Selected  []string `json:"selected"`
	}{
		Available: s.Universe(),
		Selected:  s.Selected(),
	})
}

// WorkflowEvent records one state transition of a session.
type WorkflowEvent struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	From       Stage     `json:"from"`
	To         Stage     `json:"to"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
