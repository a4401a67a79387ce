package ports

import (
	"context"
	"io"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

// ResumeAnalyzer scores a resume against a job description.
type ResumeAnalyzer interface {
	Analyze(ctx context.Context, resume domain.ResumeFile, jobDescription string) (domain.AnalysisResult, error)
}

// KeywordApplier weaves selected keywords into resume content.
type KeywordApplier interface {
	ApplyKeywords(ctx context.Context, content string, keywords []string, source domain.SourceType) (string, error)
}

// DocumentRenderer renders HTML into a downloadable document.
type DocumentRenderer interface {
	Render(ctx context.Context, format domain.ExportFormat, html, filename string) ([]byte, error)
}

// HistoryStore persists analysis snapshots.
type HistoryStore interface {
	List(ctx context.Context) ([]domain.HistorySnapshot, error)
	Get(ctx context.Context, id string) (*domain.HistorySnapshot, error)
	Create(ctx context.Context, entry domain.HistoryEntry) (*domain.HistorySnapshot, error)
	Delete(ctx context.Context, id string) error
}

// FileSink delivers rendered exports to the local machine.
type FileSink interface {
	Save(ctx context.Context, filename string, data io.Reader) (string, error)
}

// SessionProvider supplies the bearer credential for remote calls. It returns
// an error of kind domain.ErrUnauthorized when there is no valid session.
type SessionProvider interface {
	Token(ctx context.Context) (string, error)
}

// UploadInspector detects the type of an uploaded resume and rejects
// anything that is not PDF or DOCX.
type UploadInspector interface {
	Inspect(name string, data []byte) (*domain.ResumeFile, error)
}

// DocumentHandle is the embedded editing widget.
type DocumentHandle interface {
	Content() string
	SetContent(html string)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// EventPublisher announces workflow transitions.
type EventPublisher interface {
	PublishWorkflowEvent(ctx context.Context, event domain.WorkflowEvent) error
}

// WorkflowObserver receives metric hooks from the controller.
type WorkflowObserver interface {
	ObserveTransition(from, to domain.Stage)
	ObservePersistenceWarning()
	ObserveExport(format domain.ExportFormat, err error)
	ObserveStaleResponse(stage domain.Stage)
}
