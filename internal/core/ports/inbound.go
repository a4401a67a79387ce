package ports

import (
	"context"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

// Workflow is the inbound contract for driving one tailoring session.
type Workflow interface {
	State() domain.State
	SetResume(file *domain.ResumeFile) error
	ClearResume() error
	SetJobDescription(text string) error
	Analyze(ctx context.Context) error
	ToggleKeyword(keyword string) error
	SelectAllKeywords() error
	DeselectAllKeywords() error
	ApplyKeywords(ctx context.Context) error
	ContentChanged(html string) error
	Export(ctx context.Context, format domain.ExportFormat) (string, error)
	StartOver() error
	Recover() error
	Restore(snapshot domain.HistorySnapshot) error
}

// HistoryBrowser is the inbound contract for past analyses.
type HistoryBrowser interface {
	List(ctx context.Context) ([]domain.HistorySnapshot, error)
	Find(ctx context.Context, id string) (*domain.HistorySnapshot, error)
	Delete(ctx context.Context, id string) error
}
