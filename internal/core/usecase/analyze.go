package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/core/ports"
)

const defaultPersistTimeout = 30 * time.Second

// PersistenceTask is the detached history save that follows a successful
// analysis. Its outcome is advisory only.
type PersistenceTask struct {
	done     chan struct{}
	snapshot *domain.HistorySnapshot
	warning  *domain.PersistenceWarning
}

func completedTask() *PersistenceTask {
	t := &PersistenceTask{done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *PersistenceTask) Done() <-chan struct{} { return t.done }

// Wait blocks until the save settles.
func (t *PersistenceTask) Wait() (*domain.HistorySnapshot, *domain.PersistenceWarning) {
	<-t.done
	return t.snapshot, t.warning
}

type AnalyzeUseCase struct {
	analyzer       ports.ResumeAnalyzer
	history        ports.HistoryStore
	validate       *validator.Validate
	persistTimeout time.Duration
}

func NewAnalyzeUseCase(analyzer ports.ResumeAnalyzer, history ports.HistoryStore) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		analyzer:       analyzer,
		history:        history,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		persistTimeout: defaultPersistTimeout,
	}
}

// Validate checks the upload before any network call is made.
func (uc *AnalyzeUseCase) Validate(input domain.UploadInput) error {
	if input.Resume == nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("resume file is required"))
	}
	if strings.TrimSpace(input.JobDescription) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("job description is required"))
	}
	if err := uc.validate.Struct(input); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", describeValidation(err))
	}
	return nil
}

func (uc *AnalyzeUseCase) Analyze(ctx context.Context, input domain.UploadInput) (domain.AnalysisResult, *PersistenceTask, error) {
	if err := uc.Validate(input); err != nil {
		return domain.AnalysisResult{}, nil, err
	}

	result, err := uc.analyzer.Analyze(ctx, *input.Resume, input.JobDescription)
	if err != nil {
		return domain.AnalysisResult{}, nil, domain.WrapError(domain.ErrAnalysis, "analyze resume", err)
	}
	if !result.SourceType.Valid() {
		result.SourceType = input.Resume.SourceType
	}
	result = result.Clone()

	task := uc.persist(ctx, domain.NewHistoryEntry(result, input.JobDescription))
	return result, task, nil
}

func (uc *AnalyzeUseCase) persist(ctx context.Context, entry domain.HistoryEntry) *PersistenceTask {
	if uc.history == nil {
		return completedTask()
	}

	task := &PersistenceTask{done: make(chan struct{})}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.persistTimeout)
	go func() {
		defer close(task.done)
		defer cancel()

		snapshot, err := uc.history.Create(saveCtx, entry)
		if err != nil {
			task.warning = &domain.PersistenceWarning{Err: err}
			slog.Warn("history_persist_failed", "job_title", entry.JobTitle, "error", err)
			return
		}
		task.snapshot = snapshot
	}()
	return task
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, ", "))
}
