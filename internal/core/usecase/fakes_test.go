package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

type analyzerFake struct {
	mu     sync.Mutex
	calls  int
	result domain.AnalysisResult
	err    error
	gate   chan struct{}
}

func (f *analyzerFake) Analyze(ctx context.Context, _ domain.ResumeFile, _ string) (domain.AnalysisResult, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.AnalysisResult{}, ctx.Err()
		}
	}
	if f.err != nil {
		return domain.AnalysisResult{}, f.err
	}
	return f.result, nil
}

func (f *analyzerFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type applierFake struct {
	mu       sync.Mutex
	calls    int
	content  string
	keywords []string
	source   domain.SourceType
	html     string
	err      error
	gate     chan struct{}
}

func (f *applierFake) ApplyKeywords(ctx context.Context, content string, keywords []string, source domain.SourceType) (string, error) {
	f.mu.Lock()
	f.calls++
	f.content = content
	f.keywords = append([]string(nil), keywords...)
	f.source = source
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.html, nil
}

func (f *applierFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type rendererFake struct {
	gates map[domain.ExportFormat]chan struct{}
	errs  map[domain.ExportFormat]error
}

func (f *rendererFake) Render(_ context.Context, format domain.ExportFormat, html, _ string) ([]byte, error) {
	if gate, ok := f.gates[format]; ok {
		<-gate
	}
	if err := f.errs[format]; err != nil {
		return nil, err
	}
	return []byte(string(format) + ":" + html), nil
}

type sinkFake struct {
	mu    sync.Mutex
	files map[string]string
	err   error
}

func (f *sinkFake) Save(_ context.Context, filename string, data io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.files == nil {
		f.files = make(map[string]string)
	}
	f.files[filename] = string(raw)
	return "/downloads/" + filename, nil
}

type historyStoreFake struct {
	mu        sync.Mutex
	items     []domain.HistorySnapshot
	created   []domain.HistoryEntry
	deleted   []string
	createErr error
	deleteErr error
	listErr   error
}

func (f *historyStoreFake) List(context.Context) ([]domain.HistorySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.HistorySnapshot(nil), f.items...), nil
}

func (f *historyStoreFake) Get(_ context.Context, id string) (*domain.HistorySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get history", errors.New(id))
}

func (f *historyStoreFake) Create(_ context.Context, entry domain.HistoryEntry) (*domain.HistorySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, entry)
	if f.createErr != nil {
		return nil, f.createErr
	}
	snap := domain.HistorySnapshot{ID: "h-1", HistoryEntry: entry, CreatedAt: time.Now()}
	f.items = append(f.items, snap)
	return &snap, nil
}

func (f *historyStoreFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *historyStoreFake) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type handleFake struct {
	content string
	sets    int
}

func (h *handleFake) Content() string { return h.content }

func (h *handleFake) SetContent(html string) {
	h.content = html
	h.sets++
}

type confirmerFake struct {
	answer bool
	asked  int
}

func (f *confirmerFake) Confirm(context.Context, string) (bool, error) {
	f.asked++
	return f.answer, nil
}

type eventsFake struct {
	mu     sync.Mutex
	events []domain.WorkflowEvent
}

func (f *eventsFake) PublishWorkflowEvent(_ context.Context, event domain.WorkflowEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type observerFake struct {
	mu       sync.Mutex
	warnings int
	stale    []domain.Stage
	exports  map[domain.ExportFormat]int
}

func (f *observerFake) ObserveTransition(domain.Stage, domain.Stage) {}

func (f *observerFake) ObservePersistenceWarning() {
	f.mu.Lock()
	f.warnings++
	f.mu.Unlock()
}

func (f *observerFake) ObserveExport(format domain.ExportFormat, _ error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exports == nil {
		f.exports = make(map[domain.ExportFormat]int)
	}
	f.exports[format]++
}

func (f *observerFake) ObserveStaleResponse(stage domain.Stage) {
	f.mu.Lock()
	f.stale = append(f.stale, stage)
	f.mu.Unlock()
}

func sampleResume() *domain.ResumeFile {
	return &domain.ResumeFile{
		Name:       "resume.pdf",
		Size:       2048,
		MimeType:   domain.MimePDF,
		SourceType: domain.SourcePDF,
		Data:       []byte("%PDF-1.4"),
	}
}

func sampleResult() domain.AnalysisResult {
	return domain.AnalysisResult{
		ATSScore:        72,
		MatchedKeywords: []string{"Go"},
		MissingKeywords: []string{"Kubernetes", "CI/CD"},
		Suggestions:     []string{"Add Kubernetes experience"},
		ResumeText:      "Jane Doe\nBackend engineer",
		ResumeHTML:      "<p>Jane Doe</p>",
		SourceType:      domain.SourcePDF,
	}
}
