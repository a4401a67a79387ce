package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/resume-tailor/internal/config"
	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/core/usecase"
	"github.com/kirillkom/resume-tailor/internal/observability/metrics"
)

type analyzerStub struct {
	result domain.AnalysisResult
	err    error
	delay  time.Duration
}

func (s analyzerStub) Analyze(ctx context.Context, _ domain.ResumeFile, _ string) (domain.AnalysisResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return domain.AnalysisResult{}, ctx.Err()
		}
	}
	return s.result, s.err
}

type applierStub struct {
	html string
	err  error
}

func (s applierStub) ApplyKeywords(context.Context, string, []string, domain.SourceType) (string, error) {
	return s.html, s.err
}

type rendererStub struct{}

func (rendererStub) Render(_ context.Context, format domain.ExportFormat, _ string, _ string) ([]byte, error) {
	return []byte("rendered " + string(format)), nil
}

type sinkStub struct{}

func (sinkStub) Save(_ context.Context, filename string, data io.Reader) (string, error) {
	if _, err := io.ReadAll(data); err != nil {
		return "", err
	}
	return "/exports/" + filename, nil
}

type historyStub struct {
	mu      sync.Mutex
	items   []domain.HistorySnapshot
	deleted []string
}

func (s *historyStub) List(context.Context) ([]domain.HistorySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.HistorySnapshot(nil), s.items...), nil
}

func (s *historyStub) Get(_ context.Context, id string) (*domain.HistorySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get history", errors.New("id="+id))
}

func (s *historyStub) Create(_ context.Context, entry domain.HistoryEntry) (*domain.HistorySnapshot, error) {
	return &domain.HistorySnapshot{ID: "h-new", HistoryEntry: entry, CreatedAt: time.Now()}, nil
}

func (s *historyStub) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

type inspectorStub struct {
	err error
}

func (s inspectorStub) Inspect(name string, data []byte) (*domain.ResumeFile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ResumeFile{Name: name, Size: int64(len(data)), MimeType: domain.MimePDF, SourceType: domain.SourcePDF, Data: data}, nil
}

type testDeps struct {
	analyzer  analyzerStub
	applier   applierStub
	history   *historyStub
	inspector inspectorStub
}

func defaultDeps() testDeps {
	return testDeps{
		analyzer: analyzerStub{result: domain.AnalysisResult{
			ATSScore:        85,
			MatchedKeywords: []string{"Go"},
			MissingKeywords: []string{"Kubernetes", "Terraform"},
			ResumeText:      "Jane Doe",
			SourceType:      domain.SourcePDF,
		}},
		applier: applierStub{html: "<p>Jane Doe, Kubernetes</p>"},
		history: &historyStub{},
	}
}

func newTestHandlerWithDeps(cfg config.Config, deps testDeps) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exportUC := usecase.NewExportUseCase(rendererStub{}, sinkStub{}, time.Minute)
	workflow := usecase.NewWorkflowController(
		usecase.NewAnalyzeUseCase(deps.analyzer, deps.history),
		usecase.NewApplyKeywordsUseCase(deps.applier),
		exportUC,
		usecase.WorkflowOptions{Logger: logger},
	)
	history := usecase.NewHistoryUseCase(deps.history, RequestConfirmer{})
	return NewRouter(cfg, workflow, history, deps.inspector, metrics.NewHTTPServerMetrics(serviceName)).Handler()
}

func newTestHandler(cfg config.Config) http.Handler {
	return newTestHandlerWithDeps(cfg, defaultDeps())
}

func do(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func uploadResume(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(resumeFormField, "jane.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("%PDF-1.4 fake"))
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/workflow/resume", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

type viewResponse struct {
	Stage      domain.Stage    `json:"stage"`
	State      json.RawMessage `json:"state"`
	CanSubmit  bool            `json:"can_submit"`
	CanApply   bool            `json:"can_apply"`
	ScoreLabel string          `json:"score_label"`
	Error      string          `json:"error"`
	Workflow   *viewResponse   `json:"workflow"`
}

func decodeView(t *testing.T, res *httptest.ResponseRecorder) viewResponse {
	t.Helper()
	var view viewResponse
	if err := json.Unmarshal(res.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response %q: %v", res.Body.String(), err)
	}
	return view
}

func TestWorkflowEndpointsDriveTailoringFlow(t *testing.T) {
	handler := newTestHandler(config.Config{})

	if res := uploadResume(t, handler); res.Code != http.StatusOK {
		t.Fatalf("upload expected 200, got %d: %s", res.Code, res.Body.String())
	}
	res := do(t, handler, http.MethodPut, "/v1/workflow/job-description", map[string]string{"job_description": "Platform engineer"})
	if view := decodeView(t, res); view.Stage != domain.StageUploading || !view.CanSubmit {
		t.Fatalf("expected submittable upload, got %+v", view)
	}

	res = do(t, handler, http.MethodPost, "/v1/workflow/analyze", nil)
	view := decodeView(t, res)
	if res.Code != http.StatusOK || view.Stage != domain.StageAnalyzed || view.ScoreLabel != "Excellent" {
		t.Fatalf("unexpected analyze response %d %+v", res.Code, view)
	}

	res = do(t, handler, http.MethodPost, "/v1/workflow/keywords/toggle", map[string]string{"keyword": "Terraform"})
	if res.Code != http.StatusOK {
		t.Fatalf("toggle expected 200, got %d", res.Code)
	}
	res = do(t, handler, http.MethodPost, "/v1/workflow/apply", nil)
	if view := decodeView(t, res); view.Stage != domain.StageEditing {
		t.Fatalf("expected editing after apply, got %+v", view)
	}

	res = do(t, handler, http.MethodGet, "/v1/workflow/document", nil)
	var doc domain.EditableDocument
	_ = json.Unmarshal(res.Body.Bytes(), &doc)
	if doc.HTML != "<p>Jane Doe, Kubernetes</p>" {
		t.Fatalf("editor should hold applied html, got %q", doc.HTML)
	}

	res = do(t, handler, http.MethodGet, "/v1/workflow/coverage", nil)
	var cov struct {
		Present []string `json:"present"`
	}
	_ = json.Unmarshal(res.Body.Bytes(), &cov)
	if len(cov.Present) != 1 || cov.Present[0] != "Kubernetes" {
		t.Fatalf("unexpected coverage %s", res.Body.String())
	}

	res = do(t, handler, http.MethodPost, "/v1/workflow/export/docx", nil)
	var exported map[string]string
	_ = json.Unmarshal(res.Body.Bytes(), &exported)
	if res.Code != http.StatusOK || exported["path"] != "/exports/optimized-resume.docx" {
		t.Fatalf("unexpected export response %d %s", res.Code, res.Body.String())
	}
}

func TestAnalyzeServiceErrorReturnsDetailAndErrorView(t *testing.T) {
	deps := defaultDeps()
	deps.analyzer = analyzerStub{err: domain.WrapError(domain.ErrAnalysis, "analyze", &domain.ServiceError{Operation: "analyze", StatusCode: 422, Detail: "file too large"})}
	handler := newTestHandlerWithDeps(config.Config{}, deps)

	uploadResume(t, handler)
	do(t, handler, http.MethodPut, "/v1/workflow/job-description", map[string]string{"job_description": "Platform engineer"})
	res := do(t, handler, http.MethodPost, "/v1/workflow/analyze", nil)

	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Code)
	}
	body := decodeView(t, res)
	if body.Error != "file too large" || body.Workflow == nil || body.Workflow.Stage != domain.StageError {
		t.Fatalf("unexpected error body %s", res.Body.String())
	}

	res = do(t, handler, http.MethodPost, "/v1/workflow/recover", nil)
	if view := decodeView(t, res); view.Stage != domain.StageUploading {
		t.Fatalf("recover should return to uploading, got %+v", view)
	}
}

func TestUploadRejectedByInspectorMaps400(t *testing.T) {
	deps := defaultDeps()
	deps.inspector = inspectorStub{err: domain.WrapError(domain.ErrInvalidInput, "inspect upload", errors.New("unsupported file type"))}
	handler := newTestHandlerWithDeps(config.Config{}, deps)

	if res := uploadResume(t, handler); res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestExportOutsideEditingIsConflict(t *testing.T) {
	handler := newTestHandler(config.Config{})

	if res := do(t, handler, http.MethodPost, "/v1/workflow/export/pdf", nil); res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
	if res := do(t, handler, http.MethodPost, "/v1/workflow/export/txt", nil); res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", res.Code)
	}
}

func TestHistoryDeleteRequiresConfirmation(t *testing.T) {
	deps := defaultDeps()
	deps.history.items = []domain.HistorySnapshot{{ID: "h-1", CreatedAt: time.Now()}}
	handler := newTestHandlerWithDeps(config.Config{}, deps)

	if res := do(t, handler, http.MethodDelete, "/v1/history/h-1", nil); res.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428 without confirm, got %d", res.Code)
	}
	if len(deps.history.deleted) != 0 {
		t.Fatalf("store must not be called without confirmation")
	}
	if res := do(t, handler, http.MethodDelete, "/v1/history/h-1?confirm=true", nil); res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if len(deps.history.deleted) != 1 || deps.history.deleted[0] != "h-1" {
		t.Fatalf("unexpected deletes %v", deps.history.deleted)
	}
}

func TestHistoryRestoreOpensEditor(t *testing.T) {
	deps := defaultDeps()
	deps.history.items = []domain.HistorySnapshot{{
		ID:           "h-1",
		HistoryEntry: domain.HistoryEntry{ATSScore: 45, ResumeText: "Jane Doe"},
		CreatedAt:    time.Now(),
	}}
	handler := newTestHandlerWithDeps(config.Config{}, deps)

	res := do(t, handler, http.MethodPost, "/v1/history/h-1/restore", nil)
	view := decodeView(t, res)
	if view.Stage != domain.StageEditing || view.ScoreLabel != "Fair" {
		t.Fatalf("unexpected restore view %s", res.Body.String())
	}

	if res := do(t, handler, http.MethodPost, "/v1/history/missing/restore", nil); res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing snapshot, got %d", res.Code)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", res.Header().Get(requestIDHeader))
	}
}

func TestAnalyzeSurvivesClientDisconnect(t *testing.T) {
	deps := defaultDeps()
	deps.analyzer.delay = 20 * time.Millisecond
	handler := newTestHandlerWithDeps(config.Config{}, deps)

	uploadResume(t, handler)
	do(t, handler, http.MethodPut, "/v1/workflow/job-description", map[string]string{"job_description": "Platform engineer"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/workflow/analyze", nil).WithContext(ctx)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected analysis to complete, got %d: %s", res.Code, res.Body.String())
	}

	res = do(t, handler, http.MethodGet, "/v1/workflow", nil)
	if view := decodeView(t, res); view.Stage != domain.StageAnalyzed {
		t.Fatalf("expected analyzed after disconnect, got %s", view.Stage)
	}
}

func TestDocumentEndpointFollowsEditingStage(t *testing.T) {
	handler := newTestHandler(config.Config{})

	if res := do(t, handler, http.MethodGet, "/v1/workflow/document", nil); res.Code != http.StatusConflict {
		t.Fatalf("expected 409 before editing, got %d", res.Code)
	}

	uploadResume(t, handler)
	do(t, handler, http.MethodPut, "/v1/workflow/job-description", map[string]string{"job_description": "Platform engineer"})
	do(t, handler, http.MethodPost, "/v1/workflow/analyze", nil)
	if res := do(t, handler, http.MethodPost, "/v1/workflow/apply", nil); res.Code != http.StatusOK {
		t.Fatalf("apply expected 200, got %d", res.Code)
	}
	res := do(t, handler, http.MethodPut, "/v1/workflow/document", map[string]string{"html": "<p>edited</p>"})
	if res.Code != http.StatusOK {
		t.Fatalf("update expected 200, got %d", res.Code)
	}
	res = do(t, handler, http.MethodGet, "/v1/workflow/document", nil)
	var doc domain.EditableDocument
	_ = json.Unmarshal(res.Body.Bytes(), &doc)
	if doc.HTML != "<p>edited</p>" {
		t.Fatalf("expected edited document, got %q", doc.HTML)
	}

	do(t, handler, http.MethodPost, "/v1/workflow/start-over", nil)
	res = do(t, handler, http.MethodGet, "/v1/workflow/document", nil)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 after start over, got %d: %s", res.Code, res.Body.String())
	}
}
