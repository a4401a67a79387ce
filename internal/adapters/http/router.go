package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/resume-tailor/internal/config"
	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/core/ports"
	"github.com/kirillkom/resume-tailor/internal/core/usecase"
	"github.com/kirillkom/resume-tailor/internal/observability/metrics"
)

const (
	serviceName         = "tailor-api"
	resumeFormField     = "resume"
	backpressureMaxWait = 250 * time.Millisecond
)

type Router struct {
	cfg       config.Config
	workflow  *usecase.WorkflowController
	history   *usecase.HistoryUseCase
	inspector ports.UploadInspector
	metrics   *metrics.HTTPServerMetrics
	editor    *editorBuffer
}

func NewRouter(
	cfg config.Config,
	workflow *usecase.WorkflowController,
	history *usecase.HistoryUseCase,
	inspector ports.UploadInspector,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	rt := &Router{
		cfg:       cfg,
		workflow:  workflow,
		history:   history,
		inspector: inspector,
		metrics:   httpMetrics,
		editor:    &editorBuffer{},
	}
	workflow.AttachEditor(rt.editor)
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("GET /v1/workflow", rt.getWorkflow)
	mux.HandleFunc("POST /v1/workflow/resume", rt.uploadResume)
	mux.HandleFunc("DELETE /v1/workflow/resume", rt.clearResume)
	mux.HandleFunc("PUT /v1/workflow/job-description", rt.setJobDescription)
	mux.HandleFunc("POST /v1/workflow/analyze", rt.analyze)
	mux.HandleFunc("POST /v1/workflow/keywords/toggle", rt.toggleKeyword)
	mux.HandleFunc("POST /v1/workflow/keywords/select-all", rt.selectAllKeywords)
	mux.HandleFunc("POST /v1/workflow/keywords/deselect-all", rt.deselectAllKeywords)
	mux.HandleFunc("POST /v1/workflow/apply", rt.applyKeywords)
	mux.HandleFunc("GET /v1/workflow/document", rt.getDocument)
	mux.HandleFunc("PUT /v1/workflow/document", rt.updateDocument)
	mux.HandleFunc("GET /v1/workflow/coverage", rt.coverage)
	mux.HandleFunc("POST /v1/workflow/export/{format}", rt.export)
	mux.HandleFunc("POST /v1/workflow/start-over", rt.startOver)
	mux.HandleFunc("POST /v1/workflow/recover", rt.recoverWorkflow)

	mux.HandleFunc("GET /v1/history", rt.listHistory)
	mux.HandleFunc("POST /v1/history/{id}/restore", rt.restoreHistory)
	mux.HandleFunc("DELETE /v1/history/{id}", rt.deleteHistory)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureMaxWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) getWorkflow(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.workflow.View())
}

func (rt *Router) uploadResume(w http.ResponseWriter, r *http.Request) {
	maxBytes := rt.cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))

	file, header, err := r.FormFile(resumeFormField)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("multipart field '%s' is required", resumeFormField), nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read uploaded file", nil)
		return
	}
	resume, err := rt.inspector.Inspect(header.Filename, data)
	if err != nil {
		rt.fail(w, err)
		return
	}
	rt.respond(w, rt.workflow.SetResume(resume))
}

func (rt *Router) clearResume(w http.ResponseWriter, _ *http.Request) {
	rt.respond(w, rt.workflow.ClearResume())
}

func (rt *Router) setJobDescription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobDescription string `json:"job_description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	rt.respond(w, rt.workflow.SetJobDescription(req.JobDescription))
}

func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	rt.respond(w, rt.workflow.Analyze(r.Context()))
}

func (rt *Router) toggleKeyword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword string `json:"keyword"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Keyword) == "" {
		writeError(w, http.StatusBadRequest, "keyword is required", nil)
		return
	}
	rt.respond(w, rt.workflow.ToggleKeyword(req.Keyword))
}

func (rt *Router) selectAllKeywords(w http.ResponseWriter, _ *http.Request) {
	rt.respond(w, rt.workflow.SelectAllKeywords())
}

func (rt *Router) deselectAllKeywords(w http.ResponseWriter, _ *http.Request) {
	rt.respond(w, rt.workflow.DeselectAllKeywords())
}

func (rt *Router) applyKeywords(w http.ResponseWriter, r *http.Request) {
	rt.respond(w, rt.workflow.ApplyKeywords(r.Context()))
}

func (rt *Router) getDocument(w http.ResponseWriter, _ *http.Request) {
	doc, err := rt.workflow.Document()
	if err != nil {
		rt.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) updateDocument(w http.ResponseWriter, r *http.Request) {
	var req domain.EditableDocument
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := rt.workflow.ContentChanged(req.HTML); err != nil {
		rt.fail(w, err)
		return
	}
	rt.editor.SetContent(req.HTML)
	rt.respond(w, nil)
}

func (rt *Router) coverage(w http.ResponseWriter, _ *http.Request) {
	cov, err := rt.workflow.Coverage()
	if err != nil {
		rt.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cov)
}

func (rt *Router) export(w http.ResponseWriter, r *http.Request) {
	format, err := domain.ParseExportFormat(r.PathValue("format"))
	if err != nil {
		rt.fail(w, err)
		return
	}
	path, err := rt.workflow.Export(r.Context(), format)
	if err != nil {
		rt.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"format": string(format),
		"path":   path,
	})
}

func (rt *Router) startOver(w http.ResponseWriter, _ *http.Request) {
	rt.respond(w, rt.workflow.StartOver())
}

func (rt *Router) recoverWorkflow(w http.ResponseWriter, _ *http.Request) {
	rt.respond(w, rt.workflow.Recover())
}

func (rt *Router) listHistory(w http.ResponseWriter, r *http.Request) {
	items, err := rt.history.List(r.Context())
	if err != nil {
		rt.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (rt *Router) restoreHistory(w http.ResponseWriter, r *http.Request) {
	snapshot, err := rt.history.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.fail(w, err)
		return
	}
	rt.respond(w, rt.workflow.Restore(*snapshot))
}

func (rt *Router) deleteHistory(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"
	ctx := withConfirmation(r.Context(), confirmed)
	if err := rt.history.Delete(ctx, r.PathValue("id")); err != nil {
		rt.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respond writes the workflow view, or the error with the view attached so
// the client can render the error stage.
func (rt *Router) respond(w http.ResponseWriter, err error) {
	if err != nil {
		rt.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.workflow.View())
}

func (rt *Router) fail(w http.ResponseWriter, err error) {
	view := rt.workflow.View()
	writeError(w, mapErrorToHTTPStatus(err), domain.Message(err), &view)
}

type errorResponse struct {
	Error    string                `json:"error"`
	Workflow *usecase.WorkflowView `json:"workflow,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string, view *usecase.WorkflowView) {
	writeJSON(w, status, errorResponse{Error: message, Workflow: view})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		msg := "invalid json"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			msg = "request body too large"
		}
		writeError(w, http.StatusBadRequest, msg, nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
