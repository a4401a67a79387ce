package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/core/ports"
	"github.com/kirillkom/resume-tailor/internal/htmldoc"
)

const (
	DefaultExportFilename = "optimized-resume"
	defaultEventTimeout   = 5 * time.Second
)

var _ ports.Workflow = (*WorkflowController)(nil)

type WorkflowOptions struct {
	Events         ports.EventPublisher
	Observer       ports.WorkflowObserver
	Logger         *slog.Logger
	ExportFilename string
	SessionID      string
	EventTimeout   time.Duration
}

// WorkflowController owns the single workflow state of one session. All
// transitions go through it. Remote calls run without holding the lock and a
// response that settles after the state has moved on is dropped.
type WorkflowController struct {
	analyzeUC *AnalyzeUseCase
	applyUC   *ApplyKeywordsUseCase
	exportUC  *ExportUseCase

	events       ports.EventPublisher
	observer     ports.WorkflowObserver
	logger       *slog.Logger
	filename     string
	sessionID    string
	eventTimeout time.Duration

	mu          sync.Mutex
	state       domain.State
	epoch       uint64
	analyzing   bool
	applying    bool
	analysisSeq uint64
	bridge      *DocumentBridge

	pending sync.WaitGroup
}

type transition struct {
	from   domain.Stage
	to     domain.Stage
	detail string
}

// WorkflowView is the serializable picture of the controller.
type WorkflowView struct {
	Stage      domain.Stage `json:"stage"`
	State      domain.State `json:"state"`
	CanSubmit  bool         `json:"can_submit"`
	CanApply   bool         `json:"can_apply"`
	ScoreLabel string       `json:"score_label,omitempty"`
}

func NewWorkflowController(
	analyzeUC *AnalyzeUseCase,
	applyUC *ApplyKeywordsUseCase,
	exportUC *ExportUseCase,
	opts WorkflowOptions,
) *WorkflowController {
	c := &WorkflowController{
		analyzeUC:    analyzeUC,
		applyUC:      applyUC,
		exportUC:     exportUC,
		events:       opts.Events,
		observer:     opts.Observer,
		logger:       opts.Logger,
		filename:     strings.TrimSpace(opts.ExportFilename),
		sessionID:    opts.SessionID,
		eventTimeout: opts.EventTimeout,
		state:        domain.IdleState{},
	}
	if c.observer == nil {
		c.observer = noopObserver{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.filename == "" {
		c.filename = DefaultExportFilename
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	if c.eventTimeout <= 0 {
		c.eventTimeout = defaultEventTimeout
	}
	return c
}

func (c *WorkflowController) SessionID() string { return c.sessionID }

// AttachEditor injects the editing widget handle. When the workflow is already
// editing, the widget is brought up to date immediately.
func (c *WorkflowController) AttachEditor(handle ports.DocumentHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bridge = NewDocumentBridge(handle)
	content := ""
	if st, ok := c.state.(domain.EditingState); ok {
		content = st.Document.HTML
	}
	c.bridge.Sync(content)
}

// State returns a copy of the current state. Editing states include pending
// exports and live notices.
func (c *WorkflowController) State() domain.State {
	c.mu.Lock()
	st := cloneState(c.state)
	c.mu.Unlock()

	if editing, ok := st.(domain.EditingState); ok && c.exportUC != nil {
		for _, format := range c.exportUC.InFlight() {
			editing.Exports = append(editing.Exports, domain.ExportingState{Format: format, Document: editing.Document})
		}
		editing.Notices = c.exportUC.Notices()
		st = editing
	}
	return st
}

func (c *WorkflowController) View() WorkflowView {
	st := c.State()
	view := WorkflowView{Stage: st.Stage(), State: st}
	switch s := st.(type) {
	case domain.UploadingState:
		view.CanSubmit = s.CanSubmit()
	case domain.AnalyzedState:
		view.CanApply = s.CanApply()
		view.ScoreLabel = domain.ScoreLabel(s.Result.ATSScore)
	case domain.EditingState:
		view.ScoreLabel = domain.ScoreLabel(s.Origin.ATSScore)
	}
	return view
}

func (c *WorkflowController) SetResume(file *domain.ResumeFile) error {
	if file == nil {
		return domain.WrapError(domain.ErrInvalidInput, "set resume", errors.New("resume file is required"))
	}
	return c.updateUpload("set resume", func(st *domain.UploadingState) {
		copied := *file
		st.Resume = &copied
	})
}

func (c *WorkflowController) ClearResume() error {
	return c.updateUpload("clear resume", func(st *domain.UploadingState) {
		st.Resume = nil
	})
}

func (c *WorkflowController) SetJobDescription(text string) error {
	return c.updateUpload("set job description", func(st *domain.UploadingState) {
		st.JobDescription = text
	})
}

func (c *WorkflowController) updateUpload(op string, mutate func(*domain.UploadingState)) error {
	c.mu.Lock()
	var (
		next domain.UploadingState
		tr   *transition
	)
	switch st := c.state.(type) {
	case domain.IdleState:
		mutate(&next)
		t := c.commitLocked(next, op)
		tr = &t
	case domain.UploadingState:
		next = st
		mutate(&next)
		c.state = next
	default:
		c.mu.Unlock()
		return invalidTransition(op, st.Stage())
	}
	c.mu.Unlock()

	if tr != nil {
		c.announce(*tr)
	}
	return nil
}

// Analyze submits the current upload. Validation failures leave the upload
// untouched. Remote failures enter the error state with the upload kept for
// recovery. Once issued the call is not cancelled by ctx; only the client
// timeout bounds it.
func (c *WorkflowController) Analyze(ctx context.Context) error {
	const op = "analyze"

	c.mu.Lock()
	upload, ok := c.state.(domain.UploadingState)
	if !ok {
		stage := c.state.Stage()
		c.mu.Unlock()
		return invalidTransition(op, stage)
	}
	if c.analyzing {
		c.mu.Unlock()
		return domain.WrapError(domain.ErrBusy, op, errors.New("analysis already running"))
	}
	input := upload.Input()
	if err := c.analyzeUC.Validate(input); err != nil {
		c.mu.Unlock()
		return err
	}
	c.analyzing = true
	tr := c.commitLocked(domain.AnalyzingState{Resume: input.Resume, JobDescription: input.JobDescription}, "")
	epoch := c.epoch
	c.mu.Unlock()
	c.announce(tr)

	result, task, err := c.analyzeUC.Analyze(context.WithoutCancel(ctx), input)

	c.mu.Lock()
	c.analyzing = false
	if c.epoch != epoch {
		c.mu.Unlock()
		if task != nil {
			c.watchPersistence(0, task)
		}
		return c.stale(op, domain.StageAnalyzing)
	}
	if err != nil {
		tr = c.commitLocked(domain.NewErrorState(domain.StageAnalyzing, err, upload), domain.Message(err))
		c.mu.Unlock()
		c.announce(tr)
		c.logger.Warn("analysis_failed", "session_id", c.sessionID, "error", err)
		return err
	}
	c.analysisSeq++
	seq := c.analysisSeq
	tr = c.commitLocked(domain.AnalyzedState{
		Result:    result,
		Selection: domain.NewKeywordSelection(result.MissingKeywords),
	}, result.JobTitle)
	c.mu.Unlock()
	c.announce(tr)

	c.watchPersistence(seq, task)
	return nil
}

// watchPersistence waits for the detached history save and, when it failed,
// attaches the warning to the analysis it belongs to if that analysis is still
// on screen. A zero seq never matches.
func (c *WorkflowController) watchPersistence(seq uint64, task *PersistenceTask) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		_, warn := task.Wait()
		if warn == nil {
			return
		}
		c.observer.ObservePersistenceWarning()

		c.mu.Lock()
		defer c.mu.Unlock()
		if seq == 0 || c.analysisSeq != seq {
			return
		}
		if st, ok := c.state.(domain.AnalyzedState); ok {
			st.PersistenceWarning = warn.Message()
			c.state = st
		}
	}()
}

// AwaitPersistence blocks until every pending history save has settled and
// its warning, if any, has been merged.
func (c *WorkflowController) AwaitPersistence(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *WorkflowController) ToggleKeyword(keyword string) error {
	return c.updateSelection("toggle keyword", func(sel *domain.KeywordSelection) { sel.Toggle(keyword) })
}

func (c *WorkflowController) SelectAllKeywords() error {
	return c.updateSelection("select all keywords", func(sel *domain.KeywordSelection) { sel.SelectAll() })
}

func (c *WorkflowController) DeselectAllKeywords() error {
	return c.updateSelection("deselect all keywords", func(sel *domain.KeywordSelection) { sel.DeselectAll() })
}

func (c *WorkflowController) updateSelection(op string, mutate func(*domain.KeywordSelection)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.state.(domain.AnalyzedState)
	if !ok {
		return invalidTransition(op, c.state.Stage())
	}
	sel := st.Selection.Clone()
	mutate(&sel)
	st.Selection = sel
	c.state = st
	return nil
}

// ApplyKeywords sends the selected keywords to the rewrite service. An empty
// selection is refused locally.
func (c *WorkflowController) ApplyKeywords(ctx context.Context) error {
	const op = "apply keywords"

	c.mu.Lock()
	analyzed, ok := c.state.(domain.AnalyzedState)
	if !ok {
		stage := c.state.Stage()
		c.mu.Unlock()
		return invalidTransition(op, stage)
	}
	if c.applying {
		c.mu.Unlock()
		return domain.WrapError(domain.ErrBusy, op, errors.New("keyword application already running"))
	}
	if analyzed.Selection.Empty() {
		c.mu.Unlock()
		return domain.WrapError(domain.ErrInvalidInput, op, errors.New("select at least one keyword"))
	}
	keywords := analyzed.Selection.Selected()
	c.applying = true
	tr := c.commitLocked(domain.ApplyingKeywordsState{
		Result:    analyzed.Result,
		Selection: analyzed.Selection.Clone(),
	}, strings.Join(keywords, ", "))
	epoch := c.epoch
	c.mu.Unlock()
	c.announce(tr)

	html, err := c.applyUC.Apply(context.WithoutCancel(ctx), analyzed.Result.Content(), keywords, analyzed.Result.SourceType)

	c.mu.Lock()
	c.applying = false
	if c.epoch != epoch {
		c.mu.Unlock()
		return c.stale(op, domain.StageApplyingKeywords)
	}
	if err != nil {
		failed := domain.NewErrorState(domain.StageApplyingKeywords, err, analyzed).
			WithMessage("Failed to apply keywords: " + domain.Message(err))
		tr = c.commitLocked(failed, failed.Message)
		c.mu.Unlock()
		c.announce(tr)
		c.logger.Warn("keyword_application_failed", "session_id", c.sessionID, "error", err)
		return err
	}
	tr = c.commitLocked(domain.EditingState{
		Document:        domain.EditableDocument{HTML: html},
		Origin:          analyzed.Result,
		AppliedKeywords: keywords,
	}, "")
	c.mu.Unlock()
	c.announce(tr)
	return nil
}

// ContentChanged records an edit made inside the widget. It never writes back
// to the widget.
func (c *WorkflowController) ContentChanged(html string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.state.(domain.EditingState)
	if !ok {
		return invalidTransition("content changed", c.state.Stage())
	}
	st.Document.HTML = html
	c.state = st
	return nil
}

// Export renders the current document. Failures are reported to the caller
// and never touch the editing state.
func (c *WorkflowController) Export(ctx context.Context, format domain.ExportFormat) (string, error) {
	op := "export " + string(format)

	c.mu.Lock()
	st, ok := c.state.(domain.EditingState)
	if !ok {
		stage := c.state.Stage()
		c.mu.Unlock()
		return "", invalidTransition(op, stage)
	}
	html := st.Document.HTML
	c.mu.Unlock()

	path, err := c.exportUC.Export(context.WithoutCancel(ctx), format, html, c.filename)
	if domain.IsKind(err, domain.ErrBusy) {
		return "", err
	}
	c.observer.ObserveExport(format, err)
	if err != nil {
		c.logger.Warn("export_failed", "session_id", c.sessionID, "format", format, "error", err)
		return "", err
	}
	c.logger.Info("export_completed", "session_id", c.sessionID, "format", format, "path", path)
	return path, nil
}

// StartOver discards everything and returns to an empty upload. Any response
// still in flight becomes stale.
func (c *WorkflowController) StartOver() error {
	c.mu.Lock()
	tr := c.commitLocked(domain.UploadingState{}, "start over")
	c.mu.Unlock()
	c.announce(tr)
	return nil
}

// Recover leaves the error state for the interactive state that preceded it.
func (c *WorkflowController) Recover() error {
	c.mu.Lock()
	st, ok := c.state.(domain.ErrorState)
	if !ok {
		stage := c.state.Stage()
		c.mu.Unlock()
		return invalidTransition("recover", stage)
	}
	var next domain.State = domain.IdleState{}
	if prev := st.Previous(); prev != nil {
		next = prev
	}
	tr := c.commitLocked(next, "recover")
	c.mu.Unlock()
	c.announce(tr)
	return nil
}

// Restore opens a history snapshot in the editor.
func (c *WorkflowController) Restore(snapshot domain.HistorySnapshot) error {
	payload := RestorePayload(snapshot)
	return c.OpenEditor(&payload)
}

// OpenEditor enters editing with the given payload. A nil payload means there
// is nothing to edit and the workflow goes back to idle.
func (c *WorkflowController) OpenEditor(payload *EditingPayload) error {
	c.mu.Lock()
	if payload == nil {
		tr := c.commitLocked(domain.IdleState{}, "no editing payload")
		c.mu.Unlock()
		c.announce(tr)
		return nil
	}
	applied := payload.AppliedKeywords
	if applied == nil {
		applied = []string{}
	}
	tr := c.commitLocked(domain.EditingState{
		Document:        domain.EditableDocument{HTML: payload.Content},
		Origin:          payload.Origin.Clone(),
		AppliedKeywords: append([]string(nil), applied...),
	}, "restore")
	c.mu.Unlock()
	c.announce(tr)
	return nil
}

// commitLocked installs next and keeps the editor in step with it. Leaving
// editing blanks the editor so no document outlives its stage.
func (c *WorkflowController) commitLocked(next domain.State, detail string) transition {
	tr := transition{from: c.state.Stage(), to: next.Stage(), detail: detail}
	c.state = next
	c.epoch++

	content := ""
	if st, ok := next.(domain.EditingState); ok {
		content = st.Document.HTML
	}
	c.bridge.Sync(content)
	return tr
}

func (c *WorkflowController) announce(tr transition) {
	c.observer.ObserveTransition(tr.from, tr.to)
	c.logger.Info("workflow_transition",
		"session_id", c.sessionID,
		"from", tr.from,
		"to", tr.to,
	)
	if c.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.eventTimeout)
	defer cancel()
	event := domain.WorkflowEvent{
		ID:         uuid.NewString(),
		SessionID:  c.sessionID,
		From:       tr.from,
		To:         tr.to,
		Detail:     tr.detail,
		OccurredAt: time.Now().UTC(),
	}
	if err := c.events.PublishWorkflowEvent(ctx, event); err != nil {
		c.logger.Warn("workflow_event_publish_failed", "session_id", c.sessionID, "error", err)
	}
}

func (c *WorkflowController) stale(op string, stage domain.Stage) error {
	c.observer.ObserveStaleResponse(stage)
	c.logger.Info("stale_response_discarded", "session_id", c.sessionID, "stage", stage)
	return domain.WrapError(domain.ErrStale, op, errors.New("workflow moved on before the response arrived"))
}

func invalidTransition(op string, from domain.Stage) error {
	return domain.WrapError(domain.ErrInvalidTransition, op, errors.New("not allowed from stage "+string(from)))
}

func cloneState(s domain.State) domain.State {
	switch st := s.(type) {
	case domain.UploadingState:
		if st.Resume != nil {
			r := *st.Resume
			st.Resume = &r
		}
		return st
	case domain.AnalyzedState:
		st.Result = st.Result.Clone()
		st.Selection = st.Selection.Clone()
		return st
	case domain.ApplyingKeywordsState:
		st.Result = st.Result.Clone()
		st.Selection = st.Selection.Clone()
		return st
	case domain.EditingState:
		st.Origin = st.Origin.Clone()
		st.AppliedKeywords = append([]string{}, st.AppliedKeywords...)
		st.Exports = nil
		st.Notices = nil
		return st
	default:
		return s
	}
}

type noopObserver struct{}

func (noopObserver) ObserveTransition(domain.Stage, domain.Stage) {}
func (noopObserver) ObservePersistenceWarning()                   {}
func (noopObserver) ObserveExport(domain.ExportFormat, error)     {}
func (noopObserver) ObserveStaleResponse(domain.Stage)            {}

// Document returns the document owned by the editing stage.
func (c *WorkflowController) Document() (domain.EditableDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.state.(domain.EditingState)
	if !ok {
		return domain.EditableDocument{}, invalidTransition("read document", c.state.Stage())
	}
	return st.Document, nil
}

// Coverage reports which applied keywords made it into the edited document.
func (c *WorkflowController) Coverage() (htmldoc.Coverage, error) {
	c.mu.Lock()
	st, ok := c.state.(domain.EditingState)
	stage := c.state.Stage()
	c.mu.Unlock()
	if !ok {
		return htmldoc.Coverage{}, invalidTransition("keyword coverage", stage)
	}
	return htmldoc.KeywordCoverage(st.Document.HTML, st.AppliedKeywords)
}
