package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
)

// WorkflowMetrics counts controller activity. It satisfies
// ports.WorkflowObserver.
type WorkflowMetrics struct {
	service string

	transitionsTotal   *prometheus.CounterVec
	persistenceWarning *prometheus.CounterVec
	exportsTotal       *prometheus.CounterVec
	staleResponses     *prometheus.CounterVec
}

func NewWorkflowMetrics(service string, registerer prometheus.Registerer) *WorkflowMetrics {
	transitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Workflow state transitions.",
		},
		[]string{"service", "from", "to"},
	)
	persistenceWarning := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "persistence_warnings_total",
			Help:      "History saves that failed after a successful analysis.",
		},
		[]string{"service"},
	)
	exportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "exports_total",
			Help:      "Document exports by format and status.",
		},
		[]string{"service", "format", "status"},
	)
	staleResponses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "stale_responses_total",
			Help:      "Remote responses discarded because the workflow had moved on.",
		},
		[]string{"service", "stage"},
	)

	if registerer != nil {
		registerer.MustRegister(transitionsTotal, persistenceWarning, exportsTotal, staleResponses)
	}

	return &WorkflowMetrics{
		service:            service,
		transitionsTotal:   transitionsTotal,
		persistenceWarning: persistenceWarning,
		exportsTotal:       exportsTotal,
		staleResponses:     staleResponses,
	}
}

func (m *WorkflowMetrics) ObserveTransition(from, to domain.Stage) {
	m.transitionsTotal.WithLabelValues(m.service, string(from), string(to)).Inc()
}

func (m *WorkflowMetrics) ObservePersistenceWarning() {
	m.persistenceWarning.WithLabelValues(m.service).Inc()
}

func (m *WorkflowMetrics) ObserveExport(format domain.ExportFormat, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.exportsTotal.WithLabelValues(m.service, string(format), status).Inc()
}

func (m *WorkflowMetrics) ObserveStaleResponse(stage domain.Stage) {
	m.staleResponses.WithLabelValues(m.service, string(stage)).Inc()
}
