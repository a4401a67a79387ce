package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/resume-tailor/internal/bootstrap"
	"github.com/kirillkom/resume-tailor/internal/config"
	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/observability/logging"
	"github.com/kirillkom/resume-tailor/internal/observability/metrics"
)

const serviceName = "tailor-worker"

// The worker follows workflow events of every session, writes them to the
// structured log and aggregates transition metrics.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	subscriber, err := bootstrap.NewSubscriber(cfg)
	if err != nil {
		logger.Error("subscriber_init_failed", "error", err)
		os.Exit(1)
	}
	defer subscriber.Close()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	workflowMetrics := metrics.NewWorkflowMetrics(serviceName, httpMetrics.Registry())

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           httpMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_failed", "error", err)
		}
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject+".>")
	err = subscriber.SubscribeWorkflowEvents(ctx, func(_ context.Context, event domain.WorkflowEvent) error {
		workflowMetrics.ObserveTransition(event.From, event.To)
		logger.Info("workflow_event",
			"event_id", event.ID,
			"session_id", event.SessionID,
			"from", event.From,
			"to", event.To,
			"detail", event.Detail,
			"occurred_at", event.OccurredAt,
		)
		return nil
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
