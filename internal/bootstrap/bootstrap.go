package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kirillkom/resume-tailor/internal/config"
	"github.com/kirillkom/resume-tailor/internal/core/ports"
	"github.com/kirillkom/resume-tailor/internal/core/usecase"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/inspect"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/resilience"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/resumeapi"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/session"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/resume-tailor/internal/observability/metrics"
)

type Options struct {
	Service   string
	Logger    *slog.Logger
	Confirmer ports.Confirmer
}

type App struct {
	Config config.Config

	Workflow    *usecase.WorkflowController
	History     *usecase.HistoryUseCase
	Inspector   *inspect.Inspector
	HTTPMetrics *metrics.HTTPServerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessionProvider := newSessionProvider(ctx, cfg)
	executor := resilience.NewExecutor(resilienceConfig(cfg))
	client := resumeapi.NewWithOptions(cfg.ResumeAPIURL, sessionProvider, resumeapi.Options{
		Timeout:            cfg.ResumeAPITimeout,
		ResilienceExecutor: executor,
	})

	var (
		history ports.HistoryStore = resumeapi.NewHistoryStore(client)
		db      *sql.DB
	)
	if cfg.HistoryBackend == config.HistoryBackendPostgres {
		var err error
		db, err = postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate history schema: %w", err)
		}
		history = postgres.NewHistoryRepository(db, cfg.HistoryLimit)
	}

	sink, err := localfs.New(cfg.ExportPath)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("init export storage: %w", err)
	}

	var (
		events    ports.EventPublisher
		publisher *nats.Publisher
	)
	if cfg.EventsEnabled {
		eventsPolicy := resilienceConfig(cfg)
		eventsPolicy.RateLimit = 0
		publisher, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(eventsPolicy),
		})
		if err != nil {
			closeDB(db)
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		events = publisher
	}

	service := opts.Service
	if service == "" {
		service = "tailor"
	}
	httpMetrics := metrics.NewHTTPServerMetrics(service)
	workflowMetrics := metrics.NewWorkflowMetrics(service, httpMetrics.Registry())

	analyzeUC := usecase.NewAnalyzeUseCase(resumeapi.NewAnalyzer(client), history)
	applyUC := usecase.NewApplyKeywordsUseCase(resumeapi.NewKeywordApplier(client))
	exportUC := usecase.NewExportUseCase(resumeapi.NewRenderer(client), sink, cfg.NoticeTTL)
	workflow := usecase.NewWorkflowController(analyzeUC, applyUC, exportUC, usecase.WorkflowOptions{
		Events:         events,
		Observer:       workflowMetrics,
		Logger:         logger,
		ExportFilename: cfg.ExportFilename,
	})

	logger.Info("bootstrap_ready",
		"history_backend", cfg.HistoryBackend,
		"events_enabled", cfg.EventsEnabled,
		"oauth", cfg.OAuthEnabled(),
		"session_id", workflow.SessionID(),
	)

	return &App{
		Config:      cfg,
		Workflow:    workflow,
		History:     usecase.NewHistoryUseCase(history, opts.Confirmer),
		Inspector:   inspect.New(cfg.MaxUploadBytes),
		HTTPMetrics: httpMetrics,

		closeFn: func() {
			if publisher != nil {
				publisher.Close()
			}
			closeDB(db)
		},
	}, nil
}

// NewSubscriber connects a standalone event consumer.
func NewSubscriber(cfg config.Config) (*nats.Publisher, error) {
	return nats.New(cfg.NATSURL, cfg.NATSSubject)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newSessionProvider(ctx context.Context, cfg config.Config) ports.SessionProvider {
	if cfg.OAuthEnabled() {
		return session.NewOAuth(ctx, session.OAuthConfig{
			TokenURL:     cfg.OAuthTokenURL,
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RefreshToken: cfg.OAuthRefreshToken,
			Scopes:       cfg.OAuthScopes,
		})
	}
	return session.NewStaticToken(cfg.AccessToken)
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryMaxAttempts = cfg.RetryMaxAttempts
	out.RetryInitialBackoff = cfg.RetryInitialDelay
	out.BreakerOpenTimeout = cfg.BreakerOpenTimeout
	out.RateLimit = cfg.RateLimit
	out.RateBurst = cfg.RateBurst
	return out
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}
