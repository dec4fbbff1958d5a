package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ContentEngine/internal/config"
	"ContentEngine/internal/infrastructure/credentials"
	"ContentEngine/internal/infrastructure/dashboard"
	"ContentEngine/internal/infrastructure/discovery"
	"ContentEngine/internal/infrastructure/drafting"
	"ContentEngine/internal/infrastructure/ingest"
	"ContentEngine/internal/infrastructure/llm"
	"ContentEngine/internal/infrastructure/notify"
	"ContentEngine/internal/infrastructure/publisher"
	"ContentEngine/internal/infrastructure/scheduler"
	"ContentEngine/internal/infrastructure/storage"
	"ContentEngine/internal/logging"
	"ContentEngine/internal/platform"
	"ContentEngine/internal/ports"
	"ContentEngine/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	orchestrator *usecase.Orchestrator
	scheduler    *usecase.Scheduler
	server       *http.Server
	closeStore   func() error
}

// New builds the full runnable application: store, agents, publishers,
// the review dashboard, and the daily scheduler.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, closeStore, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	scoutLLM, err := llm.New(cfg.LLM, cfg.LLM.ScoutModel)
	if err != nil {
		return nil, fmt.Errorf("scout llm: %w", err)
	}
	editorLLM, err := llm.New(cfg.LLM, cfg.LLM.EditorModel)
	if err != nil {
		return nil, fmt.Errorf("editor llm: %w", err)
	}

	timeouts := usecase.Timeouts{
		Discovery:  cfg.Timeouts.Discovery.Std(),
		Drafting:   cfg.Timeouts.Drafting.Std(),
		Credential: cfg.Timeouts.Credential.Std(),
		Publish:    cfg.Timeouts.Publish.Std(),
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = notify.NewTelegramNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	orchestrator, err := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Discovery: discovery.NewScout(scoutLLM, baseLogger.With("component", "scout")),
		Writer:    drafting.NewEditor(editorLLM, baseLogger.With("component", "editor")),
		Store:     store,
		Notifier:  notifier,
		Topics:    cfg.Topics,
		Timeouts:  timeouts,
		Logger:    baseLogger.With("component", "orchestrator"),
	})
	if err != nil {
		return nil, err
	}

	gateway, err := usecase.NewGateway(store, baseLogger.With("component", "approval"))
	if err != nil {
		return nil, err
	}

	vault := credentials.NewStore(cfg.Credentials.TokenFile)

	registry := platform.NewRegistry()
	registry.Register(publisher.NewLinkedIn(nil, cfg.Platforms.LinkedIn.APIVersion))
	registry.Register(publisher.NewMedium(nil, cfg.Platforms.Medium.PublishStatus))

	coordinator, err := usecase.NewCoordinator(usecase.CoordinatorDeps{
		Store:       store,
		Credentials: credentials.NewProvider(cfg.Credentials, vault),
		Registry:    registry,
		Notifier:    notifier,
		Timeouts:    timeouts,
		Logger:      baseLogger.With("component", "coordinator"),
	})
	if err != nil {
		return nil, err
	}

	var auth *dashboard.LinkedInAuth
	if cfg.Platforms.LinkedIn.ClientID != "" {
		auth = dashboard.NewLinkedInAuth(cfg, vault, baseLogger)
	}

	server, err := dashboard.NewServer(dashboard.ServerDeps{
		Gateway:      gateway,
		Coordinator:  coordinator,
		Orchestrator: orchestrator,
		Importer:     ingest.NewProcessor(nil, editorLLM, baseLogger.With("component", "ingest")),
		Store:        store,
		Auth:         auth,
		Logger:       baseLogger.With("component", "dashboard"),
	})
	if err != nil {
		return nil, err
	}

	sched := usecase.NewScheduler(
		scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location()),
		orchestrator,
		baseLogger.With("component", "scheduler"),
	)

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		orchestrator: orchestrator,
		scheduler:    sched,
		server: &http.Server{
			Addr:              cfg.Dashboard.Addr,
			Handler:           server.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		closeStore: closeStore,
	}, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.RecordStore, func() error, error) {
	if cfg.Database.DSN == "" {
		logger.Warn("no database DSN configured, records will not survive restarts")
		return storage.NewMemoryStore(), func() error { return nil }, nil
	}

	store, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// Run starts the scheduler and the dashboard server and blocks until the
// context is cancelled, then shuts both down.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("dashboard listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	if err := a.closeStore(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// RunOnce performs a single pipeline execution and exits.
func (a *Application) RunOnce(ctx context.Context) error {
	defer func() { _ = a.closeStore() }()

	record, err := a.orchestrator.Run(ctx)
	if err != nil {
		return err
	}

	a.logger.Info("pipeline run complete", "record_id", record.ID, "status", record.Status)
	return nil
}
