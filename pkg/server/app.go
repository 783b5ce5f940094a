package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TopMover/internal/domain/models"
	domrepo "TopMover/internal/domain/repository"
	"TopMover/internal/scheduler"
	"TopMover/internal/usecase"
	"TopMover/pkg/config"
	xhttp "TopMover/pkg/http"
	pkgkafka "TopMover/pkg/kafka"
	applogger "TopMover/pkg/logger"
)

// App encapsulates the application lifecycle in both one-shot and daemon form.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	dispatcher *usecase.Dispatcher
	store      domrepo.RecordStore
	events     domrepo.EventPublisher
	scheduler  *scheduler.Scheduler
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
}

// New creates a new App instance. consumer may be nil.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	dispatcher *usecase.Dispatcher,
	store domrepo.RecordStore,
	events domrepo.EventPublisher,
	sched *scheduler.Scheduler,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		dispatcher: dispatcher,
		store:      store,
		events:     events,
		scheduler:  sched,
		httpServer: httpServer,
		consumer:   consumer,
		kh:         kh,
	}
}

// Invoke runs a single JSON payload and releases resources.
func (a *App) Invoke(ctx context.Context, payload []byte) (*models.RunResult, error) {
	defer a.close()
	inv, err := a.dispatcher.ParseJSON(payload)
	if err != nil {
		return nil, err
	}
	return a.dispatcher.Run(ctx, inv)
}

// Run starts the daemon and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.scheduler.Start(ctx)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		a.consumer.WithConsumerHook(pkgkafka.RequestIDHook())
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer error", applogger.Error(err))
			a.scheduler.Stop()
			a.close()
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("daemon started",
		applogger.Strings("watchlist", a.cfg.Ingest.Watchlist),
		applogger.String("store", a.cfg.Store.Driver),
		applogger.String("schedule", a.cfg.Ingest.Schedule),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops intake first, then closes clients.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.scheduler.Stop()
	a.close()

	a.log.Info("shutdown complete")
	return nil
}

func (a *App) close() {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.log.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("store close error", applogger.Error(err))
		}
	}
}
