package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"NepsePulse/internal/domain/repository"
	"NepsePulse/pkg/cache"
	"NepsePulse/pkg/config"
	xhttp "NepsePulse/pkg/http"
	applogger "NepsePulse/pkg/logger"
)

// App owns the application lifecycle: it starts the HTTP server, waits
// for a shutdown signal, and releases resources in order.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handlers   []xhttp.Handler
	publisher  repository.Publisher
	snapshots  cache.Service
	httpServer *xhttp.Server
}

// New creates an App. publisher and snapshots may be nil when their
// backends are disabled.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handlers []xhttp.Handler,
	publisher repository.Publisher,
	snapshots cache.Service,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		handlers:  handlers,
		publisher: publisher,
		snapshots: snapshots,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.logger, a.handlers,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.logger.Info("application started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("upstream", a.cfg.Upstream.BaseURL),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Warn("http shutdown error", applogger.Error(err))
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			a.logger.Warn("snapshot cache close error", applogger.Error(err))
		}
	}
	a.logger.Info("application stopped")
	return nil
}
