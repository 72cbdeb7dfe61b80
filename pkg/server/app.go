package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "SmartMoney/internal/domain/repository"
	"SmartMoney/internal/usecase"
	pkgcache "SmartMoney/pkg/cache"
	pkgch "SmartMoney/pkg/clickhouse"
	"SmartMoney/pkg/config"
	xhttp "SmartMoney/pkg/http"
	applogger "SmartMoney/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	svc        *usecase.ScreeningService
	httpServer *xhttp.Server
	publisher  drepo.ResultPublisher
	store      pkgcache.Service
	chClient   *pkgch.Client
}

// New creates a new App instance with all dependencies. publisher, store and
// chClient may be nil; whatever is set is closed on shutdown.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.ScreeningService,
	httpServer *xhttp.Server,
	publisher drepo.ResultPublisher,
	store pkgcache.Service,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		svc:        svc,
		httpServer: httpServer,
		publisher:  publisher,
		store:      store,
		chClient:   chClient,
	}
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.String("addr", a.httpServer.Addr()))

	if a.cfg.Screener.RunOnStart {
		go func() {
			if _, err := a.RunOnce(ctx, false); err != nil {
				a.l.Error("startup screening failed", applogger.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// RunOnce runs one screening over the configured universe and logs the
// summary.
func (a *App) RunOnce(ctx context.Context, refresh bool) (*usecase.RunOutcome, error) {
	out, err := a.svc.RunScreening(ctx, usecase.RunCommand{Refresh: refresh})
	if err != nil {
		return nil, err
	}
	sum := out.Result.Summary()
	a.l.Info("screening summary",
		applogger.String("run_id", sum.RunID),
		applogger.Int("universe", sum.Universe),
		applogger.Int("analyzed", sum.Analyzed),
		applogger.Int("failed", sum.Failed),
		applogger.Bool("cached", out.Cached),
		applogger.Any("by_label", sum.ByLabel),
	)
	return out, nil
}

// Close releases infrastructure clients without touching the HTTP server.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.httpServer.ShutdownTimeout())
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	a.Close()
	a.l.Info("shutdown complete")
	return nil
}
