package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"users_api/internal/config"
	"users_api/internal/service/users"
	"users_api/internal/telemetry"
)

type App struct {
	cfg    *config.Config
	users  *users.Service
	server *http.Server
	logger *zap.Logger
	ready  chan struct{}
	addr   net.Addr
	wg     sync.WaitGroup

	mu             sync.Mutex
	stopEvents     context.CancelFunc
	tracerShutdown func(context.Context) error
}

func NewApp(cfg *config.Config, router *gin.Engine, svc *users.Service, logger *zap.Logger) *App {
	return &App{
		cfg:   cfg,
		users: svc,
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router,
		},
		logger:         logger,
		ready:          make(chan struct{}),
		stopEvents:     func() {},
		tracerShutdown: func(context.Context) error { return nil },
	}
}

// Run serves HTTP until Shutdown is called. It returns nil after a graceful stop.
func (a *App) Run(ctx context.Context) error {
	shutdown, err := telemetry.Init(ctx, a.cfg)
	if err != nil {
		return err
	}

	eventsCtx, stopEvents := context.WithCancel(context.WithoutCancel(ctx))
	a.mu.Lock()
	a.tracerShutdown = shutdown
	a.stopEvents = stopEvents
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.users.RunEvents(eventsCtx)
	}()

	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		stopEvents()
		return err
	}
	a.addr = ln.Addr()
	close(a.ready)
	a.logger.Info("server listening", zap.String("addr", a.addr.String()))

	if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Ready is closed once the listener is bound.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Addr is the bound listener address; valid after Ready.
func (a *App) Addr() net.Addr {
	return a.addr
}

// Shutdown stops accepting requests, then flushes queued user events and
// pending spans within ctx.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("graceful shutdown started")
	shutdownErr := a.server.Shutdown(ctx)

	a.mu.Lock()
	stopEvents, tracerShutdown := a.stopEvents, a.tracerShutdown
	a.mu.Unlock()
	stopEvents()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("user events not flushed before shutdown deadline")
	}

	if err := tracerShutdown(ctx); err != nil {
		a.logger.Error("tracer shutdown failed", zap.Error(err))
	}
	if shutdownErr != nil {
		return shutdownErr
	}
	a.logger.Info("graceful shutdown completed")
	return nil
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}
