package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	jwt_service "taskmanager/JWT"
	"taskmanager/config"
	"taskmanager/handlers"
	"taskmanager/store"
)

const (
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

type App struct {
	cfg    *config.Config
	logger *log.Logger

	mu    sync.Mutex
	addr  string
	ready chan struct{}
}

func New(cfg *config.Config, logger *log.Logger) *App {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &App{cfg: cfg, logger: logger, ready: make(chan struct{})}
}

// Run connects to the database, then serves HTTP until ctx is cancelled.
// The listener is never bound if the database cannot be reached.
func (a *App) Run(ctx context.Context) error {
	s, backend, err := store.Open(ctx, a.cfg.DatabaseURI(), a.cfg.DBConnectTimeout)
	if err != nil {
		a.logger.WithField("error", err).Error("database connection error")
		return fmt.Errorf("database connection error: %w", err)
	}
	a.logger.WithField("component", "database").Info("Connected to " + backend)

	server := &http.Server{
		Handler:           a.router(s),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	ln, err := net.Listen("tcp", a.cfg.Address())
	if err != nil {
		a.closeStore(s)
		return fmt.Errorf("listening on %s: %w", a.cfg.Address(), err)
	}
	a.markReady(ln.Addr().String())
	a.logger.WithFields(log.Fields{
		"component": "server",
		"address":   ln.Addr().String(),
	}).Infof("Server is running on port %s", a.cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		a.logger.WithField("reason", ctx.Err()).Info("initiating graceful shutdown")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.closeStore(s)
			return fmt.Errorf("http server: %w", err)
		}
	}

	return a.shutdown(server, s)
}

func (a *App) router(s store.Store) http.Handler {
	var tokens *jwt_service.Service
	if a.cfg.AuthEnabled() {
		tokens = jwt_service.New([]byte(a.cfg.JWTSecret), a.cfg.TokenTTL)
	} else {
		a.logger.Warn("JWT_SECRET not set, task routes are unauthenticated")
	}

	return handlers.NewRouter(handlers.Options{
		Store:       s,
		Tokens:      tokens,
		StaticDir:   a.cfg.StaticDir,
		CORSOrigins: a.cfg.CORSOrigins,
		Logger:      a.logger,
	})
}

func (a *App) shutdown(server *http.Server, s store.Store) error {
	a.logger.Info("graceful shutdown started")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	if err := server.Shutdown(ctx); err != nil {
		a.logger.WithFields(log.Fields{
			"component": "server",
			"error":     err,
		}).Error("http server shutdown failed")
		firstErr = err
	}

	if err := s.Close(ctx); err != nil {
		a.logger.WithFields(log.Fields{
			"component": "database",
			"error":     err,
		}).Error("database connection close failed")
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr == nil {
		a.logger.Info("graceful shutdown completed")
	}
	return firstErr
}

func (a *App) closeStore(s store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		a.logger.WithField("error", err).Error("database connection close failed")
	}
}

func (a *App) markReady(addr string) {
	a.mu.Lock()
	a.addr = addr
	a.mu.Unlock()
	close(a.ready)
}

// Ready is closed once the listener is bound.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Addr is the bound listener address, or "" before Ready.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}
