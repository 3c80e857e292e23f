// Package server runs the HTTP handler with signal-driven graceful shutdown.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/config"
	"github.com/dd0wney/cluso-resilience/pkg/logging"
	restls "github.com/dd0wney/cluso-resilience/pkg/tls"
)

// ConfigReloadFunc is called on SIGHUP.
type ConfigReloadFunc func() error

// ShutdownHook runs after the listener has drained, in registration order.
type ShutdownHook func(ctx context.Context) error

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
type GracefulServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          logging.Logger

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error

	mu             sync.RWMutex
	configReloadFn ConfigReloadFunc
	hooks          []ShutdownHook
}

// NewGracefulServer fails only when TLS is enabled and its certificate
// cannot be loaded or generated.
func NewGracefulServer(cfg config.ServerConfig, handler http.Handler, logger logging.Logger) (*GracefulServer, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	tlsConfig, err := restls.Load(restls.Config{
		Enabled:      cfg.TLS.Enabled,
		CertFile:     cfg.TLS.CertFile,
		KeyFile:      cfg.TLS.KeyFile,
		CAFile:       cfg.TLS.CAFile,
		AutoGenerate: cfg.TLS.AutoGenerate,
		Hosts:        cfg.TLS.Hosts,
	})
	if err != nil {
		return nil, fmt.Errorf("server tls: %w", err)
	}
	return &GracefulServer{
		server: &http.Server{
			Addr:           cfg.Addr,
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxHeaderBytes: 1 << 20,
			TLSConfig:      tlsConfig,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger.With(logging.Component("http_server")),
		shutdownCh:      make(chan struct{}),
	}, nil
}

// OnShutdown registers a hook (stop jobs, close the store, ...).
func (gs *GracefulServer) OnShutdown(hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, hook)
}

func (gs *GracefulServer) SetConfigReloadFunc(fn ConfigReloadFunc) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.configReloadFn = fn
}

// Run listens on the configured address and blocks until ctx is cancelled,
// SIGINT/SIGTERM arrives, or the listener fails. Shutdown has completed
// when Run returns.
func (gs *GracefulServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return err
	}
	return gs.Serve(ctx, ln)
}

// Serve is Run on an existing listener. The listener is wrapped for TLS
// when the server was configured with a certificate.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	if gs.server.TLSConfig != nil {
		ln = tls.NewListener(ln, gs.server.TLSConfig)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	serveErr := make(chan error, 1)
	go func() {
		gs.logger.Info("starting HTTP server",
			logging.String("addr", ln.Addr().String()),
			logging.Bool("tls", gs.server.TLSConfig != nil))
		if err := gs.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	for {
		select {
		case err, ok := <-serveErr:
			if ok && err != nil {
				gs.logger.Error("HTTP server failed", logging.Error(err))
				gs.Shutdown(gs.shutdownTimeout)
				return err
			}
			return gs.Shutdown(gs.shutdownTimeout)
		case <-ctx.Done():
			gs.logger.Info("context cancelled, starting graceful shutdown")
			return gs.Shutdown(gs.shutdownTimeout)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				gs.logger.Info("received SIGHUP, reloading configuration")
				gs.ReloadConfig()
				continue
			}
			gs.logger.Info("received signal, starting graceful shutdown", logging.String("signal", sig.String()))
			return gs.Shutdown(gs.shutdownTimeout)
		}
	}
}

// Shutdown drains the listener, then runs the hooks. Only the first call
// does work; later calls return its result.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", timeout))

		var errs []error
		if err := gs.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}

		gs.mu.RLock()
		hooks := append([]ShutdownHook(nil), gs.hooks...)
		gs.mu.RUnlock()
		for _, hook := range hooks {
			if err := hook(ctx); err != nil {
				errs = append(errs, err)
			}
		}

		gs.shutdownErr = errors.Join(errs...)
		if gs.shutdownErr != nil {
			gs.logger.Error("shutdown finished with errors", logging.Error(gs.shutdownErr))
		} else {
			gs.logger.Info("server shutdown complete")
		}
	})
	return gs.shutdownErr
}

func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel closes when shutdown is initiated.
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

func (gs *GracefulServer) ReloadConfig() error {
	gs.mu.RLock()
	reloadFn := gs.configReloadFn
	gs.mu.RUnlock()

	if reloadFn == nil {
		gs.logger.Warn("configuration reload requested, but no reload function configured")
		return nil
	}
	if err := reloadFn(); err != nil {
		gs.logger.Error("configuration reload failed", logging.Error(err))
		return err
	}
	gs.logger.Info("configuration reload complete")
	return nil
}
