// SPDX-License-Identifier: MPL-2.0

package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/devsoap/devlaunch/internal/core/serverbase"
)

// ErrStoppedDuringStart is returned by Start when Stop won the race against it.
var ErrStoppedDuringStart = errors.New("server stopped while starting")

type (
	// Application produces the handler graph served by a Server. Prepare runs
	// once, after the starting transition; an error fails the start.
	Application interface {
		Prepare(ctx context.Context) (http.Handler, error)
	}

	// ApplicationFunc adapts a function to Application.
	ApplicationFunc func(ctx context.Context) (http.Handler, error)

	// Describer is implemented by applications that can describe themselves
	// on the introspection endpoint.
	Describer interface {
		Describe() any
	}

	// Option configures a Server.
	Option func(*Server)

	// Server is a single-use development HTTP server.
	Server struct {
		*serverbase.Base

		cfg      Config
		app      Application
		logger   *log.Logger
		registry *prometheus.Registry

		mu   sync.Mutex
		srv  *http.Server
		addr string
	}
)

// Prepare implements Application.
func (f ApplicationFunc) Prepare(ctx context.Context) (http.Handler, error) { return f(ctx) }

// WithLogger sets the logger used for server diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a Server for app. Nothing is bound until Start.
func New(cfg Config, app Application, opts ...Option) *Server {
	s := &Server{
		Base:     serverbase.NewBase(),
		cfg:      cfg.withDefaults(),
		app:      app,
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// Start prepares the application, binds the listener and starts serving.
// It returns once the server is running or has failed. Cancelling ctx later
// stops the server.
func (s *Server) Start(ctx context.Context) error {
	if err := s.TransitionToStarting(ctx); err != nil {
		return err
	}

	handler, err := s.app.Prepare(ctx)
	if err != nil {
		return s.fail(fmt.Errorf("preparing application: %w", err))
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port.String())
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return s.fail(fmt.Errorf("failed to listen on %s: %w", addr, err))
	}

	s.mu.Lock()
	if s.State() != serverbase.StateStarting {
		s.mu.Unlock()
		_ = listener.Close() // Best-effort cleanup; Stop already ran
		return ErrStoppedDuringStart
	}
	s.addr = listener.Addr().String()
	s.srv = &http.Server{
		Handler:           s.routes(handler),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ErrorLog:          s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel}),
	}
	s.AddGoroutine()
	go s.serve(s.srv, listener)
	s.mu.Unlock()

	s.TransitionToRunning()
	s.logger.Info("dev server listening", "address", s.addr)

	go s.stopOnCancel(ctx)
	return nil
}

func (s *Server) fail(err error) error {
	s.TransitionToFailed(err)
	return err
}

func (s *Server) serve(srv *http.Server, listener net.Listener) {
	defer s.DoneGoroutine()

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.TransitionToFailed(fmt.Errorf("serving: %w", err))
	}
}

func (s *Server) stopOnCancel(ctx context.Context) {
	select {
	case <-ctx.Done():
		if err := s.Stop(); err != nil {
			s.logger.Error("shutdown failed", "err", err)
		}
	case <-s.Done():
	}
}

// Stop gracefully stops the server, bounded by the shutdown timeout.
// Safe to call multiple times; concurrent callers wait for the first stop.
func (s *Server) Stop() error {
	if !s.TransitionToStopping() {
		if s.State() == serverbase.StateStopping {
			<-s.Done()
		}
		return nil
	}
	return s.doStop()
}

func (s *Server) doStop() error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	var shutdownErr error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("shutting down: %w", err)
			_ = srv.Close() // Force-close remaining connections
		}
	}

	s.WaitForShutdown()

	if shutdownErr != nil {
		s.TransitionToFailed(shutdownErr)
		return shutdownErr
	}
	s.TransitionToStopped()
	return nil
}

// Join blocks until the server reaches a terminal state and returns the
// failure cause, if any.
func (s *Server) Join() error {
	<-s.Done()
	return s.LastError()
}

// Addr returns the bound address, or "" before the listener is bound.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
