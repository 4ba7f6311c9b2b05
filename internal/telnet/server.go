// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

// Package telnet provides the telnet front end: it accepts connections and
// runs the authentication flow on each one.
package telnet

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/samber/oops"
	"golang.org/x/time/rate"

	"github.com/vowmud/vowmud/internal/authflow"
)

// Config holds telnet listener settings.
type Config struct {
	Addr        string
	ReadLimit   int           // bytes per input line
	IdleTimeout time.Duration // zero disables
	AcceptRate  float64       // new connections per second; zero is unlimited
	AcceptBurst int
}

// Server is a telnet server.
type Server struct {
	cfg      Config
	flow     Authenticator
	registry Releaser
	text     authflow.Renderer
	logger   *slog.Logger
	limiter  *rate.Limiter

	mu       sync.RWMutex
	listener net.Listener
	wg       sync.WaitGroup
}

// ServerOption configures a Server during construction.
type ServerOption func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new telnet server.
func NewServer(cfg Config, flow Authenticator, registry Releaser, renderer authflow.Renderer, opts ...ServerOption) *Server {
	limit := rate.Inf
	if cfg.AcceptRate > 0 {
		limit = rate.Limit(cfg.AcceptRate)
	}
	burst := cfg.AcceptBurst
	if burst <= 0 {
		burst = 1
	}

	s := &Server{
		cfg:      cfg,
		flow:     flow,
		registry: registry,
		text:     renderer,
		logger:   slog.Default(),
		limiter:  rate.NewLimiter(limit, burst),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run starts the server and blocks until ctx is cancelled and every
// connection has closed.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return oops.Code("TELNET_LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("telnet server started", "addr", listener.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		if err := listener.Close(); err != nil {
			s.logger.Debug("error closing listener", "error", err)
		}
	})
	defer stop()
	defer s.wg.Wait()

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil //nolint:nilerr // cancellation is a normal shutdown
		}

		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.logger.Error("accept failed", "error", err)
				continue
			}
		}

		ConnectionsTotal.Inc()
		ConnectionsActive.Inc()
		handler := NewConnectionHandler(conn, s.cfg, s.flow, s.registry, s.text, s.logger)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer ConnectionsActive.Dec()
			handler.Handle(ctx)
		}()
	}
}
