// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package telnet

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/vowmud/vowmud/internal/authflow"
	"github.com/vowmud/vowmud/internal/session"
	"github.com/vowmud/vowmud/internal/text"
	"github.com/vowmud/vowmud/pkg/errutil"
)

// Authenticator runs the login conversation on a connection.
type Authenticator interface {
	Run(ctx context.Context, s *authflow.AuthSession) (authflow.State, error)
}

// Releaser gives up an account's online claim when its connection ends.
type Releaser interface {
	Release(name string, connID ulid.ULID)
}

// ConnectionHandler handles a single telnet connection.
type ConnectionHandler struct {
	conn      net.Conn
	transport *connTransport
	flow      Authenticator
	registry  Releaser
	text      authflow.Renderer
	logger    *slog.Logger
	readLimit int
	identity  *authflow.Identity
}

// NewConnectionHandler creates a handler for conn.
func NewConnectionHandler(conn net.Conn, cfg Config, flow Authenticator, registry Releaser, renderer authflow.Renderer, logger *slog.Logger) *ConnectionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	readLimit := cfg.ReadLimit
	if readLimit <= 0 {
		readLimit = authflow.DefaultReadLimit
	}
	t := newConnTransport(conn, cfg.IdleTimeout)
	return &ConnectionHandler{
		conn:      conn,
		transport: t,
		flow:      flow,
		registry:  registry,
		text:      renderer,
		logger:    logger,
		readLimit: readLimit,
		identity: &authflow.Identity{
			ConnID: session.NewConnID(),
			Peer:   t.PeerAddress(),
		},
	}
}

// Identity returns the connection's identity.
func (h *ConnectionHandler) Identity() *authflow.Identity {
	return h.identity
}

// Handle authenticates the player and then serves the connection until it
// closes or ctx is cancelled. The socket is always closed on return.
func (h *ConnectionHandler) Handle(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Cancellation unblocks any pending read.
	stop := context.AfterFunc(ctx, func() {
		_ = h.conn.Close() //nolint:errcheck // closed again below
	})
	defer stop()

	defer func() {
		if h.identity.AccountName != "" {
			h.registry.Release(h.identity.AccountName, h.identity.ConnID)
		}
		if err := h.conn.Close(); err != nil && !isClosedErr(err) {
			h.logger.Debug("error closing connection", "conn_id", h.identity.ConnID.String(), "error", err)
		}
		h.logger.Info("connection closed",
			"conn_id", h.identity.ConnID.String(),
			"peer", h.identity.Peer,
			"account", h.identity.AccountName,
		)
	}()

	h.logger.Info("connection opened",
		"conn_id", h.identity.ConnID.String(),
		"peer", h.identity.Peer,
	)

	final, err := h.flow.Run(ctx, authflow.NewAuthSession(h.transport, h.identity))
	if err != nil {
		if ctx.Err() == nil {
			errutil.LogError(h.logger, "authentication aborted", err,
				"conn_id", h.identity.ConnID.String(), "peer", h.identity.Peer)
		}
		return
	}
	if final != authflow.StateAuthorized || !h.identity.Authorized {
		return
	}

	h.serve(ctx)
}

// serve is the post-login command loop.
func (h *ConnectionHandler) serve(ctx context.Context) {
	for ctx.Err() == nil {
		b, err := h.transport.Read(h.readLimit)
		if err != nil || len(b) == 0 {
			return
		}
		line := strings.TrimSpace(string(b))
		if line == "" {
			continue
		}

		cmd, _, _ := strings.Cut(line, " ")
		if cmd == "quit" {
			h.sendSystem("goodbye")
			return
		}
		if !h.sendSystem("invalid_command", cmd) {
			return
		}
	}
}

func (h *ConnectionHandler) sendSystem(id string, args ...any) bool {
	msg, err := h.text.Render(text.CategorySystem, id, args...)
	if err != nil {
		errutil.LogError(h.logger, "render message", err, "conn_id", h.identity.ConnID.String())
		return false
	}
	if err := h.transport.Write(msg); err != nil {
		return false
	}
	return h.transport.Flush() == nil
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
