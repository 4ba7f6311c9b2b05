// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package authflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/internal/fsm"
	"github.com/vowmud/vowmud/internal/text"
	"github.com/vowmud/vowmud/pkg/errutil"
)

var tracer = otel.Tracer("vowmud/authflow")

// DefaultReadLimit is the most bytes read for one line of input.
const DefaultReadLimit = 100

// Registry is the set of logged-in accounts shared by all connections.
type Registry interface {
	IsOnline(name string) bool
	// Claim atomically marks name online for connID; false if already held.
	Claim(name string, connID ulid.ULID) bool
}

// Renderer produces the bytes sent to the player for a message id.
type Renderer interface {
	Render(category, id string, args ...any) ([]byte, error)
}

// Flow runs the authentication conversation for connections.
// A Flow is immutable after New and may serve many connections at once.
type Flow struct {
	store     auth.AccountStore
	hasher    auth.PasswordHasher
	registry  Registry
	text      Renderer
	logger    *slog.Logger
	readLimit int
	table     *fsm.Table[State, *AuthSession]
}

// Option configures a Flow during construction.
type Option func(*Flow)

// WithLogger sets the logger for authentication events.
func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithReadLimit sets the byte budget for one line of input.
func WithReadLimit(n int) Option {
	return func(f *Flow) {
		if n > 0 {
			f.readLimit = n
		}
	}
}

// New creates a Flow and builds its transition table.
func New(store auth.AccountStore, hasher auth.PasswordHasher, registry Registry, renderer Renderer, opts ...Option) (*Flow, error) {
	if store == nil || hasher == nil || registry == nil || renderer == nil {
		return nil, oops.Code("AUTHFLOW_INVALID_CONFIG").
			Errorf("store, hasher, registry and renderer are required")
	}

	f := &Flow{
		store:     store,
		hasher:    hasher,
		registry:  registry,
		text:      renderer,
		logger:    slog.Default(),
		readLimit: DefaultReadLimit,
	}
	for _, opt := range opts {
		opt(f)
	}

	table, err := f.buildTable()
	if err != nil {
		return nil, oops.Code("AUTHFLOW_INVALID_CONFIG").Wrap(err)
	}
	f.table = table
	return f, nil
}

func (f *Flow) buildTable() (*fsm.Table[State, *AuthSession], error) {
	b := fsm.NewBuilder[State, *AuthSession]()

	b.Register(StateInitial, f.initial).
		Register(StateShowBanner, f.showBanner).
		Register(StatePromptLogin, f.promptLogin).
		Register(StateReadLogin, f.readLogin).
		Register(StatePromptPassword, f.promptPassword).
		Register(StateReadPassword, f.readPassword).
		Register(StateValidate, f.validate).
		Register(StateAuthorizedPending, f.authorizedPending)

	b.Register(StateRegInitial, f.regInitial).
		Register(StatePromptAccountName, f.promptAccountName).
		Register(StateReadAccountName, f.readAccountName).
		Register(StatePromptRealName, f.promptRealName).
		Register(StateReadRealName, f.readRealName).
		Register(StatePromptNewPassword, f.promptNewPassword).
		Register(StateReadNewPassword, f.readNewPassword).
		Register(StatePromptConfirmPassword, f.promptConfirmPassword).
		Register(StateReadConfirmPassword, f.readConfirmPassword).
		Register(StateCreateAccount, f.createAccount).
		Register(StateInformSuccess, f.informSuccess)

	b.Terminal(StateAuthorized, nil).
		Terminal(StateError, func(_ context.Context, s *AuthSession) {
			s.Identity.Authorized = false
		})

	return b.SetStart(StateInitial).Build()
}

// Table returns the flow's transition table.
func (f *Flow) Table() *fsm.Table[State, *AuthSession] {
	return f.table
}

// Run drives s through the conversation until a terminal state. The
// returned error is non-nil only for cancellation or a broken table; a
// disconnect or failed login is reported as StateError.
func (f *Flow) Run(ctx context.Context, s *AuthSession) (State, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "authflow.run",
		trace.WithAttributes(
			attribute.String("conn.id", s.Identity.ConnID.String()),
			attribute.String("net.peer", s.Identity.Peer),
		),
	)
	defer span.End()

	machine := fsm.NewMachine(f.table).WithObserver(func(from, to State) {
		f.logger.DebugContext(ctx, "auth state transition",
			"conn_id", s.Identity.ConnID.String(),
			"from", string(from),
			"to", string(to),
		)
	})

	final, err := machine.Run(ctx, s)

	outcome := OutcomeError
	switch {
	case err != nil:
		outcome = OutcomeAborted
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case final == StateAuthorized:
		outcome = OutcomeAuthorized
		span.SetAttributes(attribute.String("account.name", s.Identity.AccountName))
	}
	span.SetAttributes(
		attribute.String("auth.outcome", outcome),
		attribute.Int("auth.login_attempts", s.LoginAttempts),
	)
	RecordOutcome(outcome, time.Since(start))

	return final, err
}

// send renders a message and flushes it to the player. It returns false
// when the message could not be delivered, after logging why.
func (f *Flow) send(ctx context.Context, s *AuthSession, state State, category, id string, args ...any) bool {
	msg, err := f.text.Render(category, id, args...)
	if err != nil {
		errutil.LogError(f.logger, "render message", err, f.attrs(s, "state", string(state))...)
		return false
	}
	if err := s.Transport.Write(msg); err != nil {
		f.connectionLost(ctx, s, state)
		return false
	}
	if err := s.Transport.Flush(); err != nil {
		f.connectionLost(ctx, s, state)
		return false
	}
	return true
}

// say sends an auth message and routes to next, or to StateError if the
// message could not be delivered.
func (f *Flow) say(ctx context.Context, s *AuthSession, from State, id string, next State) fsm.Result[State, *AuthSession] {
	if !f.send(ctx, s, from, text.CategoryAuth, id) {
		return fsm.Next(StateError, s)
	}
	return fsm.Next(next, s)
}

// read returns one trimmed line from the player. ok is false when the
// connection is gone.
func (f *Flow) read(s *AuthSession) (line string, ok bool) {
	b, err := s.Transport.Read(f.readLimit)
	if err != nil || len(b) == 0 {
		return "", false
	}
	return trimInput(b), true
}

func (f *Flow) connectionLost(ctx context.Context, s *AuthSession, state State) fsm.Result[State, *AuthSession] {
	f.logger.WarnContext(ctx, "connection lost during authentication",
		f.attrs(s, "state", string(state))...,
	)
	return fsm.Next(StateError, s)
}

// attrs returns the common log attributes for s followed by extra.
func (f *Flow) attrs(s *AuthSession, extra ...any) []any {
	a := make([]any, 0, 4+len(extra))
	a = append(a,
		"peer", s.Identity.Peer,
		"conn_id", s.Identity.ConnID.String(),
	)
	return append(a, extra...)
}
