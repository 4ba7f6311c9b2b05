// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package authflow

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/internal/fsm"
	"github.com/vowmud/vowmud/internal/session"
	"github.com/vowmud/vowmud/internal/text"
)

// scriptTransport replays lines as if typed by a player, then reports the
// connection closed.
type scriptTransport struct {
	lines    []string
	out      bytes.Buffer
	reads    int
	writeErr error
}

func newScript(lines ...string) *scriptTransport {
	return &scriptTransport{lines: lines}
}

func (t *scriptTransport) Read(max int) ([]byte, error) {
	if len(t.lines) == 0 {
		return nil, io.EOF
	}
	line := t.lines[0]
	t.lines = t.lines[1:]
	t.reads++
	b := []byte(line + "\r\n")
	if len(b) > max {
		b = b[:max]
	}
	return b, nil
}

func (t *scriptTransport) Write(p []byte) error {
	if t.writeErr != nil {
		return t.writeErr
	}
	t.out.Write(p)
	return nil
}

func (t *scriptTransport) Flush() error { return nil }

func (t *scriptTransport) PeerAddress() string { return "203.0.113.7:40000" }

func (t *scriptTransport) transcript() string { return t.out.String() }

// fakeHasher is a fast, transparent PasswordHasher.
type fakeHasher struct{}

func (fakeHasher) NewSalt() ([]byte, error) { return []byte("salt"), nil }

func (fakeHasher) HashWithSalt(secret string, salt []byte) (string, error) {
	return "fake$" + string(salt) + "$" + secret, nil
}

func (h fakeHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", auth.ErrEmptySecret
	}
	return h.HashWithSalt(secret, []byte("salt"))
}

func (fakeHasher) Verify(secret, hash string) (bool, error) {
	if !strings.HasPrefix(hash, "fake$") {
		return false, nil
	}
	return hash == "fake$salt$"+secret, nil
}

func (fakeHasher) NeedsUpgrade(string) bool { return false }

// mockStore is a mock for auth.AccountStore.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindByAccountName(ctx context.Context, name string) (*auth.Account, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Account), args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, name, realNameHash, passwordHash string) (*auth.Account, error) {
	args := m.Called(ctx, name, realNameHash, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Account), args.Error(1)
}

// stubRegistry reports every account offline and refuses every claim.
type stubRegistry struct{}

func (stubRegistry) IsOnline(string) bool          { return false }
func (stubRegistry) Claim(string, ulid.ULID) bool { return false }

var errStoreDown = errors.New("connection refused")

func plainText(t *testing.T) *text.Renderer {
	t.Helper()
	r, err := text.New(true)
	require.NoError(t, err)
	return r
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFlow(t *testing.T, store auth.AccountStore, registry Registry, opts ...Option) *Flow {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	f, err := New(store, fakeHasher{}, registry, plainText(t), opts...)
	require.NoError(t, err)
	return f
}

func newTestSession(tr Transport) *AuthSession {
	return NewAuthSession(tr, &Identity{
		ConnID: session.NewConnID(),
		Peer:   tr.PeerAddress(),
	})
}

// runTraced runs the flow's table and records every transition.
func runTraced(t *testing.T, f *Flow, s *AuthSession) (State, []State) {
	t.Helper()
	path := []State{f.Table().Start()}
	final, err := fsm.NewMachine(f.Table()).
		WithObserver(func(_, to State) { path = append(path, to) }).
		Run(context.Background(), s)
	require.NoError(t, err)
	return final, path
}

// follows reports whether to appears immediately after from in path.
func follows(path []State, from, to State) bool {
	for i := 0; i+1 < len(path); i++ {
		if path[i] == from && path[i+1] == to {
			return true
		}
	}
	return false
}
