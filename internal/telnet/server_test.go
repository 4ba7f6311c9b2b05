// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package telnet

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/internal/auth/memory"
	"github.com/vowmud/vowmud/internal/authflow"
	"github.com/vowmud/vowmud/internal/session"
)

type testServer struct {
	srv      *Server
	registry *session.Registry
	cancel   context.CancelFunc
	done     chan error
}

func startServer(t *testing.T) *testServer {
	t.Helper()

	hasher := auth.NewArgon2idHasher()
	hash, err := hasher.Hash("correctpass")
	require.NoError(t, err)
	store := memory.NewStore()
	_, err = store.Insert(context.Background(), "alice", "rn", hash)
	require.NoError(t, err)

	registry := session.NewRegistry()
	renderer := plainRenderer(t)
	flow, err := authflow.New(store, hasher, registry, renderer)
	require.NoError(t, err)

	srv := NewServer(Config{Addr: "127.0.0.1:0", ReadLimit: 100, AcceptRate: 100, AcceptBurst: 10}, flow, registry, renderer)

	ctx, cancel := context.WithCancel(context.Background())
	ts := &testServer{srv: srv, registry: registry, cancel: cancel, done: make(chan error, 1)}
	go func() { ts.done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 2*time.Second, 5*time.Millisecond)
	return ts
}

func (ts *testServer) stop(t *testing.T) {
	t.Helper()
	ts.cancel()
	select {
	case err := <-ts.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

// expect reads from r until want has been seen.
func expect(t *testing.T, conn net.Conn, r *bufio.Reader, want string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var seen strings.Builder
	for !strings.Contains(seen.String(), want) {
		b, err := r.ReadByte()
		require.NoError(t, err, "waiting for %q, got %q", want, seen.String())
		seen.WriteByte(b)
	}
}

func TestServer_LoginOverTCP(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ts := startServer(t)
	defer ts.stop(t)

	conn, err := net.Dial("tcp", ts.srv.Addr())
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	r := bufio.NewReader(conn)

	expect(t, conn, r, "' to create: ")
	_, err = conn.Write([]byte("alice\r\n"))
	require.NoError(t, err)
	expect(t, conn, r, "Password: ")
	_, err = conn.Write([]byte("correctpass\r\n"))
	require.NoError(t, err)

	_, err = conn.Write([]byte("look\r\n"))
	require.NoError(t, err)
	expect(t, conn, r, "'look' is not a valid command.")
	assert.True(t, ts.registry.IsOnline("alice"))

	_, err = conn.Write([]byte("quit\r\n"))
	require.NoError(t, err)
	expect(t, conn, r, "Goodbye.")

	assert.Eventually(t, func() bool { return !ts.registry.IsOnline("alice") }, 2*time.Second, 5*time.Millisecond)
}

func TestServer_SecondLoginIsRefused(t *testing.T) {
	ts := startServer(t)
	defer ts.stop(t)

	login := func() (net.Conn, *bufio.Reader) {
		conn, err := net.Dial("tcp", ts.srv.Addr())
		require.NoError(t, err)
		r := bufio.NewReader(conn)
		expect(t, conn, r, "' to create: ")
		_, err = conn.Write([]byte("alice\r\ncorrectpass\r\n"))
		require.NoError(t, err)
		return conn, r
	}

	first, _ := login()
	defer func() { _ = first.Close() }()
	require.Eventually(t, func() bool { return ts.registry.IsOnline("alice") }, 5*time.Second, 5*time.Millisecond)

	second, r := login()
	defer func() { _ = second.Close() }()
	expect(t, second, r, "already logged in")
	assert.Equal(t, 1, ts.registry.Len())
}

func TestServer_ShutdownClosesConnections(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ts := startServer(t)

	conn, err := net.Dial("tcp", ts.srv.Addr())
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	r := bufio.NewReader(conn)
	expect(t, conn, r, "' to create: ")

	ts.stop(t)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = r.ReadByte()
	assert.Error(t, err, "server side of the connection is closed")
}

func TestServer_ListenError(t *testing.T) {
	srv := NewServer(Config{Addr: "256.0.0.1:bad"}, nil, nil, nil)
	err := srv.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, srv.Addr())
}
