// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package session

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ClaimAndRelease(t *testing.T) {
	r := NewRegistry()
	a, b := NewConnID(), NewConnID()

	assert.False(t, r.IsOnline("testuser1"))
	require.True(t, r.Claim("testuser1", a))
	assert.True(t, r.IsOnline("testuser1"))
	assert.False(t, r.Claim("testuser1", b), "second claim must fail")

	r.Release("testuser1", b)
	assert.True(t, r.IsOnline("testuser1"), "non-owner release is ignored")

	r.Release("testuser1", a)
	assert.False(t, r.IsOnline("testuser1"))
	assert.True(t, r.Claim("testuser1", b))
}

func TestRegistry_ReleaseUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Release("nobody", NewConnID())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_LogsToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewRegistryWithLogger(logger)

	owner, other := NewConnID(), NewConnID()
	require.True(t, r.Claim("testuser1", owner))
	r.Release("testuser1", other)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "release called by non-owning connection", entry["msg"])
	assert.Equal(t, "testuser1", entry["account_name"])
	assert.Equal(t, owner.String(), entry["owner_conn_id"])
}

func TestRegistry_NilLoggerDiscards(t *testing.T) {
	r := NewRegistryWithLogger(nil)
	assert.NotPanics(t, func() { r.Release("nobody", NewConnID()) })
}

func TestRegistry_NamesAreCaseSensitive(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Claim("Alice", NewConnID()))
	assert.False(t, r.IsOnline("alice"))
	assert.True(t, r.Claim("alice", NewConnID()))
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	c1, c2 := NewConnID(), NewConnID()
	r.Claim("zed", c1)
	r.Claim("amy", c2)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, Presence{AccountName: "amy", ConnID: c2, Since: fixed}, list[0])
	assert.Equal(t, Presence{AccountName: "zed", ConnID: c1, Since: fixed}, list[1])

	list[0].AccountName = "mutated"
	assert.True(t, r.IsOnline("amy"), "List returns a snapshot")
}

func TestRegistry_ConcurrentClaimHasOneWinner(t *testing.T) {
	r := NewRegistry()

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if r.Claim("contested", NewConnID()) {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, 1, r.Len())
}

func TestNewConnID_Monotonic(t *testing.T) {
	prev := NewConnID()
	for i := 0; i < 100; i++ {
		next := NewConnID()
		assert.Equal(t, 1, next.Compare(prev))
		prev = next
	}
}
