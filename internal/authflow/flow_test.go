// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package authflow

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowmud/vowmud/internal/auth/memory"
	"github.com/vowmud/vowmud/internal/session"
	"github.com/vowmud/vowmud/internal/text"
	"github.com/vowmud/vowmud/pkg/errutil"
)

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(nil, fakeHasher{}, session.NewRegistry(), plainText(t))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTHFLOW_INVALID_CONFIG")
}

func TestNew_TableCoversEveryState(t *testing.T) {
	f := newTestFlow(t, memory.NewStore(), session.NewRegistry())
	table := f.Table()

	assert.Equal(t, StateInitial, table.Start())
	for _, st := range []State{
		StateInitial, StateShowBanner, StatePromptLogin, StateReadLogin,
		StatePromptPassword, StateReadPassword, StateValidate, StateAuthorizedPending,
		StateRegInitial, StatePromptAccountName, StateReadAccountName,
		StatePromptRealName, StateReadRealName, StatePromptNewPassword,
		StateReadNewPassword, StatePromptConfirmPassword, StateReadConfirmPassword,
		StateCreateAccount, StateInformSuccess,
	} {
		assert.True(t, table.Has(st), "missing %s", st)
		assert.False(t, table.IsTerminal(st), "%s must not be terminal", st)
	}
	assert.True(t, table.IsTerminal(StateAuthorized))
	assert.True(t, table.IsTerminal(StateError))
	assert.Equal(t, 21, table.Len())
}

func TestFlow_EveryAuthMessageIsInTheCatalog(t *testing.T) {
	r := plainText(t)
	for _, id := range validationMessages {
		assert.True(t, r.Has(text.CategoryAuth, id), "missing auth.%s", id)
	}
}

func TestRun_Cancelled(t *testing.T) {
	f := newTestFlow(t, memory.NewStore(), session.NewRegistry())
	tr := newScript("alice", "correctpass")
	s := newTestSession(tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := testutil.ToFloat64(AuthOutcomes.WithLabelValues(OutcomeAborted))
	_, err := f.Run(ctx, s)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "FSM_CANCELLED")
	assert.Equal(t, before+1, testutil.ToFloat64(AuthOutcomes.WithLabelValues(OutcomeAborted)))
	assert.Equal(t, 0, tr.reads)
}

func TestRun_RenderFailureEndsInError(t *testing.T) {
	broken, err := text.Parse([]byte("auth:\n  login_prompt:\n    - {text: \"login: \"}\n"), true)
	require.NoError(t, err)

	var buf bytes.Buffer
	f, err := New(memory.NewStore(), fakeHasher{}, session.NewRegistry(), broken,
		WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	require.NoError(t, err)

	s := newTestSession(newScript("alice"))
	final, err := f.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, StateError, final)
	assert.Contains(t, buf.String(), "TEXT_UNKNOWN_MESSAGE")
}

func TestRun_WriteFailureEndsInError(t *testing.T) {
	f := newTestFlow(t, memory.NewStore(), session.NewRegistry())
	tr := newScript("alice")
	tr.writeErr = errStoreDown
	s := newTestSession(tr)

	final, err := f.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, StateError, final)
	assert.Equal(t, 0, tr.reads)
}

func TestWithReadLimit_BoundsInput(t *testing.T) {
	store := memory.NewStore()
	f := newTestFlow(t, store, session.NewRegistry(), WithReadLimit(6))
	s := newTestSession(newScript("abcdefghij"))

	next := f.readLogin(context.Background(), s)
	assert.Equal(t, StatePromptPassword, next.Next)
	assert.Equal(t, "abcdef", s.Draft.(*LoginDraft).AccountName)
}

func TestRun_LogsAuthenticationEvents(t *testing.T) {
	store := memory.NewStore()
	_, err := store.Insert(context.Background(), "alice", "rn", "fake$salt$correctpass")
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	f := newTestFlow(t, store, session.NewRegistry(), WithLogger(logger))

	tr := newScript("alice", "correctpass")
	s := newTestSession(tr)
	final, err := f.Run(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, StateAuthorized, final)

	var msgs []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		msgs = append(msgs, entry["msg"].(string))

		assert.Equal(t, tr.PeerAddress(), entry["peer"])
		assert.Equal(t, s.Identity.ConnID.String(), entry["conn_id"])
		if entry["msg"] == "account login initiated" {
			assert.Equal(t, "alice", entry["account"])
			assert.InDelta(t, 1, entry["attempt"], 0)
		}
	}
	assert.Equal(t, []string{
		"authentication process initialized",
		"account login initiated",
		"account login authorized",
	}, msgs)
	assert.NotContains(t, buf.String(), "correctpass")
}

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)

	RecordLoginFailure(ReasonWrongPassword)
	RecordAccountCreated()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["vowmud_login_failures_total"])
	assert.True(t, names["vowmud_accounts_created_total"])
}
