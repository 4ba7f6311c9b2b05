// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error whose code is code.
// oops reports the innermost code in a wrapped chain, so a store error
// wrapped by a command still asserts as the store's code.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	assert.Equal(t, code, oopsErr.Code(), "error code of %q", err.Error())
}

// AssertErrorContext asserts that key was attached to err with With and
// holds value. Context merges across the chain, so keys added at any
// wrap level are visible.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	ctx := oopsErr.Context()
	require.Contains(t, ctx, key, "context of %q", err.Error())
	assert.Equal(t, value, ctx[key], "context %s of %q", key, err.Error())
}
