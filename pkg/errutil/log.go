// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it extracts and logs the message, code and context.
// For standard errors, it logs the error string. attrs are appended as
// additional key/value pairs.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	out := make([]any, 0, 6+len(attrs))
	if oopsErr, ok := oops.AsOops(err); ok {
		out = append(out, "error", oopsErr.Error())
		if code := oopsErr.Code(); code != nil && code != "" {
			out = append(out, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			out = append(out, "context", ctx)
		}
	} else {
		out = append(out, "error", err)
	}
	logger.Error(msg, append(out, attrs...)...)
}
