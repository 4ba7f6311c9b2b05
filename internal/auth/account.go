// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Account is a persisted user account. Both hashes share one salt; the
// plaintext password and real name are never stored.
type Account struct {
	ID           ulid.ULID
	AccountName  string
	PasswordHash string
	RealNameHash string
	CreatedAt    time.Time
}

// AccountStore persists accounts.
type AccountStore interface {
	// FindByAccountName returns the account with exactly this name.
	// Returns an error wrapping ErrNotFound if there is none.
	FindByAccountName(ctx context.Context, name string) (*Account, error)

	// Insert stores a new account and returns it.
	// Returns an error wrapping ErrDuplicateAccount if the name is taken.
	Insert(ctx context.Context, name, realNameHash, passwordHash string) (*Account, error)
}
