// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

// Package memory implements auth.AccountStore in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vowmud/vowmud/internal/auth"
)

// Store is an in-memory AccountStore. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]auth.Account
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{accounts: make(map[string]auth.Account)}
}

// FindByAccountName returns a copy of the named account.
func (s *Store) FindByAccountName(_ context.Context, name string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[name]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("account_name", name).
			Wrap(auth.ErrNotFound)
	}
	return &account, nil
}

// Insert stores a new account.
func (s *Store) Insert(_ context.Context, name, realNameHash, passwordHash string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[name]; ok {
		return nil, oops.Code("ACCOUNT_NAME_TAKEN").
			With("account_name", name).
			Wrap(auth.ErrDuplicateAccount)
	}

	account := auth.Account{
		ID:           ulid.Make(),
		AccountName:  name,
		PasswordHash: passwordHash,
		RealNameHash: realNameHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.accounts[name] = account
	return &account, nil
}

// Len returns the number of stored accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

var _ auth.AccountStore = (*Store)(nil)
