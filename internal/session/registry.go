// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

// Package session tracks which accounts are currently logged in.
package session

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Presence describes one logged-in account.
type Presence struct {
	AccountName string
	ConnID      ulid.ULID
	Since       time.Time
}

// Registry is the set of accounts that are online. It is shared by every
// connection and safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	online map[string]Presence // keyed by account name
	now    func() time.Time
	logger *slog.Logger
}

// NewRegistry creates an empty registry with a no-op logger.
func NewRegistry() *Registry {
	return NewRegistryWithLogger(nil)
}

// NewRegistryWithLogger creates an empty registry that logs to logger.
// A nil logger discards.
func NewRegistryWithLogger(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		online: make(map[string]Presence),
		now:    time.Now,
		logger: logger,
	}
}

// IsOnline reports whether name is currently claimed.
func (r *Registry) IsOnline(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.online[name]
	return ok
}

// Claim marks name as online for connID. It returns false if another
// connection already holds the name. Check-and-set is atomic.
func (r *Registry) Claim(name string, connID ulid.ULID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.online[name]; ok {
		return false
	}
	r.online[name] = Presence{AccountName: name, ConnID: connID, Since: r.now()}
	return true
}

// Release removes name from the registry if connID holds it.
func (r *Registry) Release(name string, connID ulid.ULID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.online[name]
	if !ok {
		r.logger.Debug("release called for account that is not online",
			"account_name", name,
			"conn_id", connID.String(),
		)
		return
	}
	if p.ConnID != connID {
		r.logger.Debug("release called by non-owning connection",
			"account_name", name,
			"conn_id", connID.String(),
			"owner_conn_id", p.ConnID.String(),
		)
		return
	}
	delete(r.online, name)
}

// List returns a snapshot of all online accounts ordered by name.
func (r *Registry) List() []Presence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Presence, 0, len(r.online))
	for _, p := range r.online {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AccountName < result[j].AccountName
	})
	return result
}

// Len returns the number of online accounts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.online)
}
