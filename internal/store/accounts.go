// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package store

import (
	"context"

	"github.com/samber/oops"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/internal/auth/memory"
	authpg "github.com/vowmud/vowmud/internal/auth/postgres"
	"github.com/vowmud/vowmud/internal/auth/sqlite"
)

// Account store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// AccountStoreConfig selects and locates the account store.
type AccountStoreConfig struct {
	Driver string
	DSN    string // connection URL for postgres, file path for sqlite
	Pool   PoolConfig
}

// AccountStore is an auth.AccountStore that owns its connection.
type AccountStore interface {
	auth.AccountStore
	Close() error
}

type nopCloser struct{ auth.AccountStore }

func (nopCloser) Close() error { return nil }

type pgStore struct {
	*authpg.AccountRepository
	close func()
}

func (s pgStore) Close() error {
	s.close()
	return nil
}

// OpenAccountStore opens the configured account store. PostgreSQL schemas
// are managed by Migrator; SQLite creates its own schema.
func OpenAccountStore(ctx context.Context, cfg AccountStoreConfig) (AccountStore, error) {
	switch cfg.Driver {
	case DriverPostgres:
		pc := cfg.Pool
		pc.DSN = cfg.DSN
		if pc.DSN == "" {
			return nil, oops.Code("STORE_DSN_REQUIRED").With("driver", cfg.Driver).Errorf("postgres store needs a DSN")
		}
		pool, err := OpenPool(ctx, pc)
		if err != nil {
			return nil, err
		}
		return pgStore{AccountRepository: authpg.NewAccountRepository(pool), close: pool.Close}, nil
	case DriverSQLite:
		if cfg.DSN == "" {
			return nil, oops.Code("STORE_DSN_REQUIRED").With("driver", cfg.Driver).Errorf("sqlite store needs a file path")
		}
		s, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return nopCloser{memory.NewStore()}, nil
	default:
		return nil, oops.Code("STORE_UNKNOWN_DRIVER").With("driver", cfg.Driver).
			Errorf("unknown store driver %q", cfg.Driver)
	}
}
