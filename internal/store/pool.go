// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// PoolConfig controls how OpenPool waits for the database.
type PoolConfig struct {
	DSN          string
	ConnectTries uint64        // ping attempts before giving up; zero means 5
	BaseBackoff  time.Duration // first retry delay, doubled each time; zero means 200ms
}

type pinger interface {
	Ping(ctx context.Context) error
}

// OpenPool creates a pgx pool and waits until the database answers a ping.
// Databases started alongside the server often need a few seconds.
func OpenPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	if err := waitReady(ctx, pool, cfg); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitReady(ctx context.Context, p pinger, cfg PoolConfig) error {
	tries := cfg.ConnectTries
	if tries == 0 {
		tries = 5
	}
	base := cfg.BaseBackoff
	if base <= 0 {
		base = 200 * time.Millisecond
	}

	attempt := 0
	backoff := retry.WithMaxRetries(tries-1, retry.NewExponential(base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			slog.Warn("database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_PING_FAILED").With("attempts", attempt).Wrap(err)
	}
	return nil
}
