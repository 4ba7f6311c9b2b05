// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

// Package postgres implements auth.AccountStore on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vowmud/vowmud/internal/auth"
)

// Pool is the subset of *pgxpool.Pool the repository needs. It is satisfied
// by pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements auth.AccountStore using PostgreSQL.
type AccountRepository struct {
	pool Pool
	now  func() time.Time
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool Pool) *AccountRepository {
	return &AccountRepository{pool: pool, now: time.Now}
}

// FindByAccountName retrieves an account by exact, case-sensitive name.
func (r *AccountRepository) FindByAccountName(ctx context.Context, name string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, account_name, password_hash, real_name_hash, created_at
		FROM accounts
		WHERE account_name = $1
	`, name)

	var (
		idStr   string
		account auth.Account
	)
	err := row.Scan(&idStr, &account.AccountName, &account.PasswordHash, &account.RealNameHash, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("account_name", name).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by name").
			With("account_name", name).
			Wrap(err)
	}

	account.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}
	return &account, nil
}

// Insert stores a new account.
func (r *AccountRepository) Insert(ctx context.Context, name, realNameHash, passwordHash string) (*auth.Account, error) {
	account := &auth.Account{
		ID:           ulid.Make(),
		AccountName:  name,
		PasswordHash: passwordHash,
		RealNameHash: realNameHash,
		CreatedAt:    r.now().UTC(),
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, account_name, real_name_hash, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		account.ID.String(),
		account.AccountName,
		account.RealNameHash,
		account.PasswordHash,
		account.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("ACCOUNT_NAME_TAKEN").
				With("account_name", name).
				Wrap(auth.ErrDuplicateAccount)
		}
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("account_name", name).
			Wrap(err)
	}
	return account, nil
}

// Compile-time interface check.
var _ auth.AccountStore = (*AccountRepository)(nil)
