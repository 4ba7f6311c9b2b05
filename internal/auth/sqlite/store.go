// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

// Package sqlite implements auth.AccountStore on an SQLite database file,
// the storage engine of the legacy server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vowmud/vowmud/internal/auth"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id             TEXT PRIMARY KEY,
	account_name   TEXT NOT NULL UNIQUE,
	real_name_hash TEXT NOT NULL,
	password_hash  TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL
);`

// Store is an AccountStore backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Code("SQLITE_OPEN_FAILED").With("path", path).Wrap(err)
	}
	// SQLite serialises writers; a single connection also keeps ":memory:"
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close() //nolint:errcheck // schema error takes precedence
		return nil, oops.Code("SQLITE_SCHEMA_FAILED").With("path", path).Wrap(err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return oops.Code("SQLITE_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

// FindByAccountName retrieves an account by exact, case-sensitive name.
func (s *Store) FindByAccountName(ctx context.Context, name string) (*auth.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_name, password_hash, real_name_hash, created_at
		FROM accounts
		WHERE account_name = ?
	`, name)

	var (
		idStr   string
		account auth.Account
	)
	err := row.Scan(&idStr, &account.AccountName, &account.PasswordHash, &account.RealNameHash, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
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
func (s *Store) Insert(ctx context.Context, name, realNameHash, passwordHash string) (*auth.Account, error) {
	account := &auth.Account{
		ID:           ulid.Make(),
		AccountName:  name,
		PasswordHash: passwordHash,
		RealNameHash: realNameHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, account_name, real_name_hash, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		account.ID.String(),
		account.AccountName,
		account.RealNameHash,
		account.PasswordHash,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
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

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

var _ auth.AccountStore = (*Store)(nil)
