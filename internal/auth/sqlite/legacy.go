// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package sqlite

import (
	"context"
	"database/sql"
	"os"

	"github.com/samber/oops"

	"github.com/vowmud/vowmud/internal/auth"
)

// ReadLegacyUsers returns every row of the users table in the legacy
// database at path, in insertion order. Hash columns may hold TEXT or
// BLOB values. The file must exist and is only read.
func ReadLegacyUsers(ctx context.Context, path string) ([]auth.LegacyAccount, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, oops.Code("LEGACY_DB_NOT_FOUND").With("path", path).Wrap(err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Code("SQLITE_OPEN_FAILED").With("path", path).Wrap(err)
	}
	defer func() { _ = db.Close() }() //nolint:errcheck // read-only

	rows, err := db.QueryContext(ctx, `
		SELECT account_name, real_name, password
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, oops.Code("LEGACY_QUERY_FAILED").With("path", path).Wrap(err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck // read-only

	var accounts []auth.LegacyAccount
	for rows.Next() {
		var name string
		var realName, password []byte
		if err := rows.Scan(&name, &realName, &password); err != nil {
			return nil, oops.Code("LEGACY_QUERY_FAILED").With("path", path).Wrap(err)
		}
		accounts = append(accounts, auth.LegacyAccount{
			AccountName:  name,
			RealNameHash: string(realName),
			PasswordHash: string(password),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("LEGACY_QUERY_FAILED").With("path", path).Wrap(err)
	}
	return accounts, nil
}
