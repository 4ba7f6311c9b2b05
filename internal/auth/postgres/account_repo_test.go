// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/pkg/errutil"
)

var accountColumns = []string{"id", "account_name", "password_hash", "real_name_hash", "created_at"}

func TestAccountRepository_FindByAccountName(t *testing.T) {
	id := ulid.Make()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantCode  string
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, account_name, password_hash, real_name_hash, created_at`).
					WithArgs("alice").
					WillReturnRows(pgxmock.NewRows(accountColumns).
						AddRow(id.String(), "alice", "$argon2id$pw", "$argon2id$rn", created))
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, account_name`).
					WithArgs("alice").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr:  auth.ErrNotFound,
			wantCode: "ACCOUNT_NOT_FOUND",
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, account_name`).
					WithArgs("alice").
					WillReturnError(errors.New("connection refused"))
			},
			wantCode: "ACCOUNT_GET_FAILED",
		},
		{
			name: "corrupt id",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, account_name`).
					WithArgs("alice").
					WillReturnRows(pgxmock.NewRows(accountColumns).
						AddRow("not-a-ulid", "alice", "pw", "rn", created))
			},
			wantCode: "ACCOUNT_INVALID_ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewAccountRepository(mock)
			got, err := repo.FindByAccountName(context.Background(), "alice")

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Nil(t, got)
				errutil.AssertErrorCode(t, err, tt.wantCode)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, id, got.ID)
				assert.Equal(t, "alice", got.AccountName)
				assert.Equal(t, "$argon2id$pw", got.PasswordHash)
				assert.Equal(t, "$argon2id$rn", got.RealNameHash)
				assert.Equal(t, created, got.CreatedAt)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAccountRepository_Insert(t *testing.T) {
	fixed := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantCode  string
	}{
		{
			name: "success",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(pgxmock.AnyArg(), "newuser1", "rnhash", "pwhash", fixed).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate name",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(pgxmock.AnyArg(), "newuser1", "rnhash", "pwhash", fixed).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr:  auth.ErrDuplicateAccount,
			wantCode: "ACCOUNT_NAME_TAKEN",
		},
		{
			name: "other database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(pgxmock.AnyArg(), "newuser1", "rnhash", "pwhash", fixed).
					WillReturnError(errors.New("disk full"))
			},
			wantCode: "ACCOUNT_CREATE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewAccountRepository(mock)
			repo.now = func() time.Time { return fixed }

			got, err := repo.Insert(context.Background(), "newuser1", "rnhash", "pwhash")
			if tt.wantCode != "" {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantCode)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.NotErrorIs(t, err, auth.ErrDuplicateAccount)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, "newuser1", got.AccountName)
				assert.Equal(t, "pwhash", got.PasswordHash)
				assert.Equal(t, "rnhash", got.RealNameHash)
				assert.Equal(t, fixed, got.CreatedAt)
				assert.NotEqual(t, ulid.ULID{}, got.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}
