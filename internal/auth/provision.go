// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// SeedAccount is a plaintext account definition used to populate a fresh
// store.
type SeedAccount struct {
	AccountName string `koanf:"account_name"`
	RealName    string `koanf:"real_name"`
	Password    string `koanf:"password"`
}

// DefaultSeedAccounts are the development accounts every new install has.
var DefaultSeedAccounts = []SeedAccount{
	{AccountName: "testuser1", RealName: "John Doe", Password: "blahblahblah"},
	{AccountName: "testuser2", RealName: "John Doe", Password: "blahblahblah"},
	{AccountName: "testuser3", RealName: "John Doe", Password: "blahblahblah"},
}

// LegacyAccount is an account row from the legacy users table. Both
// fields are already hashed, usually with bcrypt.
type LegacyAccount struct {
	AccountName  string
	RealNameHash string
	PasswordHash string
}

// ImportResult counts what Import did.
type ImportResult struct {
	Imported int // new accounts written
	Existing int // skipped, name already in the store
	Rejected int // skipped, hash format not verifiable
	Legacy   int // imported with a hash that NeedsUpgrade
}

// Provisioner writes accounts into a store outside the login flow.
type Provisioner struct {
	store  AccountStore
	hasher PasswordHasher
	logger *slog.Logger
}

// NewProvisioner creates a Provisioner with a no-op logger.
func NewProvisioner(store AccountStore, hasher PasswordHasher) (*Provisioner, error) {
	return NewProvisionerWithLogger(store, hasher, slog.New(slog.DiscardHandler))
}

// NewProvisionerWithLogger creates a Provisioner with the provided logger.
func NewProvisionerWithLogger(store AccountStore, hasher PasswordHasher, logger *slog.Logger) (*Provisioner, error) {
	if store == nil {
		return nil, oops.Errorf("account store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Provisioner{store: store, hasher: hasher, logger: logger}, nil
}

// Seed inserts accounts that do not exist yet. Both hashes of an account
// share one salt, matching accounts created over telnet. It returns the
// number of accounts inserted.
func (p *Provisioner) Seed(ctx context.Context, accounts []SeedAccount) (int, error) {
	created := 0
	for _, acct := range accounts {
		if err := ValidateAccountName(acct.AccountName); err != nil {
			return created, oops.With("account_name", acct.AccountName).Wrap(err)
		}
		if err := ValidatePassword(acct.Password); err != nil {
			return created, oops.With("account_name", acct.AccountName).Wrap(err)
		}

		salt, err := p.hasher.NewSalt()
		if err != nil {
			return created, oops.Code("SEED_HASH_FAILED").Wrap(err)
		}
		passwordHash, err := p.hasher.HashWithSalt(acct.Password, salt)
		if err != nil {
			return created, oops.Code("SEED_HASH_FAILED").Wrap(err)
		}
		realNameHash, err := p.hasher.HashWithSalt(acct.RealName, salt)
		if err != nil {
			return created, oops.Code("SEED_HASH_FAILED").Wrap(err)
		}

		_, err = p.store.Insert(ctx, acct.AccountName, realNameHash, passwordHash)
		if errors.Is(err, ErrDuplicateAccount) {
			p.logger.DebugContext(ctx, "seed account exists", "account", acct.AccountName)
			continue
		}
		if err != nil {
			return created, oops.Code("SEED_INSERT_FAILED").With("account_name", acct.AccountName).Wrap(err)
		}
		p.logger.InfoContext(ctx, "seed account created", "account", acct.AccountName)
		created++
	}
	return created, nil
}

// Import copies legacy records into the store with their hashes unchanged,
// so players keep their passwords. Names already present are skipped, as
// are records whose password hash neither argon2id nor bcrypt can verify.
func (p *Provisioner) Import(ctx context.Context, records []LegacyAccount) (ImportResult, error) {
	var res ImportResult
	for _, rec := range records {
		legacy := p.hasher.NeedsUpgrade(rec.PasswordHash)
		if legacy && !isBcrypt(rec.PasswordHash) {
			p.logger.WarnContext(ctx, "legacy account has unsupported password hash",
				"account", rec.AccountName)
			res.Rejected++
			continue
		}

		_, err := p.store.Insert(ctx, rec.AccountName, rec.RealNameHash, rec.PasswordHash)
		if errors.Is(err, ErrDuplicateAccount) {
			p.logger.DebugContext(ctx, "legacy account exists", "account", rec.AccountName)
			res.Existing++
			continue
		}
		if err != nil {
			return res, oops.Code("IMPORT_INSERT_FAILED").With("account_name", rec.AccountName).Wrap(err)
		}

		res.Imported++
		if legacy {
			res.Legacy++
		}
		p.logger.InfoContext(ctx, "legacy account imported",
			"account", rec.AccountName,
			"needs_upgrade", legacy,
		)
	}
	return res, nil
}
