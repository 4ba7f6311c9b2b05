// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	sc := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial accounts",
		Long: `Creates the accounts listed under seed.accounts in the config file,
or the default test accounts when none are listed. Existing accounts are
left untouched, so the command can be run repeatedly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, sc)
		},
	}

	cmd.Flags().DurationVar(&sc.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, sc *seedConfig) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := setupLogging(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sc.timeout)
	defer cancel()

	accounts, err := openMigratedStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer closeStore(logger, accounts)

	seeds := cfg.Seed.Accounts
	if len(seeds) == 0 {
		seeds = auth.DefaultSeedAccounts
	}
	provisioner, err := auth.NewProvisionerWithLogger(accounts, auth.NewArgon2idHasher(), logger)
	if err != nil {
		return err
	}
	created, err := provisioner.Seed(ctx, seeds)
	if err != nil {
		return oops.Code("SEED_FAILED").Wrap(err)
	}

	cmd.Printf("Created %d of %d account(s)\n", created, len(seeds))
	return nil
}

// openMigratedStore opens the configured account store, applying
// migrations first when it is PostgreSQL.
func openMigratedStore(ctx context.Context, cmd *cobra.Command, cfg *Config) (store.AccountStore, error) {
	if cfg.Store.Driver == store.DriverPostgres {
		cmd.Println("Running migrations...")
		if err := migrateUp(cfg.Store.DSN); err != nil {
			return nil, err
		}
	}

	storeCfg, err := cfg.storeConfig()
	if err != nil {
		return nil, err
	}
	accounts, err := store.OpenAccountStore(ctx, storeCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "open account store").Wrap(err)
	}
	return accounts, nil
}

func closeStore(logger *slog.Logger, accounts store.AccountStore) {
	if err := accounts.Close(); err != nil {
		logger.Warn("closing account store failed", "error", err)
	}
}

func migrateUp(dsn string) error {
	m, err := store.NewMigrator(dsn)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() { _ = m.Close() }() //nolint:errcheck // best-effort
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}
