// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/internal/auth/sqlite"
)

const defaultImportTimeout = 2 * time.Minute

type importConfig struct {
	timeout time.Duration
}

// NewImportCmd creates the import subcommand.
func NewImportCmd() *cobra.Command {
	ic := &importConfig{}

	cmd := &cobra.Command{
		Use:   "import LEGACY_DB",
		Short: "Import accounts from a legacy SQLite users table",
		Long: `Copies every row of the users(account_name, real_name, password) table
in LEGACY_DB into the configured account store. Hashes are stored unchanged;
bcrypt hashes keep working at login. Accounts that already exist are skipped,
so the command can be run repeatedly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, ic, args[0])
		},
	}

	cmd.Flags().DurationVar(&ic.timeout, "timeout", defaultImportTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runImport(cmd *cobra.Command, ic *importConfig, legacyPath string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := setupLogging(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), ic.timeout)
	defer cancel()

	records, err := sqlite.ReadLegacyUsers(ctx, legacyPath)
	if err != nil {
		return err
	}

	accounts, err := openMigratedStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer closeStore(logger, accounts)

	provisioner, err := auth.NewProvisionerWithLogger(accounts, auth.NewArgon2idHasher(), logger)
	if err != nil {
		return err
	}
	res, err := provisioner.Import(ctx, records)
	if err != nil {
		return oops.Code("IMPORT_FAILED").With("legacy_db", legacyPath).Wrap(err)
	}

	cmd.Printf("Imported %d of %d account(s), %d already present, %d rejected\n",
		res.Imported, len(records), res.Existing, res.Rejected)
	cmd.Printf("%d imported account(s) use legacy bcrypt hashes\n", res.Legacy)
	return nil
}
