// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the VoWmud CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vowmud",
		Short: "VoWmud - a telnet MUD server",
		Long: `VoWmud is a telnet MUD server. Players log in to existing accounts
or create new ones before entering the game.`,
		SilenceUsage: true,
	}

	registerFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
