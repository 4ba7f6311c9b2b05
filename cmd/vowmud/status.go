// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/vowmud/vowmud/internal/observability"
)

const defaultStatusTimeout = 5 * time.Second

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
	timeout    time.Duration
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	sc := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of a running VoWmud server",
		Long: `Query the metrics address of a running server for readiness and
the accounts currently online.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, sc)
		},
	}

	cmd.Flags().BoolVar(&sc.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().DurationVar(&sc.timeout, "timeout", defaultStatusTimeout, "how long to wait for the server")

	return cmd
}

func runStatus(cmd *cobra.Command, sc *statusConfig) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Metrics.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("status needs --metrics-addr")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sc.timeout)
	defer cancel()

	status, err := observability.Probe(ctx, &http.Client{Timeout: sc.timeout}, cfg.Metrics.Addr)
	if err != nil {
		return err
	}

	if sc.jsonOutput {
		out, err := formatStatusJSON(status)
		if err != nil {
			return err
		}
		cmd.Println(out)
	} else {
		cmd.Print(formatStatusTable(status, time.Now()))
	}
	if !status.Ready {
		return oops.Code("SERVER_NOT_READY").With("addr", cfg.Metrics.Addr).Errorf("server is not ready")
	}
	return nil
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status *observability.Status, now time.Time) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	ready := "not ready"
	if status.Ready {
		ready = "ready"
	}
	_, _ = fmt.Fprintf(w, "server: %s, %d online\n\n", ready, len(status.Sessions))

	if len(status.Sessions) > 0 {
		_, _ = fmt.Fprintln(w, "ACCOUNT\tCONNECTION\tONLINE")
		_, _ = fmt.Fprintln(w, "-------\t----------\t------")
		for _, s := range status.Sessions {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Account, s.ConnID, formatUptime(now.Sub(s.Since)))
		}
	}

	_ = w.Flush()
	return buf.String()
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(status *observability.Status) (string, error) {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return "", oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
	}
	return string(data), nil
}

// formatUptime formats a duration the way an operator reads it.
func formatUptime(d time.Duration) string {
	seconds := int64(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
