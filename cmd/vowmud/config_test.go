// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/pkg/errutil"
)

// parseConfig runs loadConfig the way a subcommand would.
func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var (
		cfg     *Config
		loadErr error
	)
	cmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loadErr = loadConfig(cmd)
			return nil
		},
	}
	registerFlags(cmd.PersistentFlags())
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	require.NoError(t, cmd.Execute())
	return cfg, loadErr
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := parseConfig(t)
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Telnet.Addr)
	assert.Equal(t, 100, cfg.Telnet.ReadLimit)
	assert.Equal(t, 10*time.Minute, cfg.Telnet.IdleTimeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, filepath.Join(home, "data", "vowmud", "accounts.db"), cfg.Store.DSN)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Text.Plain)
	assert.Empty(t, cfg.Seed.Accounts)
}

func TestLoadConfig_FileThenFlags(t *testing.T) {
	home := isolate(t)
	path := writeFile(t, filepath.Join(home, "vowmud.yaml"), `
telnet:
  addr: ":5000"
  read_limit: 50
  idle_timeout: 2m
store:
  driver: memory
text:
  plain: true
`)

	cfg, err := parseConfig(t, "--config", path, "--read-limit", "80")
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Telnet.Addr, "file overrides default")
	assert.Equal(t, 80, cfg.Telnet.ReadLimit, "flag overrides file")
	assert.Equal(t, 2*time.Minute, cfg.Telnet.IdleTimeout)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.True(t, cfg.Text.Plain)
	assert.Equal(t, "json", cfg.Log.Format, "unset keys keep defaults")
}

func TestLoadConfig_DefaultFileLocation(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, "config", "vowmud", "config.yaml"), "log:\n  format: text\n")

	cfg, err := parseConfig(t)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfig_SeedAccounts(t *testing.T) {
	home := isolate(t)
	path := writeFile(t, filepath.Join(home, "seed.yaml"), `
seed:
  accounts:
    - account_name: wizard
      real_name: Merlin
      password: abracadabra
`)

	cfg, err := parseConfig(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, []auth.SeedAccount{
		{AccountName: "wizard", RealName: "Merlin", Password: "abracadabra"},
	}, cfg.Seed.Accounts)
}

func TestLoadConfig_PostgresFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://vowmud@db/vowmud")

	cfg, err := parseConfig(t, "--store", "postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres://vowmud@db/vowmud", cfg.Store.DSN)

	cfg, err = parseConfig(t, "--store", "postgres", "--dsn", "postgres://other/db")
	require.NoError(t, err)
	assert.Equal(t, "postgres://other/db", cfg.Store.DSN, "flag wins over environment")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing config file", []string{"--config", "/nonexistent/vowmud.yaml"}, "CONFIG_LOAD_FAILED"},
		{"unknown store", []string{"--store", "mysql"}, "CONFIG_INVALID"},
		{"postgres without dsn", []string{"--store", "postgres"}, "CONFIG_INVALID"},
		{"bad log format", []string{"--log-format", "xml"}, "CONFIG_INVALID"},
		{"zero read limit", []string{"--read-limit", "0"}, "CONFIG_INVALID"},
		{"negative accept rate", []string{"--accept-rate", "-1"}, "CONFIG_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := parseConfig(t, tt.args...)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	home := isolate(t)
	path := writeFile(t, filepath.Join(home, "bad.yaml"), "telnet: [unclosed\n")

	_, err := parseConfig(t, "--config", path)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}
