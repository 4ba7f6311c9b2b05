// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

// Package xdg provides XDG Base Directory paths for VoWmud.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "vowmud"

// ConfigDir returns $XDG_CONFIG_HOME/vowmud, falling back to ~/.config.
func ConfigDir() string {
	return dir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns $XDG_DATA_HOME/vowmud, falling back to ~/.local/share.
func DataDir() string {
	return dir("XDG_DATA_HOME", ".local", "share")
}

// ConfigFile is the config file read when --config is not given.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// AccountsDB is the default SQLite account database.
func AccountsDB() string {
	return filepath.Join(DataDir(), "accounts.db")
}

func dir(env string, fallback ...string) string {
	base := os.Getenv(env)
	if base == "" {
		base = filepath.Join(append([]string{os.Getenv("HOME")}, fallback...)...)
	}
	return filepath.Join(base, appName)
}

// EnsureDir creates path and its parents with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("XDG_MKDIR_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
