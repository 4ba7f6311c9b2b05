// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/internal/authflow"
	"github.com/vowmud/vowmud/internal/store"
	"github.com/vowmud/vowmud/internal/xdg"
)

// Config is the merged configuration: defaults, then the YAML config file,
// then flags set on the command line.
type Config struct {
	Telnet  TelnetConfig  `koanf:"telnet"`
	Store   StoreConfig   `koanf:"store"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Text    TextConfig    `koanf:"text"`
	Seed    SeedConfig    `koanf:"seed"`
}

// TelnetConfig configures the player listener.
type TelnetConfig struct {
	Addr        string        `koanf:"addr"`
	ReadLimit   int           `koanf:"read_limit"`
	IdleTimeout time.Duration `koanf:"idle_timeout"`
	AcceptRate  float64       `koanf:"accept_rate"`
	AcceptBurst int           `koanf:"accept_burst"`
}

// StoreConfig selects the account store.
type StoreConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// MetricsConfig configures the metrics and health endpoint.
type MetricsConfig struct {
	Addr string `koanf:"addr"` // empty disables
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// TextConfig configures message rendering.
type TextConfig struct {
	Plain bool `koanf:"plain"`
}

// SeedConfig lists the accounts created by the seed command. The default
// test accounts are used when empty.
type SeedConfig struct {
	Accounts []auth.SeedAccount `koanf:"accounts"`
}

// Default values for flags.
const (
	defaultTelnetAddr  = ":4000"
	defaultMetricsAddr = "127.0.0.1:9100"
	defaultLogFormat   = "json"
	defaultLogLevel    = "info"
)

// flagKeys maps flag names to config keys. Flags not listed are not
// configuration.
var flagKeys = map[string]string{
	"telnet-addr":  "telnet.addr",
	"read-limit":   "telnet.read_limit",
	"idle-timeout": "telnet.idle_timeout",
	"accept-rate":  "telnet.accept_rate",
	"accept-burst": "telnet.accept_burst",
	"store":        "store.driver",
	"dsn":          "store.dsn",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"plain":        "text.plain",
}

func registerFlags(f *pflag.FlagSet) {
	f.String("config", "", "config file path (default: XDG_CONFIG_HOME/vowmud/config.yaml)")
	f.String("telnet-addr", defaultTelnetAddr, "telnet listen address")
	f.Int("read-limit", authflow.DefaultReadLimit, "maximum bytes read per input line")
	f.Duration("idle-timeout", 10*time.Minute, "disconnect idle connections after this long (0 = never)")
	f.Float64("accept-rate", 0, "new connections accepted per second (0 = unlimited)")
	f.Int("accept-burst", 10, "connections accepted in a burst above accept-rate")
	f.String("store", store.DriverSQLite, "account store: postgres, sqlite or memory")
	f.String("dsn", "", "postgres URL or sqlite path (default: DATABASE_URL or XDG_DATA_HOME/vowmud/accounts.db)")
	f.String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	f.String("log-format", defaultLogFormat, "log format (json or text)")
	f.String("log-level", defaultLogLevel, "log level (debug, info, warn or error)")
	f.Bool("plain", false, "send messages without ANSI colors")
}

// loadConfig merges the config file and cmd's flags.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	flags := cmd.Flags()
	k := koanf.New(".")

	path, err := flags.GetString("config")
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	explicit := path != ""
	if !explicit {
		path = xdg.ConfigFile()
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	fromFlag := func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	}
	if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, fromFlag), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	cfg.resolveDSN()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveDSN fills in the store location when none was configured.
func (cfg *Config) resolveDSN() {
	if cfg.Store.DSN != "" {
		return
	}
	switch cfg.Store.Driver {
	case store.DriverPostgres:
		cfg.Store.DSN = os.Getenv("DATABASE_URL")
	case store.DriverSQLite:
		cfg.Store.DSN = xdg.AccountsDB()
	}
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	switch cfg.Store.Driver {
	case store.DriverPostgres, store.DriverSQLite, store.DriverMemory:
	default:
		return oops.Code("CONFIG_INVALID").With("store", cfg.Store.Driver).
			Errorf("store must be postgres, sqlite or memory, got %q", cfg.Store.Driver)
	}
	if cfg.Store.Driver == store.DriverPostgres && cfg.Store.DSN == "" {
		return oops.Code("CONFIG_INVALID").Errorf("postgres store needs --dsn or DATABASE_URL")
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").With("log_format", cfg.Log.Format).
			Errorf("log format must be 'json' or 'text', got %q", cfg.Log.Format)
	}
	if cfg.Telnet.ReadLimit <= 0 {
		return oops.Code("CONFIG_INVALID").With("read_limit", cfg.Telnet.ReadLimit).
			Errorf("read limit must be positive")
	}
	if cfg.Telnet.AcceptRate < 0 {
		return oops.Code("CONFIG_INVALID").With("accept_rate", cfg.Telnet.AcceptRate).
			Errorf("accept rate must not be negative")
	}
	return nil
}

// storeConfig returns the account store settings, creating the SQLite
// directory if needed.
func (cfg *Config) storeConfig() (store.AccountStoreConfig, error) {
	if cfg.Store.Driver == store.DriverSQLite {
		if err := xdg.EnsureDir(filepath.Dir(cfg.Store.DSN)); err != nil {
			return store.AccountStoreConfig{}, err
		}
	}
	return store.AccountStoreConfig{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN}, nil
}
