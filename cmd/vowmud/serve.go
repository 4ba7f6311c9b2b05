// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/vowmud/vowmud/internal/auth"
	"github.com/vowmud/vowmud/internal/authflow"
	"github.com/vowmud/vowmud/internal/logging"
	"github.com/vowmud/vowmud/internal/observability"
	"github.com/vowmud/vowmud/internal/session"
	"github.com/vowmud/vowmud/internal/store"
	"github.com/vowmud/vowmud/internal/telnet"
	"github.com/vowmud/vowmud/internal/text"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the telnet server",
		Long: `Start the telnet server. Each connection goes through login or
account creation before it reaches the game.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := setupLogging(cmd, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}
}

func setupLogging(cmd *cobra.Command, cfg *Config) (*slog.Logger, error) {
	return logging.SetDefault(logging.Options{
		Service: "vowmud",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
}

// app is a fully wired server.
type app struct {
	logger   *slog.Logger
	accounts store.AccountStore
	registry *session.Registry
	telnet   *telnet.Server
	obs      *observability.Server
}

func newApp(ctx context.Context, cfg *Config, logger *slog.Logger) (*app, error) {
	storeCfg, err := cfg.storeConfig()
	if err != nil {
		return nil, err
	}
	accounts, err := store.OpenAccountStore(ctx, storeCfg)
	if err != nil {
		return nil, oops.With("driver", cfg.Store.Driver).Wrap(err)
	}
	logger.Info("account store opened", "driver", cfg.Store.Driver)

	renderer, err := text.New(cfg.Text.Plain)
	if err != nil {
		_ = accounts.Close() //nolint:errcheck // setup error takes precedence
		return nil, err
	}

	registry := session.NewRegistryWithLogger(logger)
	flow, err := authflow.New(accounts, auth.NewArgon2idHasher(), registry, renderer,
		authflow.WithLogger(logger),
		authflow.WithReadLimit(cfg.Telnet.ReadLimit),
	)
	if err != nil {
		_ = accounts.Close() //nolint:errcheck // setup error takes precedence
		return nil, err
	}

	a := &app{
		logger:   logger,
		accounts: accounts,
		registry: registry,
	}
	a.telnet = telnet.NewServer(telnet.Config{
		Addr:        cfg.Telnet.Addr,
		ReadLimit:   cfg.Telnet.ReadLimit,
		IdleTimeout: cfg.Telnet.IdleTimeout,
		AcceptRate:  cfg.Telnet.AcceptRate,
		AcceptBurst: cfg.Telnet.AcceptBurst,
	}, flow, registry, renderer, telnet.WithLogger(logger))

	if cfg.Metrics.Addr != "" {
		a.obs = observability.NewServer(cfg.Metrics.Addr, a.ready,
			observability.WithMetrics(authflow.RegisterMetrics, telnet.RegisterMetrics),
			observability.WithSessions(registry),
		)
	}
	return a, nil
}

// ready reports whether the telnet listener is accepting connections.
func (a *app) ready() bool {
	return a.telnet.Addr() != ""
}

// Run serves until ctx is cancelled.
func (a *app) Run(ctx context.Context) error {
	if a.obs != nil {
		if _, err := a.obs.Start(); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := a.obs.Stop(stopCtx); err != nil {
				a.logger.Warn("observability server shutdown failed", "error", err)
			}
		}()
	}

	err := a.telnet.Run(ctx)
	a.logger.Info("telnet server stopped")
	return err
}

// Close releases the account store.
func (a *app) Close() {
	if err := a.accounts.Close(); err != nil {
		a.logger.Warn("closing account store failed", "error", err)
	}
}
