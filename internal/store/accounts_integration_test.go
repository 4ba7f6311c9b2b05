// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

//go:build integration

package store_test

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/vowmud/vowmud/internal/auth"
	authpg "github.com/vowmud/vowmud/internal/auth/postgres"
	"github.com/vowmud/vowmud/internal/store"
)

var _ = Describe("Accounts on PostgreSQL", Ordered, func() {
	var (
		ctx      context.Context
		migrator *store.Migrator
		pool     *pgxpool.Pool
		repo     *authpg.AccountRepository
	)

	BeforeAll(func() {
		ctx = context.Background()

		var err error
		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		pending, err := migrator.PendingMigrations()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(Equal([]uint{1}))

		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Up()).To(Succeed(), "second Up is a no-op")

		pool, err = store.OpenPool(ctx, store.PoolConfig{DSN: connStr, BaseBackoff: 50 * time.Millisecond})
		Expect(err).NotTo(HaveOccurred())
		repo = authpg.NewAccountRepository(pool)
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if migrator != nil {
			Expect(migrator.Down()).To(Succeed())
			version, _, err := migrator.Version()
			Expect(err).NotTo(HaveOccurred())
			Expect(version).To(BeZero())
			Expect(migrator.Close()).To(Succeed())
		}
	})

	It("reports an unknown account as not found", func() {
		_, err := repo.FindByAccountName(ctx, "nobody")
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
	})

	It("stores and finds an account by exact name", func() {
		created, err := repo.Insert(ctx, "testuser1", "realhash", "pwhash")
		Expect(err).NotTo(HaveOccurred())

		found, err := repo.FindByAccountName(ctx, "testuser1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.ID).To(Equal(created.ID))
		Expect(found.PasswordHash).To(Equal("pwhash"))
		Expect(found.RealNameHash).To(Equal("realhash"))

		_, err = repo.FindByAccountName(ctx, "TESTUSER1")
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
	})

	It("rejects a second account with the same name", func() {
		_, err := repo.Insert(ctx, "testuser2", "r", "p")
		Expect(err).NotTo(HaveOccurred())

		_, err = repo.Insert(ctx, "testuser2", "r2", "p2")
		Expect(errors.Is(err, auth.ErrDuplicateAccount)).To(BeTrue())
	})
})
