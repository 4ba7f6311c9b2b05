// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package authflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for authentication runs.
const (
	OutcomeAuthorized = "authorized"
	OutcomeError      = "error"
	OutcomeAborted    = "aborted"
)

// Reason labels for failed logins.
const (
	ReasonUnknownAccount = "unknown_account"
	ReasonWrongPassword  = "wrong_password"
	ReasonAlreadyOnline  = "already_online"
	ReasonMaxAttempts    = "max_attempts"
)

// AuthOutcomes counts finished authentication runs by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vowmud_auth_outcomes_total",
		Help: "Total number of authentication runs by outcome",
	},
	[]string{"outcome"},
)

// AuthDuration is the histogram of authentication run duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "vowmud_auth_duration_seconds",
		Help:    "Time from connect to the end of authentication in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	},
	[]string{"outcome"},
)

// LoginFailures counts rejected login attempts by reason.
// Use RegisterMetrics to register this with a Prometheus registry.
var LoginFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vowmud_login_failures_total",
		Help: "Total number of rejected login attempts",
	},
	[]string{"reason"},
)

// AccountsCreated counts accounts created through registration.
// Use RegisterMetrics to register this with a Prometheus registry.
var AccountsCreated = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "vowmud_accounts_created_total",
		Help: "Total number of accounts created",
	},
)

// RegisterMetrics registers authflow metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthOutcomes)
	reg.MustRegister(AuthDuration)
	reg.MustRegister(LoginFailures)
	reg.MustRegister(AccountsCreated)
}

// RecordOutcome records a finished authentication run.
func RecordOutcome(outcome string, d time.Duration) {
	AuthOutcomes.WithLabelValues(outcome).Inc()
	AuthDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordLoginFailure increments the login failure counter (use Reason* constants).
func RecordLoginFailure(reason string) {
	LoginFailures.WithLabelValues(reason).Inc()
}

// RecordAccountCreated increments the account creation counter.
func RecordAccountCreated() {
	AccountsCreated.Inc()
}
