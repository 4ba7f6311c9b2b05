// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VoWmud Contributors

package telnet

import "github.com/prometheus/client_golang/prometheus"

// ConnectionsTotal counts accepted telnet connections.
// Use RegisterMetrics to register this with a Prometheus registry.
var ConnectionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "vowmud_connections_total",
		Help: "Total number of accepted telnet connections",
	},
)

// ConnectionsActive is the number of open telnet connections.
// Use RegisterMetrics to register this with a Prometheus registry.
var ConnectionsActive = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "vowmud_connections_active",
		Help: "Number of open telnet connections",
	},
)

// RegisterMetrics registers telnet metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ConnectionsTotal)
	reg.MustRegister(ConnectionsActive)
}
