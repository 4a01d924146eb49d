// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the ranker.
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "aleutian"

const rankerSubsystem = "ranker"

// RankerMetrics holds all Prometheus metrics for the ranker service.
//
// Initialize once at startup via InitMetrics(); repeated calls return
// the same instance.
type RankerMetrics struct {
	// ComparisonsTotal counts comparison submissions by outcome.
	// Labels: status (ok, invalid, unavailable)
	ComparisonsTotal *prometheus.CounterVec

	// RankingsComputeSeconds measures one rankings read for one list,
	// whether it recomputes ratings and statistics or is served from
	// the cache.
	RankingsComputeSeconds prometheus.Histogram

	// ListsResident is set at startup to the number of lists restored
	// into the registry. Lists created afterwards are not counted.
	ListsResident prometheus.Gauge

	// StoreErrorsTotal counts persistence failures by operation.
	// Labels: operation. Only the comparison handler records here, with
	// operation comparison_write; failed task deletes and completed-flag
	// writes are not counted.
	StoreErrorsTotal *prometheus.CounterVec

	// RealtimeClients tracks active WebSocket subscribers.
	RealtimeClients prometheus.Gauge
}

var (
	defaultMetrics *RankerMetrics
	initOnce       sync.Once
)

// InitMetrics initializes and registers the ranker metrics on the
// default Prometheus registry. Safe to call more than once.
func InitMetrics() *RankerMetrics {
	initOnce.Do(func() {
		defaultMetrics = &RankerMetrics{
			ComparisonsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: rankerSubsystem,
					Name:      "comparisons_total",
					Help:      "Total comparison submissions by status",
				},
				[]string{"status"},
			),

			RankingsComputeSeconds: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: metricsNamespace,
					Subsystem: rankerSubsystem,
					Name:      "rankings_compute_seconds",
					Help:      "Time to serve rankings and stats for one list, cache hits included",
					Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
				},
			),

			ListsResident: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: metricsNamespace,
					Subsystem: rankerSubsystem,
					Name:      "lists_resident",
					Help:      "Lists restored into the registry at startup",
				},
			),

			StoreErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: rankerSubsystem,
					Name:      "store_errors_total",
					Help:      "Persistence adapter failures by operation",
				},
				[]string{"operation"},
			),

			RealtimeClients: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: metricsNamespace,
					Subsystem: rankerSubsystem,
					Name:      "realtime_clients",
					Help:      "Active WebSocket subscribers",
				},
			),
		}
	})
	return defaultMetrics
}

// RecordComparison records a comparison submission outcome.
func (m *RankerMetrics) RecordComparison(status string) {
	m.ComparisonsTotal.WithLabelValues(status).Inc()
}

// RecordStoreError records a persistence failure.
func (m *RankerMetrics) RecordStoreError(operation string) {
	m.StoreErrorsTotal.WithLabelValues(operation).Inc()
}
