// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for the Cart Store
// =============================================================================

var (
	// mutationsTotal counts cart operations by outcome.
	// Labels: op (add, increment, decrement), result (applied, noop, invalid, closed)
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gomarketplace",
		Subsystem: "cart",
		Name:      "mutations_total",
		Help:      "Total cart mutations by operation and result",
	}, []string{"op", "result"})

	// loadsTotal counts startup loads by how the list was obtained.
	// Labels: result (restored, empty, corrupt, read_error)
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gomarketplace",
		Subsystem: "cart",
		Name:      "loads_total",
		Help:      "Total cart loads from persistent storage by result",
	}, []string{"result"})

	// persistWritesTotal counts writes issued by the single writer.
	// Labels: status (success, error)
	persistWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gomarketplace",
		Subsystem: "cart",
		Name:      "persist_writes_total",
		Help:      "Total cart persistence writes by status",
	}, []string{"status"})

	// persistSupersededTotal counts snapshots dropped because a newer one
	// was queued before they were written.
	persistSupersededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gomarketplace",
		Subsystem: "cart",
		Name:      "persist_superseded_total",
		Help:      "Cart snapshots replaced by a newer snapshot before being written",
	})

	// persistLatency measures the duration of a single KV write.
	persistLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gomarketplace",
		Subsystem: "cart",
		Name:      "persist_latency_seconds",
		Help:      "Cart persistence write latency in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
)

// =============================================================================
// Metrics Recording Functions
// =============================================================================

func recordMutation(op, result string) {
	mutationsTotal.WithLabelValues(op, result).Inc()
}

func recordLoad(result string) {
	loadsTotal.WithLabelValues(result).Inc()
}

func recordPersist(durationSec float64, err error) {
	persistLatency.Observe(durationSec)
	status := "success"
	if err != nil {
		status = "error"
	}
	persistWritesTotal.WithLabelValues(status).Inc()
}

func recordSuperseded() {
	persistSupersededTotal.Inc()
}
