// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package ec

import (
	"github.com/LeeDigitalWorks/sharefs/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ExportsTotal counts exports that met their write quorum
	ExportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharefs",
		Subsystem: "ec",
		Name:      "exports_total",
		Help:      "Exports that stored at least the write quorum of shares",
	})

	// ExportedBytes counts share bytes handed to target backends
	ExportedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharefs",
		Subsystem: "ec",
		Name:      "exported_bytes_total",
		Help:      "Share bytes written by exports",
	})

	// RestoredBytes counts original bytes written by restores
	RestoredBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharefs",
		Subsystem: "ec",
		Name:      "restored_bytes_total",
		Help:      "Original bytes reassembled by restores",
	})

	// ShareWriteFailures counts individual shares an export failed to store
	ShareWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharefs",
		Subsystem: "ec",
		Name:      "share_write_failures_total",
		Help:      "Shares that could not be written during an export",
	})

	// ExportDuration tracks wall time per export
	ExportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharefs",
		Subsystem: "ec",
		Name:      "export_duration_seconds",
		Help:      "Time to produce and store all shares of one original",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	})
)

func init() {
	debug.Registry().MustRegister(
		ExportsTotal,
		ExportedBytes,
		RestoredBytes,
		ShareWriteFailures,
		ExportDuration,
	)
}
