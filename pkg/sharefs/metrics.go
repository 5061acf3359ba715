// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package sharefs

import (
	"github.com/LeeDigitalWorks/sharefs/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	modeEncoded  = "encoded"
	modeRestored = "restored"
)

var (
	// BytesServed tracks bytes returned by reads, per view mode
	BytesServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharefs",
		Subsystem: "view",
		Name:      "bytes_served_total",
		Help:      "Bytes returned by share and restored file reads",
	}, []string{"mode"})

	// OpenFiles tracks currently open handles, per view mode
	OpenFiles = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sharefs",
		Subsystem: "view",
		Name:      "open_files",
		Help:      "Open share and restored file handles",
	}, []string{"mode"})

	// IntegrityFailures counts restored files rejected by header validation
	IntegrityFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharefs",
		Subsystem: "view",
		Name:      "integrity_failures_total",
		Help:      "Restored reads rejected because share headers disagree",
	}, []string{"reason"})

	// OpenFailures counts restored opens that could not find enough shares
	OpenFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharefs",
		Subsystem: "view",
		Name:      "insufficient_shares_total",
		Help:      "Restored opens that found fewer shares than required",
	})
)

func init() {
	debug.Registry().MustRegister(
		BytesServed,
		OpenFiles,
		IntegrityFailures,
		OpenFailures,
	)
}
