// flowsession.go: package-level constants for the flow session tracker.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

const (
	// Version of the flowsession library.
	Version = "v0.1.0-dev"

	// DefaultTimeout is the drain window duration, in seconds, used when
	// Config.Timeout is left unset.
	DefaultTimeout = 60

	// DefaultRefreshPeriod is the interval, in seconds, between refresh
	// cycles used when Config.RefreshPeriod is left unset.
	DefaultRefreshPeriod = 120

	// DefaultHashFullPct is the load-factor ceiling, as a percentage of
	// capacity, above which Insert returns Full.
	DefaultHashFullPct = 8.0

	// DefaultScaleUpPct is the load-factor percentage above which the
	// refresh worker steps the prime ladder up.
	DefaultScaleUpPct = DefaultHashFullPct * 0.75

	// DefaultScaleDownPct is the load-factor percentage below which the
	// refresh worker steps the prime ladder down.
	DefaultScaleDownPct = DefaultHashFullPct * 0.1
)
