// config.go: configuration for the flow session tracker.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Config holds the tunable parameters of a Tracker.
type Config struct {
	// StartingRows is the initial table capacity, rounded up to the
	// nearest prime on the ladder. Default: the midpoint of the ladder.
	StartingRows uint64

	// MinRows and MaxRows clamp the refresh worker's resizing decisions
	// to a sub-range of the prime ladder. Defaults: the ladder's ends.
	MinRows, MaxRows uint64

	// Timeout is how long the drain window lasts once a refresh cycle
	// begins — the bound on "stale" entries in the old active table that
	// were not touched during the window. Default: DefaultTimeout.
	Timeout time.Duration

	// RefreshPeriod is the interval between refresh cycles. Validate
	// replaces zero with DefaultRefreshPeriod, so a zero value does not
	// disable the background worker: a tracker built by New always runs
	// it. NewStatic builds a tracker with no worker regardless of this
	// field; such a tracker never resizes or expires anything and behaves
	// as a plain single table.
	RefreshPeriod time.Duration

	// HashFullPct is the load-factor ceiling, as a percentage of
	// capacity, above which Insert returns Full. Default:
	// DefaultHashFullPct.
	HashFullPct float64

	// ScaleUpPct and ScaleDownPct are the load-factor percentages that
	// drive the refresh worker's resizing decision. Defaults:
	// DefaultScaleUpPct / DefaultScaleDownPct.
	ScaleUpPct, ScaleDownPct float64

	// DeferDestructors, if true, makes Clear during a refresh cycle take
	// the evicted payloads out of both tables under the tracker's lock and
	// run their destructors after the lock is released, bounding that
	// critical section for callers with expensive destructors. Default:
	// false (Clear during a refresh cycle runs destructors under the
	// lock). An Insert that overwrites a key during a refresh cycle runs
	// the destructor under the lock either way; in the steady phase table
	// operations, destructors included, run outside the lock.
	DeferDestructors bool

	// Logger receives the refresh worker's phase-transition and
	// degraded-cycle diagnostics. Full insert results are not logged.
	// Default: NoOpLogger.
	Logger Logger

	// TimeProvider supplies the clock the refresh worker uses to decide
	// when a cycle should begin, and the clock operation latencies are
	// measured with. The drain window itself is timed with time.After.
	// Default: a clock backed by go-timecache.
	TimeProvider TimeProvider

	// MetricsCollector receives per-operation observability events.
	// Default: NoOpMetricsCollector.
	MetricsCollector MetricsCollector
}

// Option configures a Config at construction time. See WithLogger,
// WithTimeProvider, and WithMetricsCollector.
type Option func(*Config)

// WithLogger overrides the tracker's logger.
func WithLogger(l Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithTimeProvider overrides the tracker's clock. A fake clock controls
// when the refresh worker begins a cycle; the drain window still runs on
// the wall clock.
func WithTimeProvider(tp TimeProvider) Option {
	return func(c *Config) { c.TimeProvider = tp }
}

// WithMetricsCollector overrides the tracker's metrics sink.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(c *Config) { c.MetricsCollector = mc }
}

// Validate normalizes zero-valued fields to their defaults and reports an
// error for combinations that cannot be repaired by defaulting (for
// example MinRows > MaxRows).
func (c *Config) Validate() error {
	ladderLen := primeTotal()

	if c.StartingRows == 0 {
		c.StartingRows = primeAt(ladderLen / 2)
	}
	if c.MinRows == 0 {
		c.MinRows = primeAt(0)
	}
	if c.MaxRows == 0 {
		c.MaxRows = primeAt(ladderLen - 1)
	}
	if c.MinRows > c.MaxRows {
		return NewErrInvalidConfig("min_rows must be <= max_rows")
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout * time.Second
	}
	if c.RefreshPeriod == 0 {
		c.RefreshPeriod = DefaultRefreshPeriod * time.Second
	}
	if c.RefreshPeriod < 0 {
		return NewErrInvalidConfig("refresh_period must be >= 0")
	}

	if c.HashFullPct <= 0 {
		c.HashFullPct = DefaultHashFullPct
	}
	if c.ScaleUpPct <= 0 {
		c.ScaleUpPct = DefaultScaleUpPct
	}
	if c.ScaleDownPct <= 0 {
		c.ScaleDownPct = DefaultScaleDownPct
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults already applied.
func DefaultConfig() Config {
	ladderLen := primeTotal()
	return Config{
		StartingRows:     primeAt(ladderLen / 2),
		MinRows:          primeAt(0),
		MaxRows:          primeAt(ladderLen - 1),
		Timeout:          DefaultTimeout * time.Second,
		RefreshPeriod:    DefaultRefreshPeriod * time.Second,
		HashFullPct:      DefaultHashFullPct,
		ScaleUpPct:       DefaultScaleUpPct,
		ScaleDownPct:     DefaultScaleDownPct,
		Logger:           NoOpLogger{},
		TimeProvider:     &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}

// systemTimeProvider is the default clock, backed by go-timecache for
// cheap, cached time reads in the refresh worker's poll loop.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
