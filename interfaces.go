// interfaces.go: public interfaces for flowsession.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

// Tracker is the public contract of the blue-green flow session engine.
// All methods are safe for concurrent use by many goroutines.
type Tracker interface {
	// Insert binds payload to key. payload must not be nil. In the
	// steady phase the binding lands in the active table; during a
	// refresh cycle it lands in the standby table (see the migration
	// policy in tracker.go).
	Insert(key Key, payload interface{}) (InsertResult, error)

	// Lookup returns the payload currently bound to key, if any. During
	// a refresh cycle a successful lookup may promote the entry from
	// the active table into standby — this is the engine's substitute
	// for a per-entry recency timestamp.
	Lookup(key Key) (interface{}, bool)

	// Clear removes any binding for key, invoking the destructor if one
	// was present. It is idempotent.
	Clear(key Key)

	// Stats returns a point-in-time snapshot of the tracker's counters.
	Stats() Stats

	// Close stops the refresh worker (if running), then runs the
	// destructor over every payload still held by the active and
	// standby tables.
	Close() error
}

// Logger defines a minimal, allocation-conscious logging interface.
// Implementations should be safe to call from the refresh worker and
// from any application goroutine.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger discards every message. It is the default when Config.Logger
// is left nil.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider supplies the current time to the refresh worker. Injecting
// a fake implementation controls when the worker begins a refresh cycle;
// the length of the drain window is timed on the wall clock.
type TimeProvider interface {
	// Now returns the current time, in nanoseconds since the Unix epoch.
	Now() int64
}

// MetricsCollector receives operation-level observability events. All
// methods must be fast, non-blocking, and nil-safe to call concurrently
// from both the refresh worker and application goroutines.
type MetricsCollector interface {
	// RecordInsert is called after every Insert that reaches a table,
	// with its latency and outcome. An Insert with a nil payload or on a
	// closed tracker is not recorded.
	RecordInsert(latencyNs int64, result InsertResult)

	// RecordLookup is called after every Lookup on an open tracker, with
	// its latency and whether it was a hit.
	RecordLookup(latencyNs int64, hit bool)

	// RecordClear is called after every Clear.
	RecordClear(latencyNs int64)

	// RecordRefreshCycle is called once per completed or skipped refresh
	// cycle.
	RecordRefreshCycle(durationNs int64, degraded bool, oldRows, newRows uint64)
}

// NoOpMetricsCollector discards every event. It is the default when
// Config.MetricsCollector is left nil, giving zero overhead when metrics
// are not wired up.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordInsert(latencyNs int64, result InsertResult) {}
func (NoOpMetricsCollector) RecordLookup(latencyNs int64, hit bool)            {}
func (NoOpMetricsCollector) RecordClear(latencyNs int64)                      {}
func (NoOpMetricsCollector) RecordRefreshCycle(durationNs int64, degraded bool, oldRows, newRows uint64) {
}

// Stats is a point-in-time snapshot of a Tracker's counters, sampled
// under its lock. During a refresh cycle the values reflect the active
// table only; they are not monotonic across calls while refreshing,
// since the active table itself is being drained.
type Stats struct {
	Inserted   uint64
	Collisions uint64
	MaxInserts uint64
	NumRows    uint64
	InRefresh  bool
	// Degraded is true if the most recent refresh cycle was skipped
	// because standby table allocation failed. The tracker remains
	// fully functional on its current active table and will retry at
	// the next refresh period.
	Degraded bool
}
