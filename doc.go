// Package flowsession provides a concurrent, bidirectional flow session
// tracker for network flow keys (source/destination address, source/
// destination port, VLAN), built around a blue-green table engine that
// bounds entry staleness without per-entry timestamps and without a
// stop-the-world compaction pass.
//
// # Overview
//
// A Tracker holds flow state keyed by a 5-tuple. Lookups match either
// direction of a flow (A->B and B->A resolve to the same entry), so
// callers never need to normalize endpoint order themselves.
//
// Internally the tracker owns two open-addressed hash tables: active and
// standby. In steady state only active is in use; Insert, Lookup, and
// Clear probe it directly, with the tracker's mutex held just long
// enough to read a phase flag and a table pointer. A background worker
// periodically begins a refresh cycle: it allocates a new, appropriately
// sized standby table and enters a Draining phase for Config.Timeout. New
// inserts land in standby; lookups check both tables, and a hit against
// the older table is promoted into the newer one. Any entry still only
// in the old table when the drain window closes is considered stale and
// is dropped when the tables swap — this is the tracker's mechanism for
// bounding staleness and for resizing, without scanning for expired
// entries or holding a lock across the whole table.
//
// # Quick Start
//
//	import "github.com/agilira/flowsession"
//
//	tr, err := flowsession.New(flowsession.DefaultConfig(), func(payload interface{}) {
//	    // runs once per evicted/overwritten/cleared entry
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tr.Close()
//
//	key := flowsession.Key{SIP: sip, DIP: dip, SPort: 443, DPort: 51000, VLAN: 0}
//	result, err := tr.Insert(key, &flowState{Packets: 1})
//	if payload, found := tr.Lookup(key.Reverse()); found {
//	    fmt.Println(payload)
//	}
//
// # Blue-Green Refresh
//
// The refresh worker's cadence and the resize thresholds are tunable via
// Config:
//
//	cfg := flowsession.DefaultConfig()
//	cfg.RefreshPeriod = 2 * time.Minute // how often a cycle begins
//	cfg.Timeout = 30 * time.Second      // how long the drain window lasts
//	cfg.HashFullPct = 8.0               // Insert returns Full above this load
//	cfg.ScaleUpPct = 6.0                // grow if active exceeds this load
//	cfg.ScaleDownPct = 0.8              // shrink if active falls below this load
//
// Setting RefreshPeriod to 0 (via NewStatic) disables the worker
// entirely: the tracker behaves as a single fixed-size table with no
// staleness bound and no resizing.
//
// # Degraded Mode
//
// If a refresh cycle cannot allocate its standby table, the cycle is
// skipped rather than the tracker aborting: Stats().Degraded reports
// true until the next cycle succeeds, and the tracker keeps serving
// from its current active table throughout.
//
// # Hot Reload
//
// Config.Timeout, RefreshPeriod, and the three load-factor percentages
// can be changed on a running Tracker without rebuilding it, using
// HotConfig, which watches a config file via
// github.com/agilira/argus:
//
//	hc, err := flowsession.NewHotConfig(tr, flowsession.HotConfigOptions{
//	    ConfigPath: "/etc/flowsession/tuning.yaml",
//	})
//
// StartingRows, MinRows, and MaxRows are structural — they size an
// already-allocated table — and are fixed for the tracker's lifetime.
//
// # Observability
//
// MetricsCollector receives per-operation latency and outcome events.
// The core package has no metrics-backend dependency; an OpenTelemetry
// implementation lives in the separate otelmetrics module:
//
//	import otelmetrics "github.com/agilira/flowsession/otelmetrics"
//
//	collector, _ := otelmetrics.NewCollector(meterProvider)
//	cfg := flowsession.DefaultConfig()
//	cfg.MetricsCollector = collector
//
// # Error Handling
//
// flowsession uses structured errors with stable error codes:
//
//	_, err := tr.Insert(key, nil)
//	if flowsession.GetErrorCode(err) == flowsession.ErrCodeNilPayload {
//	    // ...
//	}
//
// IsRetryable reports whether an error (such as a skipped refresh cycle)
// resolves itself without caller intervention.
//
// # Thread Safety
//
// All Tracker methods are safe for concurrent use by many goroutines.
// The critical section held by the tracker's mutex is bounded: a
// pointer read and a flag check in the steady phase, the full migration
// logic only during the Draining phase.
package flowsession
