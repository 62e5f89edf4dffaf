// tracker.go: the blue-green controller.
//
// tracker owns an active table and, during a refresh cycle, a standby
// table. A single mutex serializes phase transitions; it is never held
// across a table probe in the steady phase, only long enough to read the
// refreshing flag and obtain the table pointer(s) needed for the
// operation that follows.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

import (
	"context"
	"sync"
	"time"
)

// tracker implements Tracker.
type tracker struct {
	config  Config
	destroy func(interface{})

	mu         sync.Mutex
	active     *table
	standby    *table
	running    bool
	refreshing bool
	degraded   bool
	closed     bool

	ladderIdx int

	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger  Logger
	clock   TimeProvider
	metrics MetricsCollector

	// allocTable builds a new table of the given size. It is a field
	// rather than a direct newTable call so tests can inject allocation
	// failures and exercise the degraded-cycle path (see refresh.go and
	// the §9 "allocation failure policy" open question).
	allocTable func(numRows, maxInserts uint64) (*table, error)
}

// New creates a flow session tracker and starts its background refresh
// worker. destroy is invoked exactly once per payload, on overwrite,
// explicit Clear, eviction at refresh completion, or teardown; it must not
// re-enter the tracker. config.RefreshPeriod defaults to
// DefaultRefreshPeriod when zero and is rejected by Validate when
// negative — New always runs a worker. Use NewStatic to build a tracker
// with no background worker at all.
func New(config Config, destroy func(interface{}), opts ...Option) (Tracker, error) {
	if destroy == nil {
		return nil, NewErrNilDestructor()
	}
	for _, opt := range opts {
		opt(&config)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ladderIdx := primeNearestIdx(config.StartingRows)
	startRows := primeAt(ladderIdx)
	maxInserts := uint64(float64(startRows) * config.HashFullPct / 100.0)

	t := &tracker{
		config:    config,
		destroy:   destroy,
		active:    newTable(startRows, maxInserts, destroy),
		ladderIdx: ladderIdx,
		logger:    config.Logger,
		clock:     config.TimeProvider,
		metrics:   config.MetricsCollector,
	}
	t.allocTable = func(numRows, maxInserts uint64) (*table, error) {
		return newTable(numRows, maxInserts, t.destroy), nil
	}

	if config.RefreshPeriod > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		t.cancel = cancel
		t.running = true
		t.wg.Add(1)
		go t.runRefreshWorker(ctx)
	}

	return t, nil
}

// NewStatic creates a tracker with no background refresh worker,
// regardless of config.RefreshPeriod. Useful for callers who want the
// table engine's insert/lookup/clear semantics without bounded-staleness
// eviction — equivalent to the distilled spec's "refresh_period=0
// disables the worker" case, made explicit so a caller cannot trip over
// Validate's RefreshPeriod default.
func NewStatic(config Config, destroy func(interface{}), opts ...Option) (Tracker, error) {
	config.RefreshPeriod = 0
	if destroy == nil {
		return nil, NewErrNilDestructor()
	}
	for _, opt := range opts {
		opt(&config)
	}
	saved := config.RefreshPeriod
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.RefreshPeriod = saved

	ladderIdx := primeNearestIdx(config.StartingRows)
	startRows := primeAt(ladderIdx)
	maxInserts := uint64(float64(startRows) * config.HashFullPct / 100.0)

	t := &tracker{
		config:    config,
		destroy:   destroy,
		active:    newTable(startRows, maxInserts, destroy),
		ladderIdx: ladderIdx,
		logger:    config.Logger,
		clock:     config.TimeProvider,
		metrics:   config.MetricsCollector,
	}
	t.allocTable = func(numRows, maxInserts uint64) (*table, error) {
		return newTable(numRows, maxInserts, t.destroy), nil
	}
	return t, nil
}

// phaseTables returns, under the lock, whether a refresh is in progress
// and the table pointer(s) the caller should operate on. The lock is
// held only for the duration of this read — the table operation that
// follows runs outside it, except during Draining, where the whole
// operation is serialized because migration mutates both tables (see
// Insert/Lookup/Clear below).
func (t *tracker) phaseTables() (refreshing bool, active, standby *table) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refreshing, t.active, t.standby
}

// Insert implements Tracker.
func (t *tracker) Insert(key Key, payload interface{}) (InsertResult, error) {
	if payload == nil {
		return Invalid, NewErrNilPayload()
	}
	started := t.clock.Now()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return Invalid, NewErrClosed("Insert")
	}
	if t.refreshing {
		// Migration policy: new inserts always go to standby; the
		// active table only ever shrinks during a drain window.
		result := t.standby.insert(key, payload)
		t.mu.Unlock()
		t.metrics.RecordInsert(t.clock.Now()-started, result)
		if result == Invalid {
			return result, NewErrProbeExhausted()
		}
		return result, nil
	}
	active := t.active
	t.mu.Unlock()

	result := active.insert(key, payload)
	t.metrics.RecordInsert(t.clock.Now()-started, result)
	if result == Invalid {
		// payload is non-nil here, so Invalid can only mean probe exhaustion.
		return result, NewErrProbeExhausted()
	}
	return result, nil
}

// Lookup implements Tracker.
func (t *tracker) Lookup(key Key) (interface{}, bool) {
	started := t.clock.Now()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, false
	}
	if t.refreshing {
		var payload interface{}
		var found bool
		if t.active.inserted > t.standby.inserted {
			payload, found = t.lookupPreferActive(t.active, t.standby, key)
		} else {
			payload, found = t.lookupPreferStandby(t.active, t.standby, key)
		}
		t.mu.Unlock()
		t.metrics.RecordLookup(t.clock.Now()-started, found)
		return payload, found
	}
	active := t.active
	t.mu.Unlock()

	payload, found := active.lookup(key)
	t.metrics.RecordLookup(t.clock.Now()-started, found)
	return payload, found
}

// lookupPreferActive implements the "active has more entries" migration
// strategy from the distilled spec's §4.C: probe active first; a hit is
// atomically promoted into standby (recency is now encoded by residence
// in the newer table). Must be called with the tracker lock held.
func (t *tracker) lookupPreferActive(active, standby *table, key Key) (interface{}, bool) {
	if payload, found := active.lookup(key); found {
		t.promote(active, standby, key)
		return payload, true
	}
	return standby.lookup(key)
}

// lookupPreferStandby implements the "standby has more entries" strategy:
// probe standby first, falling back to active (with promotion on hit).
// Must be called with the tracker lock held.
func (t *tracker) lookupPreferStandby(active, standby *table, key Key) (interface{}, bool) {
	if payload, found := standby.lookup(key); found {
		return payload, true
	}
	if payload, found := active.lookup(key); found {
		t.promote(active, standby, key)
		return payload, true
	}
	return nil, false
}

// promote moves a live entry from active into standby without invoking
// the destructor — this is an ownership transfer, not an eviction.
func (t *tracker) promote(active, standby *table, key Key) {
	payload, ok := active.take(key)
	if !ok {
		return
	}
	if standby.insert(key, payload) == Full {
		// No room in standby: put the entry back into active (which just
		// freed its slot) instead of losing the payload.
		active.insert(key, payload)
	}
}

// Clear implements Tracker.
func (t *tracker) Clear(key Key) {
	started := t.clock.Now()
	defer func() { t.metrics.RecordClear(t.clock.Now() - started) }()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if t.refreshing {
		active, standby := t.active, t.standby
		if t.config.DeferDestructors {
			// Stash the evicted payloads and run their destructors after
			// the lock is released, bounding this critical section.
			aPayload, aOK := active.take(key)
			sPayload, sOK := standby.take(key)
			t.mu.Unlock()
			if aOK {
				t.destroy(aPayload)
			}
			if sOK {
				t.destroy(sPayload)
			}
			return
		}
		active.delete(key)
		standby.delete(key)
		t.mu.Unlock()
		return
	}
	active := t.active
	t.mu.Unlock()

	active.delete(key)
}

// Stats implements Tracker.
func (t *tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Inserted:   t.active.inserted,
		Collisions: t.active.collisions,
		MaxInserts: t.active.maxInserts,
		NumRows:    t.active.numRows,
		InRefresh:  t.refreshing,
		Degraded:   t.degraded,
	}
}

// Close implements Tracker.
func (t *tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	running := t.running
	cancel := t.cancel
	t.mu.Unlock()

	if running && cancel != nil {
		cancel()
		t.wg.Wait()
	}

	t.mu.Lock()
	active, standby := t.active, t.standby
	t.standby = nil
	t.mu.Unlock()

	active.destroyAll()
	if standby != nil {
		standby.destroyAll()
	}
	return nil
}

// beginRefresh allocates a standby table sized per the scale decision and
// flips refreshing to true. Called only by the refresh worker. Returns
// an ErrCodeAllocFailed error if allocation failed, in which case the
// tracker is marked degraded and the cycle must be skipped
// (degraded mode, §4.C) rather than aborting the process.
func (t *tracker) beginRefresh(numRows, maxInserts uint64) error {
	standby, err := t.allocTable(numRows, maxInserts)
	if err != nil || standby == nil {
		t.mu.Lock()
		t.degraded = true
		t.mu.Unlock()
		return NewErrAllocFailed(numRows, err)
	}

	t.mu.Lock()
	t.standby = standby
	t.refreshing = true
	t.degraded = false
	t.mu.Unlock()
	return nil
}

// updateTunables applies live configuration changes picked up by
// HotConfig (hot-reload.go). Only non-structural fields are accepted here:
// Timeout, RefreshPeriod, and the load-factor thresholds take effect on
// the refresh worker's next tick. StartingRows/MinRows/MaxRows are
// structural (they size an already-allocated table) and are not
// accepted through this path.
func (t *tracker) updateTunables(timeout, refreshPeriod time.Duration, hashFullPct, scaleUpPct, scaleDownPct float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timeout > 0 {
		t.config.Timeout = timeout
	}
	if refreshPeriod > 0 {
		t.config.RefreshPeriod = refreshPeriod
	}
	if hashFullPct > 0 {
		t.config.HashFullPct = hashFullPct
	}
	if scaleUpPct > 0 {
		t.config.ScaleUpPct = scaleUpPct
	}
	if scaleDownPct > 0 {
		t.config.ScaleDownPct = scaleDownPct
	}
}

// finishRefresh swaps standby into active and retires the old active
// table. Called only by the refresh worker, after the drain window has
// elapsed. The retired table's destructor runs outside the lock for
// every payload that was not promoted during the window.
func (t *tracker) finishRefresh() {
	t.mu.Lock()
	old := t.active
	t.active = t.standby
	t.standby = nil
	t.refreshing = false
	t.mu.Unlock()

	old.destroyAll()
}
