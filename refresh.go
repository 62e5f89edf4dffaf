// refresh.go: the background worker that drives Steady -> Draining ->
// Steady.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

import (
	"context"
	"time"
)

// pollStep is how often the worker wakes to check whether a cycle should
// begin or whether it has been asked to stop. It mirrors the ~50ms poll
// granularity of the reference implementation's sleep loop.
const pollStep = 50 * time.Millisecond

// runRefreshWorker is the worker's main loop. It holds no tracker state of
// its own; every phase transition goes through beginRefresh/finishRefresh
// so the mutex-protected invariants in tracker.go stay the single source
// of truth.
func (t *tracker) runRefreshWorker(ctx context.Context) {
	defer t.wg.Done()

	last := t.clock.Now()

	for {
		if !t.waitForPeriod(ctx, last) {
			return
		}

		cycleStart := t.clock.Now()
		t.runOneCycle(ctx)
		last = cycleStart

		if ctx.Err() != nil {
			return
		}
	}
}

// refreshTunables is a lock-guarded snapshot of the configuration fields
// the worker consults every cycle. HotConfig (hot-reload.go) can mutate
// these concurrently via updateTunables, so the worker never reads
// t.config directly outside the lock.
type refreshTunables struct {
	refreshPeriod            time.Duration
	timeout                  time.Duration
	hashFullPct              float64
	scaleUpPct, scaleDownPct float64
	minRows, maxRows         uint64
}

func (t *tracker) snapshotTunables() refreshTunables {
	t.mu.Lock()
	defer t.mu.Unlock()
	return refreshTunables{
		refreshPeriod: t.config.RefreshPeriod,
		timeout:       t.config.Timeout,
		hashFullPct:   t.config.HashFullPct,
		scaleUpPct:    t.config.ScaleUpPct,
		scaleDownPct:  t.config.ScaleDownPct,
		minRows:       t.config.MinRows,
		maxRows:       t.config.MaxRows,
	}
}

// waitForPeriod sleeps in pollStep increments until the configured
// RefreshPeriod has elapsed since last, or ctx is cancelled. Returns
// false if the worker should exit.
func (t *tracker) waitForPeriod(ctx context.Context, last int64) bool {
	ticker := time.NewTicker(pollStep)
	defer ticker.Stop()

	for {
		period := t.snapshotTunables().refreshPeriod.Nanoseconds()
		if t.clock.Now()-last >= period {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// runOneCycle performs one Steady -> Draining -> Steady transition. If
// standby allocation fails it logs, marks the tracker degraded, and
// returns without entering the Draining phase — the cycle is simply
// skipped and retried at the next period, per the resolved "allocation
// failure policy" open question.
func (t *tracker) runOneCycle(ctx context.Context) {
	started := t.clock.Now()
	tunables := t.snapshotTunables()

	t.mu.Lock()
	oldRows := t.active.numRows
	oldInserted := t.active.inserted
	t.mu.Unlock()

	newRows := t.nextCapacity(oldRows, oldInserted, tunables)
	maxInserts := uint64(float64(newRows) * tunables.hashFullPct / 100.0)

	if err := t.beginRefresh(newRows, maxInserts); err != nil {
		t.logger.Error("flowsession: refresh cycle skipped", "error", err, "rows", newRows)
		t.metrics.RecordRefreshCycle(t.clock.Now()-started, true, oldRows, oldRows)
		return
	}
	t.logger.Info("flowsession: draining begun", "old_rows", oldRows, "new_rows", newRows)

	select {
	case <-ctx.Done():
		// Shutdown during the drain window: leave standby in place for
		// Close to destroy alongside active. No swap happens.
		return
	case <-time.After(tunables.timeout):
	}

	t.finishRefresh()
	t.logger.Info("flowsession: draining complete", "rows", newRows)
	t.metrics.RecordRefreshCycle(t.clock.Now()-started, false, oldRows, newRows)
}

// nextCapacity implements the resize decision from §4.D: step the ladder
// up if the active table is over ScaleUpPct loaded, down if it is under
// ScaleDownPct loaded, clamped to [MinRows, MaxRows]. Only the worker
// goroutine ever calls this, so t.ladderIdx needs no synchronization.
func (t *tracker) nextCapacity(rows, inserted uint64, tunables refreshTunables) uint64 {
	upThreshold := float64(rows) * tunables.scaleUpPct / 100.0
	downThreshold := float64(rows) * tunables.scaleDownPct / 100.0

	if float64(inserted) > upThreshold {
		next := primeLargerIdx(t.ladderIdx)
		if next > tunables.maxRows {
			return tunables.maxRows
		}
		t.ladderIdx++
		return next
	}

	if float64(inserted) < downThreshold {
		next := primeSmallerIdx(t.ladderIdx)
		if next < tunables.minRows {
			return tunables.minRows
		}
		if t.ladderIdx > 0 {
			t.ladderIdx--
		}
		return next
	}

	return rows
}
