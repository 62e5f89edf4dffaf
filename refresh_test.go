// refresh_test.go: tests for the background refresh worker and the
// degraded-mode allocation-failure path.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunOneCycle_AllocFailureStaysDegradedAndSkipsSwap(t *testing.T) {
	tr := mustStatic(t, Config{StartingRows: 7, HashFullPct: 90}, func(interface{}) {})
	key := Key{SIP: 1, DIP: 2, SPort: 1, DPort: 1}
	tr.Insert(key, "value")

	tr.allocTable = func(numRows, maxInserts uint64) (*table, error) {
		return nil, errors.New("simulated allocation failure")
	}

	tr.runOneCycle(context.Background())

	stats := tr.Stats()
	if !stats.Degraded {
		t.Error("expected Degraded=true after a skipped cycle")
	}
	if stats.InRefresh {
		t.Error("a skipped cycle must never enter the Draining phase")
	}
	if val, found := tr.Lookup(key); !found || val != "value" {
		t.Errorf("tracker must keep serving from its current active table; Lookup = (%v, %v)", val, found)
	}
}

func TestRunOneCycle_RecoversAfterAllocationSucceedsAgain(t *testing.T) {
	tr := mustStatic(t, Config{StartingRows: 7, HashFullPct: 90, Timeout: 5 * time.Millisecond}, func(interface{}) {})
	tr.Insert(Key{SIP: 1, DIP: 2, SPort: 1, DPort: 1}, "value")

	tr.allocTable = func(numRows, maxInserts uint64) (*table, error) {
		return nil, errors.New("simulated allocation failure")
	}
	tr.runOneCycle(context.Background())
	if !tr.Stats().Degraded {
		t.Fatal("expected Degraded=true after the first failed cycle")
	}

	tr.allocTable = func(numRows, maxInserts uint64) (*table, error) {
		return newTable(numRows, maxInserts, tr.destroy), nil
	}
	tr.runOneCycle(context.Background())

	stats := tr.Stats()
	if stats.Degraded {
		t.Error("expected Degraded=false after a successful cycle")
	}
	if stats.InRefresh {
		t.Error("runOneCycle should leave the tracker in the steady phase once it returns")
	}
}

func TestRunOneCycle_ShutdownDuringDrainLeavesStandbyForClose(t *testing.T) {
	tr := mustStatic(t, Config{StartingRows: 7, HashFullPct: 90, Timeout: time.Hour}, func(interface{}) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr.runOneCycle(ctx)

	if !tr.refreshing {
		t.Error("cancellation mid-drain should leave the tracker in Draining, not swap")
	}
	if tr.standby == nil {
		t.Error("standby should remain allocated for Close to destroy")
	}
}

func TestWaitForPeriod_ReturnsFalseOnCancellation(t *testing.T) {
	tr := mustStatic(t, Config{}, func(interface{}) {})
	// NewStatic keeps RefreshPeriod at zero, so set the period directly.
	tr.updateTunables(0, time.Hour, 0, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if tr.waitForPeriod(ctx, tr.clock.Now()) {
		t.Error("waitForPeriod should return false once the context is cancelled")
	}
}

func TestWaitForPeriod_ReturnsTrueOncePeriodElapses(t *testing.T) {
	tr := mustStatic(t, Config{}, func(interface{}) {})
	// NewStatic keeps RefreshPeriod at zero, so set the period directly.
	tr.updateTunables(0, 10*time.Millisecond, 0, 0, 0)

	last := tr.clock.Now() - (20 * time.Millisecond).Nanoseconds()
	done := make(chan bool, 1)
	go func() { done <- tr.waitForPeriod(context.Background(), last) }()

	select {
	case ok := <-done:
		if !ok {
			t.Error("waitForPeriod should return true once the period has already elapsed")
		}
	case <-time.After(time.Second):
		t.Fatal("waitForPeriod did not return promptly for an already-elapsed period")
	}
}

func TestSnapshotTunables_ReflectsLiveUpdates(t *testing.T) {
	tr := mustStatic(t, DefaultConfig(), func(interface{}) {})

	tr.updateTunables(30*time.Second, 45*time.Second, 9.0, 7.0, 1.0)

	snap := tr.snapshotTunables()
	if snap.timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", snap.timeout)
	}
	if snap.refreshPeriod != 45*time.Second {
		t.Errorf("refreshPeriod = %v, want 45s", snap.refreshPeriod)
	}
	if snap.hashFullPct != 9.0 {
		t.Errorf("hashFullPct = %v, want 9.0", snap.hashFullPct)
	}
}

func TestRunRefreshWorker_EndToEndWithRealWorker(t *testing.T) {
	// Timeout is kept close to RefreshPeriod so the drain window covers a
	// large share of each cycle, and the test polls well inside that
	// window (10ms against a 45ms drain), so every cycle sees lookups that
	// promote the entry forward before the swap.
	cfg := Config{
		StartingRows:  7,
		HashFullPct:   90,
		RefreshPeriod: 50 * time.Millisecond,
		Timeout:       45 * time.Millisecond,
	}
	tr, err := New(cfg, func(interface{}) {})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = tr.Close() }()

	key := Key{SIP: 1, DIP: 2, SPort: 1, DPort: 1}
	if _, err := tr.Insert(key, "value"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	// Poll across several refresh cycles; each Lookup during a drain window
	// promotes the entry forward, so it should remain reachable throughout
	// even though the worker is resizing and swapping tables underneath it.
	deadline := time.Now().Add(1 * time.Second)
	checks := 0
	for time.Now().Before(deadline) && checks < 80 {
		val, found := tr.Lookup(key)
		if !found || val != "value" {
			t.Fatalf("entry dropped across a refresh cycle driven by the real worker (check #%d)", checks)
		}
		checks++
		time.Sleep(10 * time.Millisecond)
	}
}
