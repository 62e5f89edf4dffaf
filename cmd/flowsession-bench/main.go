// Command flowsession-bench drives a flowsession.Tracker with synthetic
// flow keys at a configurable rate and prints periodic Stats snapshots.
// It exists to make the blue-green refresh cycle, load-factor scaling,
// and degraded-mode recovery observable from outside a test binary.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	flashflags "github.com/agilira/flash-flags"

	"github.com/agilira/flowsession"
)

func main() {
	fs := flashflags.New("flowsession-bench")
	startingRows := fs.Int("rows", 10007, "starting table capacity (rounded to the nearest prime)")
	minRows := fs.Int("min-rows", 1009, "lower bound of the resize ladder")
	maxRows := fs.Int("max-rows", 1000003, "upper bound of the resize ladder")
	refreshPeriod := fs.Duration("refresh-period", 5*time.Second, "interval between blue-green refresh cycles")
	drainTimeout := fs.Duration("drain-timeout", 500*time.Millisecond, "how long a refresh cycle stays in the draining phase")
	hashFullPct := fs.Float64("hash-full-pct", flowsession.DefaultHashFullPct, "load percentage considered full")
	flowRate := fs.Int("flows-per-sec", 2000, "synthetic flow insertions per second")
	duration := fs.Duration("duration", 30*time.Second, "total run time")
	reportEvery := fs.Duration("report-every", time.Second, "interval between Stats snapshots")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "flowsession-bench:", err)
		os.Exit(1)
	}

	cfg := flowsession.Config{
		StartingRows:  uint64(*startingRows),
		MinRows:       uint64(*minRows),
		MaxRows:       uint64(*maxRows),
		RefreshPeriod: *refreshPeriod,
		Timeout:       *drainTimeout,
		HashFullPct:   *hashFullPct,
	}

	tracker, err := flowsession.New(cfg, func(interface{}) {}, flowsession.WithLogger(consoleLogger{}))
	if err != nil {
		fmt.Fprintln(os.Stderr, "flowsession-bench: failed to start tracker:", err)
		os.Exit(1)
	}
	defer tracker.Close()

	stop := time.After(*duration)
	report := time.NewTicker(*reportEvery)
	defer report.Stop()

	insertInterval := time.Second / time.Duration(*flowRate)
	if insertInterval <= 0 {
		insertInterval = time.Microsecond
	}
	insert := time.NewTicker(insertInterval)
	defer insert.Stop()

	rng := rand.New(rand.NewSource(1))
	var total uint64

	for {
		select {
		case <-stop:
			printStats("final", tracker.Stats(), total)
			return
		case <-report.C:
			printStats("tick", tracker.Stats(), total)
		case <-insert.C:
			tracker.Insert(randomKey(rng), total)
			total++
		}
	}
}

func randomKey(rng *rand.Rand) flowsession.Key {
	return flowsession.Key{
		SIP:   rng.Uint32(),
		DIP:   rng.Uint32(),
		SPort: uint16(rng.Intn(65535)),
		DPort: uint16(rng.Intn(65535)),
		VLAN:  uint8(rng.Intn(16)),
	}
}

func printStats(label string, s flowsession.Stats, total uint64) {
	fmt.Printf("[%s] inserted=%d total=%d rows=%d collisions=%d max=%d refreshing=%t degraded=%t\n",
		label, s.Inserted, total, s.NumRows, s.Collisions, s.MaxInserts, s.InRefresh, s.Degraded)
}

// consoleLogger adapts the tracker's structured log calls to stdout, since
// the default NoOpLogger would make the worker's phase transitions invisible
// in a standalone binary.
type consoleLogger struct{}

func (consoleLogger) Debug(msg string, kv ...interface{}) { logLine("DEBUG", msg, kv) }
func (consoleLogger) Info(msg string, kv ...interface{})  { logLine("INFO", msg, kv) }
func (consoleLogger) Warn(msg string, kv ...interface{})  { logLine("WARN", msg, kv) }
func (consoleLogger) Error(msg string, kv ...interface{}) { logLine("ERROR", msg, kv) }

func logLine(level, msg string, kv []interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s %s %v\n", time.Now().Format(time.RFC3339), level, msg, kv)
}
