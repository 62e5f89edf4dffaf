// collector.go: flowsession.MetricsCollector backed by OpenTelemetry.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package otelmetrics

import (
	"context"
	"errors"

	"github.com/agilira/flowsession"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Collector implements flowsession.MetricsCollector using OpenTelemetry.
// All instruments are created once, at construction, and every Record*
// call is allocation-free beyond what the OTEL SDK itself does internally.
//
// Thread-safety: safe for concurrent use by multiple goroutines, including
// the tracker's own background refresh worker.
type Collector struct {
	insertLatency  metric.Int64Histogram
	lookupLatency  metric.Int64Histogram
	clearLatency   metric.Int64Histogram
	insertResults  metric.Int64Counter
	lookupHits     metric.Int64Counter
	lookupMisses   metric.Int64Counter
	refreshCycles  metric.Int64Counter
	refreshLatency metric.Int64Histogram
	refreshRows    metric.Int64Histogram
}

// Options configures Collector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/agilira/flowsession"
	MeterName string
}

// Option is a functional option for Options.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful when distinguishing
// metrics from multiple trackers in the same process.
func WithMeterName(name string) Option {
	return func(o *Options) { o.MeterName = name }
}

// NewCollector creates a Collector backed by provider. provider must not be
// nil.
func NewCollector(provider metric.MeterProvider, opts ...Option) (*Collector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/flowsession"}
	for _, opt := range opts {
		opt(&options)
	}
	meter := provider.Meter(options.MeterName)

	c := &Collector{}
	var err error

	if c.insertLatency, err = meter.Int64Histogram(
		"flowsession_insert_latency_ns",
		metric.WithDescription("Latency of Insert operations in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.lookupLatency, err = meter.Int64Histogram(
		"flowsession_lookup_latency_ns",
		metric.WithDescription("Latency of Lookup operations in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.clearLatency, err = meter.Int64Histogram(
		"flowsession_clear_latency_ns",
		metric.WithDescription("Latency of Clear operations in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.insertResults, err = meter.Int64Counter(
		"flowsession_insert_results_total",
		metric.WithDescription("Total Insert calls, partitioned by outcome"),
	); err != nil {
		return nil, err
	}
	if c.lookupHits, err = meter.Int64Counter(
		"flowsession_lookup_hits_total",
		metric.WithDescription("Total Lookup calls that found an entry"),
	); err != nil {
		return nil, err
	}
	if c.lookupMisses, err = meter.Int64Counter(
		"flowsession_lookup_misses_total",
		metric.WithDescription("Total Lookup calls that found nothing"),
	); err != nil {
		return nil, err
	}
	if c.refreshCycles, err = meter.Int64Counter(
		"flowsession_refresh_cycles_total",
		metric.WithDescription("Total refresh cycles, partitioned by degraded"),
	); err != nil {
		return nil, err
	}
	if c.refreshLatency, err = meter.Int64Histogram(
		"flowsession_refresh_duration_ns",
		metric.WithDescription("Duration of refresh cycles in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.refreshRows, err = meter.Int64Histogram(
		"flowsession_refresh_rows",
		metric.WithDescription("Resulting active table row count after each refresh cycle"),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// RecordInsert implements flowsession.MetricsCollector.
func (c *Collector) RecordInsert(latencyNs int64, result flowsession.InsertResult) {
	ctx := context.Background()
	c.insertLatency.Record(ctx, latencyNs)
	c.insertResults.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result.String())))
}

// RecordLookup implements flowsession.MetricsCollector.
func (c *Collector) RecordLookup(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.lookupLatency.Record(ctx, latencyNs)
	if hit {
		c.lookupHits.Add(ctx, 1)
	} else {
		c.lookupMisses.Add(ctx, 1)
	}
}

// RecordClear implements flowsession.MetricsCollector.
func (c *Collector) RecordClear(latencyNs int64) {
	c.clearLatency.Record(context.Background(), latencyNs)
}

// RecordRefreshCycle implements flowsession.MetricsCollector.
func (c *Collector) RecordRefreshCycle(durationNs int64, degraded bool, oldRows, newRows uint64) {
	ctx := context.Background()
	c.refreshCycles.Add(ctx, 1, metric.WithAttributes(attribute.Bool("degraded", degraded)))
	c.refreshLatency.Record(ctx, durationNs)
	if !degraded {
		c.refreshRows.Record(ctx, int64(newRows))
	}
}

var _ flowsession.MetricsCollector = (*Collector)(nil)
