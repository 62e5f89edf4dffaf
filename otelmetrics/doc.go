// Package otelmetrics provides OpenTelemetry integration for flowsession
// metrics.
//
// This package implements the flowsession.MetricsCollector interface using
// OpenTelemetry, enabling percentile-aware latency histograms and
// outcome counters with any OTEL-compatible backend (Prometheus, Jaeger,
// DataDog, Grafana).
//
// # Usage
//
//	import (
//	    "github.com/agilira/flowsession"
//	    otelmetrics "github.com/agilira/flowsession/otelmetrics"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	provider := metric.NewMeterProvider()
//	collector, err := otelmetrics.NewCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := flowsession.DefaultConfig()
//	cfg.MetricsCollector = collector
//
// # Metrics Exposed
//
//   - flowsession_insert_latency_ns: Histogram of Insert latencies
//   - flowsession_lookup_latency_ns: Histogram of Lookup latencies
//   - flowsession_clear_latency_ns: Histogram of Clear latencies
//   - flowsession_insert_results_total: Counter of Insert outcomes, by result
//   - flowsession_lookup_hits_total / flowsession_lookup_misses_total
//   - flowsession_refresh_cycles_total: Counter of refresh cycles, by degraded
//   - flowsession_refresh_duration_ns: Histogram of refresh cycle duration
//   - flowsession_refresh_rows: Gauge-like histogram of new table row counts
//
// The core flowsession package has zero OTEL dependencies; this package is a
// separate module so pulling it in only costs something for callers who
// actually wire up OpenTelemetry.
package otelmetrics
