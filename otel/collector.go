// Package otel provides OpenTelemetry integration for weakdict metrics.
//
// This package implements the weakdict.MetricsCollector interface using
// OpenTelemetry instruments, so dictionary lookups, writes, removals and
// GC-driven evictions can be exported to any OTEL backend.
//
// # Usage
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//
//	collector, _ := weakdictotel.NewOTelMetricsCollector(provider)
//
//	dict := weakdict.New[Conn, *ConnState](weakdict.Config{
//	    MetricsCollector: collector,
//	})
//
// # Metrics Exposed
//
//   - weakdict_get_latency_ns: histogram of lookup latencies
//   - weakdict_set_latency_ns: histogram of Add/Set/GetOrAdd insert latencies
//   - weakdict_remove_latency_ns: histogram of Remove latencies
//   - weakdict_get_hits_total: counter of lookup hits
//   - weakdict_get_misses_total: counter of lookup misses
//   - weakdict_evictions_total: counter of entries retired after their key was collected
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"

	"github.com/bemobolo/weakdict"
	"go.opentelemetry.io/otel/metric"
)

// DefaultMeterName is the meter name used when WithMeterName is not given.
const DefaultMeterName = "github.com/bemobolo/weakdict"

// OTelMetricsCollector implements weakdict.MetricsCollector using OpenTelemetry.
//
// Thread-safety: Safe for concurrent use by multiple goroutines, including
// the runtime cleanup goroutine that reports evictions.
type OTelMetricsCollector struct {
	getLatency    metric.Int64Histogram
	setLatency    metric.Int64Histogram
	removeLatency metric.Int64Histogram
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	evictions     metric.Int64Counter
}

// Options for configuring OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: DefaultMeterName
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name.
// This is useful for distinguishing metrics from multiple dictionaries.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewOTelMetricsCollector creates a new OpenTelemetry metrics collector.
// Returns an error if provider is nil or an instrument cannot be created.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{
		MeterName: DefaultMeterName,
	}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	collector := &OTelMetricsCollector{}

	var err error
	collector.getLatency, err = meter.Int64Histogram(
		"weakdict_get_latency_ns",
		metric.WithDescription("Latency of lookups in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.setLatency, err = meter.Int64Histogram(
		"weakdict_set_latency_ns",
		metric.WithDescription("Latency of inserts and overwrites in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.removeLatency, err = meter.Int64Histogram(
		"weakdict_remove_latency_ns",
		metric.WithDescription("Latency of Remove operations in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.hits, err = meter.Int64Counter(
		"weakdict_get_hits_total",
		metric.WithDescription("Total number of lookup hits"),
	)
	if err != nil {
		return nil, err
	}

	collector.misses, err = meter.Int64Counter(
		"weakdict_get_misses_total",
		metric.WithDescription("Total number of lookup misses"),
	)
	if err != nil {
		return nil, err
	}

	collector.evictions, err = meter.Int64Counter(
		"weakdict_evictions_total",
		metric.WithDescription("Total number of entries retired after their key was collected"),
	)
	if err != nil {
		return nil, err
	}

	return collector, nil
}

// RecordGet records a lookup latency and its hit/miss outcome.
func (c *OTelMetricsCollector) RecordGet(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNs)
	if hit {
		c.hits.Add(ctx, 1)
	} else {
		c.misses.Add(ctx, 1)
	}
}

// RecordSet records an insert or overwrite latency.
func (c *OTelMetricsCollector) RecordSet(latencyNs int64) {
	c.setLatency.Record(context.Background(), latencyNs)
}

// RecordDelete records a Remove latency.
func (c *OTelMetricsCollector) RecordDelete(latencyNs int64) {
	c.removeLatency.Record(context.Background(), latencyNs)
}

// RecordEviction increments the evictions counter.
func (c *OTelMetricsCollector) RecordEviction() {
	c.evictions.Add(context.Background(), 1)
}

// Compile-time interface check
var _ weakdict.MetricsCollector = (*OTelMetricsCollector)(nil)
