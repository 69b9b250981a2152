// config.go: configuration for weakdict
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package weakdict

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Config holds configuration parameters for a Dictionary.
type Config struct {
	// InitialCapacity is a sizing hint for the primary map and the
	// finalization registry. Default: DefaultInitialCapacity.
	InitialCapacity int

	// PurgeInterval, when > 0, starts a background goroutine that calls
	// Purge at this interval. Values below MinPurgeInterval are raised to it.
	// Default: 0 (eviction relies on runtime cleanups only).
	PurgeInterval time.Duration

	// Logger is used for debugging and monitoring.
	// If nil, NoOpLogger is used.
	Logger Logger

	// TimeProvider provides current time for latency measurements.
	// If nil, a go-timecache backed implementation is used.
	TimeProvider TimeProvider

	// MetricsCollector receives operation metrics.
	// If nil, NoOpMetricsCollector is used (zero overhead).
	MetricsCollector MetricsCollector

	// OnEvict is called with the value of every entry retired because its
	// key was collected (by a runtime cleanup or by Purge). It runs outside
	// the dictionary lock on the goroutine that performed the eviction and
	// must be fast and non-blocking.
	OnEvict func(value interface{})
}

// Validate normalizes configuration parameters and applies defaults.
// Returns nil (no actual validation errors, only normalization).
//
// Default values applied:
//   - InitialCapacity: DefaultInitialCapacity if <= 0
//   - PurgeInterval: 0 if negative, MinPurgeInterval if positive but smaller
//   - Logger: NoOpLogger{} if nil
//   - TimeProvider: systemTimeProvider{} if nil
//   - MetricsCollector: NoOpMetricsCollector{} if nil
func (c *Config) Validate() error {
	if c.InitialCapacity <= 0 {
		c.InitialCapacity = DefaultInitialCapacity
	}

	c.PurgeInterval = normalizePurgeInterval(c.PurgeInterval)

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

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		InitialCapacity:  DefaultInitialCapacity,
		Logger:           NoOpLogger{},
		TimeProvider:     &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}

func normalizePurgeInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return 0
	case d < MinPurgeInterval:
		return MinPurgeInterval
	}
	return d
}

// systemTimeProvider is the default time provider using go-timecache.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
