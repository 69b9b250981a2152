// interfaces.go: public interfaces for weakdict
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package weakdict

// Comparer defines key equality and hashing for a Dictionary.
//
// Both methods are only ever called with live, non-nil keys. Hash must be
// deterministic for a given live object and consistent with Equal: keys that
// compare equal must hash equal. The dictionary memoizes Hash at insertion time
// and never calls it again for a stored key.
//
// A stored key must not be mutated in a way that changes its Hash. The entry
// stays filed under the old hash and becomes unreachable by lookups; storing
// the same object again takes over its cleanup, so the old entry is only
// retired by Purge.
type Comparer[K any] interface {
	// Equal reports whether a and b denote the same dictionary key.
	Equal(a, b *K) bool

	// Hash returns the hash code of k.
	Hash(k *K) uint64
}

// Stats provides statistics about dictionary activity.
type Stats struct {
	// Hits is the number of successful lookups
	Hits uint64

	// Misses is the number of failed lookups
	Misses uint64

	// Adds is the number of entries inserted (Add, GetOrAdd, GetOrLoad, new Set keys)
	Adds uint64

	// Updates is the number of Set calls that overwrote an existing entry
	Updates uint64

	// Removes is the number of successful Remove calls
	Removes uint64

	// Evictions is the number of entries retired because their key was collected
	Evictions uint64

	// Purged is the number of dead entries retired by Purge
	Purged uint64

	// Size is the current number of entries, dead-pending ones included
	Size int
}

// HitRatio returns the lookup hit ratio as a percentage (0-100).
// Returns 0.0 if no lookups have been performed yet.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Logger defines a minimal logging interface with zero overhead.
// Implementations should use structured logging and be allocation-free.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keyvals ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger is a logger that does nothing. Used as default to avoid nil checks.
type NoOpLogger struct{}

// Debug does nothing (no-op implementation).
func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}

// Info does nothing (no-op implementation).
func (NoOpLogger) Info(msg string, keyvals ...interface{}) {}

// Warn does nothing (no-op implementation).
func (NoOpLogger) Warn(msg string, keyvals ...interface{}) {}

// Error does nothing (no-op implementation).
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider provides current time with caching for performance.
type TimeProvider interface {
	// Now returns the current time in nanoseconds since epoch.
	Now() int64
}

// MetricsCollector defines an interface for collecting dictionary operation metrics.
// Implementations can forward to Prometheus, OpenTelemetry or any other backend.
//
// Thread-safety: all methods must be safe for concurrent use. RecordEviction is
// called from the runtime's cleanup goroutine.
type MetricsCollector interface {
	// RecordGet records a lookup with its latency and hit/miss result.
	RecordGet(latencyNs int64, hit bool)

	// RecordSet records an insert or overwrite with its latency.
	RecordSet(latencyNs int64)

	// RecordDelete records a Remove with its latency.
	RecordDelete(latencyNs int64)

	// RecordEviction records an entry retired after its key was collected.
	RecordEviction()
}

// NoOpMetricsCollector is a metrics collector that does nothing.
type NoOpMetricsCollector struct{}

// RecordGet does nothing. Inlined by compiler.
func (NoOpMetricsCollector) RecordGet(latencyNs int64, hit bool) {}

// RecordSet does nothing. Inlined by compiler.
func (NoOpMetricsCollector) RecordSet(latencyNs int64) {}

// RecordDelete does nothing. Inlined by compiler.
func (NoOpMetricsCollector) RecordDelete(latencyNs int64) {}

// RecordEviction does nothing. Inlined by compiler.
func (NoOpMetricsCollector) RecordEviction() {}
