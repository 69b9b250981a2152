// helpers_test.go: shared fixtures for weakdict tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package weakdict

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"
)

// testKey is big enough to get its own allocation; tiny objects can share a
// block and delay each other's cleanups.
type testKey struct {
	id   int
	name string
	pad  [48]byte
}

func newKey(id int) *testKey {
	return &testKey{id: id, name: fmt.Sprintf("key-%d", id)}
}

// byName compares keys by name and puts every key in bucket 2.
func byName(t *testing.T) Comparer[testKey] {
	t.Helper()
	cmp, err := NewComparerFunc(
		func(a, b *testKey) bool { return a.name == b.name },
		func(*testKey) uint64 { return 2 },
	)
	if err != nil {
		t.Fatalf("NewComparerFunc failed: %v", err)
	}
	return cmp
}

// addEphemeral stores value under a key nothing else references.
//
//go:noinline
func addEphemeral[V any](t *testing.T, d *Dictionary[testKey, V], id int, value V) {
	t.Helper()
	if err := d.Add(newKey(id), value); err != nil {
		t.Fatalf("Add(%d) failed: %v", id, err)
	}
}

// eventually forces collections until cond holds or timeout elapses.
func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		runtime.GC()
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// settle runs a few collection cycles and gives cleanups time to run.
func settle() {
	for range 5 {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
}

type logEntry struct {
	level string
	msg   string
}

// captureLogger records every message it receives.
type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level, msg})
}

func (l *captureLogger) Debug(msg string, keyvals ...interface{}) { l.log("debug", msg) }
func (l *captureLogger) Info(msg string, keyvals ...interface{})  { l.log("info", msg) }
func (l *captureLogger) Warn(msg string, keyvals ...interface{})  { l.log("warn", msg) }
func (l *captureLogger) Error(msg string, keyvals ...interface{}) { l.log("error", msg) }

func (l *captureLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}
