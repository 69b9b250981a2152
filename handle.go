// handle.go: weak key handles with memoized hashes
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package weakdict

import (
	"runtime"
	"weak"
)

// weakHandle wraps a weak reference to a key together with the hash computed
// from the live key when the handle was built. The hash is never recomputed:
// a stored handle must stay locatable after its key has been collected.
type weakHandle[K any] struct {
	ref  weak.Pointer[K]
	hash uint64
}

func newWeakHandle[K any](key *K, hash uint64) *weakHandle[K] {
	return &weakHandle[K]{
		ref:  weak.Make(key),
		hash: hash,
	}
}

// value returns the key, or nil once it has been collected.
func (h *weakHandle[K]) value() *K {
	return h.ref.Value()
}

func (h *weakHandle[K]) alive() bool {
	return h.ref.Value() != nil
}

// finalizableHandle is the registry's view of a stored key: it tracks the
// weakHandle of one entry and owns the runtime cleanup armed on the key.
//
// detached is guarded by the dictionary write lock. Once set, the cleanup
// callback for this handle does nothing, even if the runtime had already
// queued it when Stop was called.
type finalizableHandle[K any] struct {
	target   *weakHandle[K]
	cleanup  runtime.Cleanup
	detached bool
}

func (f *finalizableHandle[K]) detach() {
	if f.detached {
		return
	}
	f.detached = true
	f.cleanup.Stop()
}
