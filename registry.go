// registry.go: identity-keyed finalization registry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package weakdict

import (
	"runtime"
	"weak"
)

// finalizationRegistry maps the identity of every stored key to the
// finalizable handle armed on it. It is the only structure that learns when a
// key dies: the runtime runs onDeath with the handle after the key becomes
// unreachable. Weak pointers compare by the identity of the object they were
// made from, and do not keep it alive.
//
// Not safe for concurrent use; the dictionary lock guards it.
type finalizationRegistry[K any] struct {
	slots map[weak.Pointer[K]]*finalizableHandle[K]
}

func newFinalizationRegistry[K any](capacity int) *finalizationRegistry[K] {
	return &finalizationRegistry[K]{
		slots: make(map[weak.Pointer[K]]*finalizableHandle[K], capacity),
	}
}

// register arms a cleanup on key that reports target's death to onDeath.
// A handle already registered for the same key object is detached first.
//
// onDeath and the returned handle must not reference key, or it would never
// become unreachable.
func (r *finalizationRegistry[K]) register(key *K, target *weakHandle[K], onDeath func(*finalizableHandle[K])) *finalizableHandle[K] {
	if prev, ok := r.slots[target.ref]; ok {
		prev.detach()
	}
	fin := &finalizableHandle[K]{target: target}
	fin.cleanup = runtime.AddCleanup(key, onDeath, fin)
	r.slots[target.ref] = fin
	return fin
}

// owner returns the handle currently armed on the key object behind ref.
func (r *finalizationRegistry[K]) owner(ref weak.Pointer[K]) *finalizableHandle[K] {
	return r.slots[ref]
}

// release detaches fin and drops its slot if fin still owns it.
func (r *finalizationRegistry[K]) release(fin *finalizableHandle[K]) {
	if fin == nil {
		return
	}
	fin.detach()
	r.forget(fin)
}

// forget drops fin's slot without touching the cleanup. Used by the eviction
// path, where the cleanup has already run.
func (r *finalizationRegistry[K]) forget(fin *finalizableHandle[K]) {
	if cur, ok := r.slots[fin.target.ref]; ok && cur == fin {
		delete(r.slots, fin.target.ref)
	}
}

func (r *finalizationRegistry[K]) clear() {
	for _, fin := range r.slots {
		fin.detach()
	}
	clear(r.slots)
}

func (r *finalizationRegistry[K]) len() int {
	return len(r.slots)
}
