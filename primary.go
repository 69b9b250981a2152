// primary.go: the strong hash table holding key/value associations
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package weakdict

// entry is one key/value association. fin is the registry handle currently
// armed for the entry's key.
type entry[K, V any] struct {
	handle *weakHandle[K]
	value  V
	fin    *finalizableHandle[K]
}

// primaryMap buckets entries by their memoized hash. Collisions share a
// bucket slice and are told apart with the handle comparer. It never looks at
// key liveness on its own: dead entries stay until evicted.
//
// Not safe for concurrent use; the dictionary lock guards it.
type primaryMap[K, V any] struct {
	cmp     handleComparer[K]
	buckets map[uint64][]*entry[K, V]
	size    int
}

func newPrimaryMap[K, V any](cmp handleComparer[K], capacity int) *primaryMap[K, V] {
	return &primaryMap[K, V]{
		cmp:     cmp,
		buckets: make(map[uint64][]*entry[K, V], capacity),
	}
}

// find returns the entry whose live key equals query.
func (m *primaryMap[K, V]) find(query *K, hash uint64) *entry[K, V] {
	for _, e := range m.buckets[hash] {
		if m.cmp.matches(e.handle, query) {
			return e
		}
	}
	return nil
}

func (m *primaryMap[K, V]) insert(e *entry[K, V]) {
	hash := m.cmp.hash(e.handle)
	m.buckets[hash] = append(m.buckets[hash], e)
	m.size++
}

// rehandle moves e under a new handle. Equal keys hash equal, so the bucket
// normally stays the same; a comparer that breaks that contract still leaves
// the table consistent.
func (m *primaryMap[K, V]) rehandle(e *entry[K, V], h *weakHandle[K]) {
	if m.cmp.hash(e.handle) == m.cmp.hash(h) {
		e.handle = h
		return
	}
	m.remove(e)
	e.handle = h
	m.insert(e)
}

// remove drops exactly e. Reports whether it was present.
func (m *primaryMap[K, V]) remove(e *entry[K, V]) bool {
	hash := m.cmp.hash(e.handle)
	bucket := m.buckets[hash]
	for i, cur := range bucket {
		if cur != e {
			continue
		}
		if len(bucket) == 1 {
			delete(m.buckets, hash)
		} else {
			last := len(bucket) - 1
			bucket[i] = bucket[last]
			bucket[last] = nil
			m.buckets[hash] = bucket[:last]
		}
		m.size--
		return true
	}
	return false
}

// evict removes the entry stored under h. If h is no longer stored, it falls
// back to the handle comparer, which may pick another dead entry of the same
// bucket.
func (m *primaryMap[K, V]) evict(h *weakHandle[K]) *entry[K, V] {
	bucket := m.buckets[m.cmp.hash(h)]
	var victim *entry[K, V]
	for _, e := range bucket {
		if e.handle == h {
			victim = e
			break
		}
	}
	if victim == nil {
		for _, e := range bucket {
			if m.cmp.equal(e.handle, h) {
				victim = e
				break
			}
		}
	}
	if victim == nil {
		return nil
	}
	m.remove(victim)
	return victim
}

// dead returns the entries whose key has been collected.
func (m *primaryMap[K, V]) dead() []*entry[K, V] {
	var out []*entry[K, V]
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			if !e.handle.alive() {
				out = append(out, e)
			}
		}
	}
	return out
}

// each calls fn for every entry until fn returns false.
func (m *primaryMap[K, V]) each(fn func(e *entry[K, V]) bool) {
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			if !fn(e) {
				return
			}
		}
	}
}

func (m *primaryMap[K, V]) clear() {
	clear(m.buckets)
	m.size = 0
}

func (m *primaryMap[K, V]) len() int {
	return m.size
}
