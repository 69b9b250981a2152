// dictionary.go: the weak-keyed dictionary
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package weakdict

import (
	"iter"
	"runtime"
	"sync"
	"sync/atomic"
	"weak"
)

// Dictionary maps keys of type *K to values of type V without keeping the
// keys alive. When a key becomes unreachable, the runtime cleanup armed on it
// removes the entry asynchronously. Until then the entry is dead-pending: it
// still counts in Count and its value still shows up in Values, but no lookup
// can match it.
//
// All methods are safe for concurrent use. Mutations and evictions are
// serialized by one lock; lookups share it.
//
// Values are held strongly. A value that references its own key keeps that
// key reachable, and the entry then lives as long as the dictionary does.
type Dictionary[K, V any] struct {
	mu       sync.RWMutex
	keys     Comparer[K]
	primary  *primaryMap[K, V]
	registry *finalizationRegistry[K]

	// onDeath is the cleanup callback handed to the registry. It only holds
	// the dictionary weakly.
	onDeath func(*finalizableHandle[K])

	logger       Logger
	timeProvider TimeProvider
	metrics      MetricsCollector
	timed        bool
	onEvict      func(value interface{})

	purger purger

	// In-flight GetOrLoad calls by key hash. Guarded by flightMu.
	flightMu sync.Mutex
	inflight map[uint64][]*loadCall[K, V]

	hits      atomic.Uint64
	misses    atomic.Uint64
	adds      atomic.Uint64
	updates   atomic.Uint64
	removes   atomic.Uint64
	evictions atomic.Uint64
	purged    atomic.Uint64
}

// New creates a dictionary that compares keys by identity.
func New[K, V any](cfg Config) *Dictionary[K, V] {
	return newDictionary[K, V](cfg, IdentityComparer[K]{})
}

// NewWithComparer creates a dictionary that compares keys with cmp.
// Returns WEAKDICT_NIL_COMPARER if cmp is nil.
func NewWithComparer[K, V any](cfg Config, cmp Comparer[K]) (*Dictionary[K, V], error) {
	if cmp == nil {
		return nil, NewErrNilComparer("NewWithComparer")
	}
	return newDictionary[K, V](cfg, cmp), nil
}

// NewFrom creates an identity-compared dictionary holding pairs.
// Pairs are added one at a time, so a nil key or a duplicate key fails the
// same way Add does.
func NewFrom[K, V any](cfg Config, pairs iter.Seq2[*K, V]) (*Dictionary[K, V], error) {
	return NewFromWithComparer[K, V](cfg, pairs, IdentityComparer[K]{})
}

// NewFromWithComparer creates a dictionary comparing keys with cmp and
// holding pairs.
func NewFromWithComparer[K, V any](cfg Config, pairs iter.Seq2[*K, V], cmp Comparer[K]) (*Dictionary[K, V], error) {
	if pairs == nil {
		return nil, NewErrNilSequence("NewFrom")
	}
	d, err := NewWithComparer[K, V](cfg, cmp)
	if err != nil {
		return nil, err
	}
	for key, value := range pairs {
		if err := d.Add(key, value); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

func newDictionary[K, V any](cfg Config, cmp Comparer[K]) *Dictionary[K, V] {
	_ = cfg.Validate()

	d := &Dictionary[K, V]{
		keys:         cmp,
		primary:      newPrimaryMap[K, V](handleComparer[K]{keys: cmp}, cfg.InitialCapacity),
		registry:     newFinalizationRegistry[K](cfg.InitialCapacity),
		logger:       cfg.Logger,
		timeProvider: cfg.TimeProvider,
		metrics:      cfg.MetricsCollector,
		onEvict:      cfg.OnEvict,
	}
	_, noop := cfg.MetricsCollector.(NoOpMetricsCollector)
	d.timed = !noop

	wd := weak.Make(d)
	d.onDeath = func(fin *finalizableHandle[K]) {
		if d := wd.Value(); d != nil {
			d.evict(fin)
		}
	}

	if cfg.PurgeInterval > 0 {
		d.SetPurgeInterval(cfg.PurgeInterval)
	}
	return d
}

// Logger returns the dictionary's logger.
func (d *Dictionary[K, V]) Logger() Logger {
	return d.logger
}

func (d *Dictionary[K, V]) now() int64 {
	if !d.timed {
		return 0
	}
	return d.timeProvider.Now()
}

// =============================================================================
// READS
// =============================================================================

// lookup finds key under the read lock.
func (d *Dictionary[K, V]) lookup(key *K) (value V, found bool, hash uint64) {
	start := d.now()
	hash = d.keys.Hash(key)

	d.mu.RLock()
	if e := d.primary.find(key, hash); e != nil {
		value, found = e.value, true
	}
	d.mu.RUnlock()
	runtime.KeepAlive(key)

	if found {
		d.hits.Add(1)
	} else {
		d.misses.Add(1)
	}
	if d.timed {
		d.metrics.RecordGet(d.now()-start, found)
	}
	return value, found, hash
}

// TryGet returns the value stored for key.
// Returns WEAKDICT_NIL_KEY if key is nil.
func (d *Dictionary[K, V]) TryGet(key *K) (V, bool, error) {
	if key == nil {
		var zero V
		return zero, false, NewErrNilKey("TryGet")
	}
	value, found, _ := d.lookup(key)
	return value, found, nil
}

// Get returns the value stored for key, failing with WEAKDICT_KEY_NOT_FOUND
// when there is none.
func (d *Dictionary[K, V]) Get(key *K) (V, error) {
	var zero V
	if key == nil {
		return zero, NewErrNilKey("Get")
	}
	value, found, hash := d.lookup(key)
	if !found {
		return zero, NewErrKeyNotFound(hash)
	}
	return value, nil
}

// ContainsKey reports whether a live key equal to key is stored.
func (d *Dictionary[K, V]) ContainsKey(key *K) (bool, error) {
	if key == nil {
		return false, NewErrNilKey("ContainsKey")
	}
	_, found, _ := d.lookup(key)
	return found, nil
}

// Count returns the number of stored entries, including entries whose key
// has died but which have not been evicted yet.
func (d *Dictionary[K, V]) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.primary.len()
}

// Keys returns a snapshot of the live keys. Holding the returned slice keeps
// those keys, and therefore their entries, alive.
func (d *Dictionary[K, V]) Keys() []*K {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]*K, 0, d.primary.len())
	d.primary.each(func(e *entry[K, V]) bool {
		if k := e.handle.value(); k != nil {
			keys = append(keys, k)
		}
		return true
	})
	return keys
}

// Values returns a snapshot of every stored value, including values of
// dead-pending entries.
func (d *Dictionary[K, V]) Values() []V {
	d.mu.RLock()
	defer d.mu.RUnlock()

	values := make([]V, 0, d.primary.len())
	d.primary.each(func(e *entry[K, V]) bool {
		values = append(values, e.value)
		return true
	})
	return values
}

// All returns an iterator over a snapshot of the live key/value pairs. The
// snapshot is taken when iteration starts; yield runs without the lock held.
func (d *Dictionary[K, V]) All() iter.Seq2[*K, V] {
	return func(yield func(*K, V) bool) {
		type pair struct {
			key   *K
			value V
		}
		d.mu.RLock()
		pairs := make([]pair, 0, d.primary.len())
		d.primary.each(func(e *entry[K, V]) bool {
			if k := e.handle.value(); k != nil {
				pairs = append(pairs, pair{k, e.value})
			}
			return true
		})
		d.mu.RUnlock()

		for _, p := range pairs {
			if !yield(p.key, p.value) {
				return
			}
		}
	}
}

// =============================================================================
// WRITES
// =============================================================================

// insertLocked stores a new entry and registers its key, in that order.
// Caller holds d.mu.
func (d *Dictionary[K, V]) insertLocked(key *K, hash uint64, value V) {
	h := newWeakHandle(key, hash)
	e := &entry[K, V]{handle: h, value: value}
	d.primary.insert(e)
	e.fin = d.arm(key, h)
	d.adds.Add(1)
}

// arm registers the cleanup for h. A key object can only carry one cleanup
// per dictionary; if it is still armed for another entry (its hash changed
// after it was stored, so it was added again), that entry loses its cleanup
// and is only retired by Purge. Caller holds d.mu.
func (d *Dictionary[K, V]) arm(key *K, h *weakHandle[K]) *finalizableHandle[K] {
	if prev := d.registry.owner(h.ref); prev != nil {
		d.logger.Warn("key object already stored under another entry; its hash changed after insertion",
			"key_hash", h.hash, "previous_hash", prev.target.hash)
	}
	return d.registry.register(key, h, d.onDeath)
}

// Add stores value under key.
// Returns WEAKDICT_NIL_KEY if key is nil and WEAKDICT_DUPLICATE_KEY if an
// equal live key is already stored.
func (d *Dictionary[K, V]) Add(key *K, value V) error {
	if key == nil {
		return NewErrNilKey("Add")
	}
	start := d.now()
	hash := d.keys.Hash(key)

	d.mu.Lock()
	if d.primary.find(key, hash) != nil {
		d.mu.Unlock()
		return NewErrDuplicateKey("Add", hash)
	}
	d.insertLocked(key, hash, value)
	d.mu.Unlock()
	runtime.KeepAlive(key)

	if d.timed {
		d.metrics.RecordSet(d.now() - start)
	}
	return nil
}

// Set stores value under key, replacing any value stored for an equal key.
//
// When an entry exists, it is rebound to the key object passed here: the
// cleanup armed on the previous key object is detached and a new one is armed
// on key. From then on the entry lives as long as key does.
func (d *Dictionary[K, V]) Set(key *K, value V) error {
	if key == nil {
		return NewErrNilKey("Set")
	}
	start := d.now()
	hash := d.keys.Hash(key)

	d.mu.Lock()
	if e := d.primary.find(key, hash); e != nil {
		d.registry.release(e.fin)
		h := newWeakHandle(key, hash)
		d.primary.rehandle(e, h)
		e.value = value
		e.fin = d.arm(key, h)
		d.updates.Add(1)
	} else {
		d.insertLocked(key, hash, value)
	}
	d.mu.Unlock()
	runtime.KeepAlive(key)

	if d.timed {
		d.metrics.RecordSet(d.now() - start)
	}
	return nil
}

// Remove deletes the entry stored for key. The key's cleanup is detached
// before the entry is removed. Reports whether an entry was removed; a
// missing key is not an error.
func (d *Dictionary[K, V]) Remove(key *K) (bool, error) {
	if key == nil {
		return false, NewErrNilKey("Remove")
	}
	start := d.now()
	hash := d.keys.Hash(key)

	d.mu.Lock()
	e := d.primary.find(key, hash)
	if e != nil {
		d.registry.release(e.fin)
		d.primary.remove(e)
	}
	d.mu.Unlock()
	runtime.KeepAlive(key)

	if e == nil {
		return false, nil
	}
	d.removes.Add(1)
	if d.timed {
		d.metrics.RecordDelete(d.now() - start)
	}
	return true, nil
}

// Clear removes every entry and detaches every pending cleanup.
func (d *Dictionary[K, V]) Clear() {
	d.mu.Lock()
	d.registry.clear()
	d.primary.clear()
	d.mu.Unlock()
	d.logger.Debug("dictionary cleared")
}

// Stats returns dictionary statistics.
func (d *Dictionary[K, V]) Stats() Stats {
	return Stats{
		Hits:      d.hits.Load(),
		Misses:    d.misses.Load(),
		Adds:      d.adds.Load(),
		Updates:   d.updates.Load(),
		Removes:   d.removes.Load(),
		Evictions: d.evictions.Load(),
		Purged:    d.purged.Load(),
		Size:      d.Count(),
	}
}

// Close stops the background purger and clears the dictionary.
// The dictionary remains usable afterwards, without background purging.
func (d *Dictionary[K, V]) Close() error {
	d.purger.stop()
	d.Clear()
	return nil
}
