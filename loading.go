// loading.go: GetOrAdd and GetOrLoad
//
// GetOrAdd runs its factory under the dictionary write lock. GetOrLoad runs
// its loader outside any dictionary lock and collapses concurrent loads of
// equal keys into one call.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package weakdict

import "runtime"

// loadCall is one in-flight GetOrLoad. done is closed after value and err are
// set and the entry, if any, is stored.
type loadCall[K, V any] struct {
	key   *K
	done  chan struct{}
	value V
	err   error
}

// GetOrAdd returns the value stored for key. If there is none, it calls
// factory(key) exactly once, stores the result and returns it.
//
// Returns:
//   - WEAKDICT_NIL_KEY if key is nil
//   - WEAKDICT_NIL_FACTORY if factory is nil
//   - WEAKDICT_PANIC_RECOVERED if factory panics; nothing is stored
//
// The factory runs under the write lock. It must be a short in-memory
// computation and must not call back into the dictionary: while it runs,
// readers, writers and the eviction callback (which executes on the runtime's
// shared cleanup goroutine) all wait. Use GetOrLoad for anything that blocks.
//
// Example:
//
//	meta, err := dict.GetOrAdd(conn, func(c *Conn) *ConnMeta {
//	    return &ConnMeta{Opened: time.Now()}
//	})
func (d *Dictionary[K, V]) GetOrAdd(key *K, factory func(key *K) V) (V, error) {
	var zero V
	if key == nil {
		return zero, NewErrNilKey("GetOrAdd")
	}
	if factory == nil {
		return zero, NewErrNilFactory("GetOrAdd")
	}
	return d.getOrAdd(key, factory)
}

// GetOrLoad is GetOrAdd with a fallible, possibly slow loader. A loader
// error is returned wrapped as WEAKDICT_LOADER_FAILED and nothing is stored.
//
// The loader runs without holding the dictionary lock, so it may block or do
// I/O. Concurrent GetOrLoad calls for equal keys share one loader call and
// its result. If an equal key was stored by Add or Set while the loader ran,
// the stored value wins and the loaded one is discarded.
//
// Example:
//
//	user, err := dict.GetOrLoad(session, func(s *Session) (*User, error) {
//	    return fetchUser(s.UserID)
//	})
func (d *Dictionary[K, V]) GetOrLoad(key *K, loader func(key *K) (V, error)) (V, error) {
	var zero V
	if key == nil {
		return zero, NewErrNilKey("GetOrLoad")
	}
	if loader == nil {
		return zero, NewErrNilFactory("GetOrLoad")
	}
	return d.getOrLoad("GetOrLoad", key, loader)
}

func (d *Dictionary[K, V]) getOrAdd(key *K, factory func(*K) V) (V, error) {
	start := d.now()
	hash := d.keys.Hash(key)
	defer runtime.KeepAlive(key)

	d.mu.Lock()
	defer d.mu.Unlock()

	if e := d.primary.find(key, hash); e != nil {
		d.hits.Add(1)
		if d.timed {
			d.metrics.RecordGet(d.now()-start, true)
		}
		return e.value, nil
	}
	d.misses.Add(1)
	if d.timed {
		d.metrics.RecordGet(d.now()-start, false)
	}

	value, err := d.runLoader("GetOrAdd", key, func(k *K) (V, error) {
		return factory(k), nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	d.insertLocked(key, hash, value)

	if d.timed {
		d.metrics.RecordSet(d.now() - start)
	}
	return value, nil
}

func (d *Dictionary[K, V]) getOrLoad(operation string, key *K, loader func(*K) (V, error)) (V, error) {
	value, found, hash := d.lookup(key)
	defer runtime.KeepAlive(key)
	if found {
		return value, nil
	}

	call, leader := d.joinLoad(key, hash)
	if !leader {
		<-call.done
		return call.value, call.err
	}

	start := d.now()
	call.value, call.err = d.runLoader(operation, key, loader)
	if call.err == nil {
		d.mu.Lock()
		if e := d.primary.find(key, hash); e != nil {
			call.value = e.value
		} else {
			d.insertLocked(key, hash, call.value)
		}
		d.mu.Unlock()
		if d.timed {
			d.metrics.RecordSet(d.now() - start)
		}
	}
	d.leaveLoad(call, hash)
	return call.value, call.err
}

// joinLoad returns the in-flight call for an equal key, or registers a new
// one and reports that the caller must run the loader. A stored entry found
// here is returned as an already completed call.
//
// Lock order is flightMu then mu; the leader never holds mu while taking
// flightMu.
func (d *Dictionary[K, V]) joinLoad(key *K, hash uint64) (*loadCall[K, V], bool) {
	d.flightMu.Lock()
	defer d.flightMu.Unlock()

	for _, c := range d.inflight[hash] {
		if d.keys.Equal(c.key, key) {
			return c, false
		}
	}

	// A leader may have stored the entry and left between lookup and here.
	d.mu.RLock()
	e := d.primary.find(key, hash)
	d.mu.RUnlock()
	if e != nil {
		done := &loadCall[K, V]{key: key, done: make(chan struct{}), value: e.value}
		close(done.done)
		return done, false
	}

	if d.inflight == nil {
		d.inflight = make(map[uint64][]*loadCall[K, V])
	}
	c := &loadCall[K, V]{key: key, done: make(chan struct{})}
	d.inflight[hash] = append(d.inflight[hash], c)
	return c, true
}

func (d *Dictionary[K, V]) leaveLoad(call *loadCall[K, V], hash uint64) {
	d.flightMu.Lock()
	calls := d.inflight[hash]
	for i, c := range calls {
		if c == call {
			calls[i] = calls[len(calls)-1]
			calls[len(calls)-1] = nil
			calls = calls[:len(calls)-1]
			break
		}
	}
	if len(calls) == 0 {
		delete(d.inflight, hash)
	} else {
		d.inflight[hash] = calls
	}
	d.flightMu.Unlock()

	close(call.done)
}

// runLoader calls loader with panic recovery.
func (d *Dictionary[K, V]) runLoader(operation string, key *K, loader func(*K) (V, error)) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewErrPanicRecovered(operation, r)
			d.logger.Warn("value factory panicked", "operation", operation)
		}
	}()
	value, err = loader(key)
	if err != nil {
		err = NewErrLoaderFailed(d.keys.Hash(key), err)
	}
	return value, err
}
