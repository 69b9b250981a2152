// evict.go: asynchronous eviction, purging and the background purger
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package weakdict

import (
	"sync"
	"time"
	"weak"
)

// evict runs on the runtime's cleanup goroutine after the key tracked by fin
// has become unreachable. It must never panic into the runtime.
func (d *Dictionary[K, V]) evict(fin *finalizableHandle[K]) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("eviction callback failed",
				"error", NewErrPanicRecovered("evict", r),
				"key_hash", fin.target.hash)
		}
	}()

	value, ok := d.evictLocked(fin)
	if !ok {
		return
	}
	d.evictions.Add(1)
	d.metrics.RecordEviction()
	d.logger.Debug("entry evicted", "key_hash", fin.target.hash)
	d.notifyEvict(value)
}

func (d *Dictionary[K, V]) evictLocked(fin *finalizableHandle[K]) (value V, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Detached by Remove, Set or Clear: the entry is already gone or belongs
	// to a newer handle.
	if fin.detached {
		return value, false
	}
	d.registry.release(fin)

	e := d.primary.evict(fin.target)
	if e == nil {
		return value, false
	}
	if e.fin != fin {
		// Tombstone fallback removed another dead entry; its own cleanup must
		// not fire against the table again.
		d.registry.release(e.fin)
	}
	return e.value, true
}

// Purge retires every entry whose key has already been collected but whose
// cleanup has not run yet, and returns how many were retired. Their pending
// cleanups are detached.
func (d *Dictionary[K, V]) Purge() int {
	d.mu.Lock()
	dead := d.primary.dead()
	values := make([]V, 0, len(dead))
	for _, e := range dead {
		d.registry.release(e.fin)
		d.primary.remove(e)
		values = append(values, e.value)
	}
	d.mu.Unlock()

	if len(values) == 0 {
		return 0
	}
	d.purged.Add(uint64(len(values)))
	for _, v := range values {
		d.metrics.RecordEviction()
		d.notifyEvict(v)
	}
	d.logger.Debug("dead entries purged", "count", len(values))
	return len(values)
}

// notifyEvict calls OnEvict, logging instead of propagating a panic.
func (d *Dictionary[K, V]) notifyEvict(value V) {
	if d.onEvict == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("OnEvict callback failed", "error", NewErrPanicRecovered("OnEvict", r))
		}
	}()
	d.onEvict(value)
}

// SetPurgeInterval starts, retunes or (with interval <= 0) stops the
// background purger. Intervals below MinPurgeInterval are raised to it.
func (d *Dictionary[K, V]) SetPurgeInterval(interval time.Duration) {
	interval = normalizePurgeInterval(interval)
	wd := weak.Make(d)
	d.purger.start(interval, func() bool {
		dict := wd.Value()
		if dict == nil {
			return false
		}
		dict.Purge()
		return true
	})
	d.logger.Info("purge interval updated", "interval", interval.String())
}

// PurgeInterval returns the current background purge interval, 0 if none.
func (d *Dictionary[K, V]) PurgeInterval() time.Duration {
	return d.purger.current()
}

// purger runs a tick function on a ticker until stopped or until tick
// returns false. The goroutine never references the dictionary strongly.
type purger struct {
	mu       sync.Mutex
	interval time.Duration
	done     chan struct{}
}

func (p *purger) start(interval time.Duration, tick func() bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	if interval <= 0 {
		return
	}
	p.interval = interval
	done := make(chan struct{})
	p.done = done

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if !tick() {
					return
				}
			}
		}
	}()
}

func (p *purger) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *purger) stopLocked() {
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	p.interval = 0
}

func (p *purger) current() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}
