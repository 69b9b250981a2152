// race_test.go: concurrency tests, run with -race
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package weakdict

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// TestRace_MixedOperations hammers one dictionary with every operation while
// the collector retires keys underneath.
func TestRace_MixedOperations(t *testing.T) {
	d := New[testKey, int](Config{PurgeInterval: MinPurgeInterval})
	defer func() { _ = d.Close() }()

	shared := make([]*testKey, 32)
	for i := range shared {
		shared[i] = newKey(i)
	}

	const workers = 8
	const iterations = 2000

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range iterations {
				k := shared[(w+i)%len(shared)]
				switch i % 8 {
				case 0:
					_ = d.Add(k, i)
				case 1:
					_ = d.Set(k, i)
				case 2:
					_, _, _ = d.TryGet(k)
				case 3:
					_, _ = d.Remove(k)
				case 4:
					_, _ = d.GetOrAdd(k, func(*testKey) int { return i })
				case 5:
					_ = d.Add(newKey(1000+i), i)
				case 6:
					_ = d.Keys()
					_ = d.Values()
				case 7:
					for range d.All() {
						break
					}
					_ = d.Count()
				}
				if i%500 == 0 {
					runtime.GC()
				}
			}
		}()
	}
	wg.Wait()

	// Once the ephemeral keys are gone only shared keys remain.
	ok := eventually(5*time.Second, func() bool {
		d.Purge()
		return len(d.Keys()) == d.Count()
	})
	if !ok {
		t.Errorf("Count = %d, live keys = %d", d.Count(), len(d.Keys()))
	}
	if d.Count() > len(shared) {
		t.Errorf("Count = %d, at most %d shared keys expected", d.Count(), len(shared))
	}
	runtime.KeepAlive(shared)
}

// TestRace_EvictionDuringWrites churns short-lived keys while other
// goroutines overwrite long-lived ones.
func TestRace_EvictionDuringWrites(t *testing.T) {
	d, _ := NewWithComparer[testKey, int](DefaultConfig(), byName(t))

	stable := []*testKey{newKey(1), newKey(2), newKey(3)}
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			// Colliding bucket: every key hashes to 2.
			_ = d.Add(&testKey{id: i, name: "eph"}, i)
			_, _ = d.Remove(&testKey{name: "eph"})
			_ = d.Add(&testKey{id: i, name: "eph"}, i)
		}
	}()

	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				_ = d.Set(stable[(w+i)%len(stable)], i)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	runtime.GC()
	close(stop)
	wg.Wait()

	for _, k := range stable {
		if ok, _ := d.ContainsKey(k); !ok {
			t.Errorf("stable key %d lost", k.id)
		}
	}
	runtime.KeepAlive(stable)
}
