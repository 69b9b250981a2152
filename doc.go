// Package weakdict provides a concurrent dictionary that does not keep its
// keys alive.
//
// # Overview
//
// A Dictionary[K, V] associates values with key objects of type *K. The
// dictionary holds each key through a weak pointer and arms a runtime cleanup
// on it. When the rest of the program drops its last reference to a key, the
// collector reclaims it and the cleanup retires the entry asynchronously.
// Callers never have to remove entries for objects they have thrown away.
//
// Typical uses attach metadata to objects owned by someone else: connections,
// sessions, parsed documents, requests.
//
// # Quick Start
//
//	type Conn struct {
//	    Addr string
//	    // ...
//	}
//
//	dict := weakdict.New[Conn, *ConnStats](weakdict.DefaultConfig())
//	defer dict.Close()
//
//	stats, err := dict.GetOrAdd(conn, func(*Conn) *ConnStats {
//	    return &ConnStats{Opened: time.Now()}
//	})
//
// # Key Equality
//
// By default keys are compared by identity. A Comparer makes distinct
// objects denote the same key:
//
//	cmp, _ := weakdict.NewKeyComparer(func(u *User) string { return u.Email })
//	dict, _ := weakdict.NewWithComparer[User, Profile](weakdict.DefaultConfig(), cmp)
//
// The hash of each key is computed once, when it is stored, and memoized in
// its weak handle. A stored entry stays locatable after its key has died.
//
// # Eviction
//
// Between the death of a key and the run of its cleanup an entry is
// dead-pending: Count and Values still include it, TryGet and ContainsKey can
// never match it, Keys and All skip it. Cleanups run on a runtime goroutine
// some time after a collection. Purge, or a background purger configured with
// Config.PurgeInterval, retires dead-pending entries without waiting.
//
// Values are held strongly. A value that references its own key keeps the key
// reachable, and the entry is never evicted.
//
// # Concurrency Model
//
//   - Reads (TryGet, Get, ContainsKey, Count, Keys, Values) share a read lock
//   - Writes (Add, Set, Remove, Clear, GetOrAdd, GetOrLoad) take the write lock
//   - Evictions take the write lock on the runtime cleanup goroutine
//   - GetOrAdd and GetOrLoad run their factory at most once per missing key
//
// Pending cleanups and the background purger reference the dictionary weakly,
// so an abandoned dictionary is collected normally.
//
// # Error Handling
//
// Errors carry codes from github.com/agilira/go-errors:
//
//	if err := dict.Add(key, value); weakdict.IsDuplicateKey(err) {
//	    // an equal live key is already stored
//	}
//
// # Hot Reload
//
// HotConfig watches a configuration file through github.com/agilira/argus and
// retunes the purge interval of a running dictionary.
//
// # Observability
//
// Stats returns hit, miss, add, update, remove, eviction and purge counters.
// A MetricsCollector receives latencies and events; the separate
// github.com/bemobolo/weakdict/otel module exports them through OpenTelemetry.
//
// # Packages
//
//   - github.com/bemobolo/weakdict: the dictionary
//   - github.com/bemobolo/weakdict/maputil: GetOrAdd, AddOrUpdate and TryAdd for plain maps
//   - github.com/bemobolo/weakdict/otel: OpenTelemetry integration (separate module)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package weakdict
