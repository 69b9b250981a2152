// Package maputil provides get-or-create and update-or-insert helpers for
// ordinary Go maps.
//
// These are the plain-map counterparts of Dictionary.GetOrAdd and
// Dictionary.Set. They are not safe for concurrent use; guard the map as you
// would any other.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package maputil

// GetOrAdd returns m[key], storing factory(key) first if key is absent.
// factory runs at most once.
func GetOrAdd[M ~map[K]V, K comparable, V any](m M, key K, factory func(K) V) V {
	if v, ok := m[key]; ok {
		return v
	}
	v := factory(key)
	m[key] = v
	return v
}

// AddOrUpdate stores addValue under key if it is absent, or update(key, old)
// otherwise, and returns the stored value.
func AddOrUpdate[M ~map[K]V, K comparable, V any](m M, key K, addValue V, update func(K, V) V) V {
	if old, ok := m[key]; ok {
		v := update(key, old)
		m[key] = v
		return v
	}
	m[key] = addValue
	return addValue
}

// TryAdd stores value under key only if key is absent. Reports whether it
// stored.
func TryAdd[M ~map[K]V, K comparable, V any](m M, key K, value V) bool {
	if _, ok := m[key]; ok {
		return false
	}
	m[key] = value
	return true
}
