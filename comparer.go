// comparer.go: key comparers and the liveness-aware handle comparer
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package weakdict

import (
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
)

var identitySeed = maphash.MakeSeed()

// IdentityComparer compares keys by pointer identity. It is the default
// comparer and its zero value is ready to use.
type IdentityComparer[K any] struct{}

// Equal reports whether a and b point to the same object.
func (IdentityComparer[K]) Equal(a, b *K) bool {
	return a == b
}

// Hash hashes the address of k. The Go collector does not move heap
// objects, so the address is stable for the lifetime of k.
func (IdentityComparer[K]) Hash(k *K) uint64 {
	return maphash.Comparable(identitySeed, k)
}

// ComparerFunc adapts a pair of functions to the Comparer interface.
type ComparerFunc[K any] struct {
	equal func(a, b *K) bool
	hash  func(k *K) uint64
}

// NewComparerFunc builds a Comparer from equal and hash.
// Returns WEAKDICT_NIL_COMPARER if either function is nil.
func NewComparerFunc[K any](equal func(a, b *K) bool, hash func(k *K) uint64) (*ComparerFunc[K], error) {
	if equal == nil || hash == nil {
		return nil, NewErrNilComparer("NewComparerFunc")
	}
	return &ComparerFunc[K]{equal: equal, hash: hash}, nil
}

// Equal calls the wrapped equality function.
func (c *ComparerFunc[K]) Equal(a, b *K) bool {
	return c.equal(a, b)
}

// Hash calls the wrapped hash function.
func (c *ComparerFunc[K]) Hash(k *K) uint64 {
	return c.hash(k)
}

// KeyComparer treats two objects as the same key when they derive the same
// string. Hashing uses xxhash over the derived string.
//
// Example:
//
//	cmp, _ := weakdict.NewKeyComparer(func(u *User) string { return u.Email })
//	dict, _ := weakdict.NewWithComparer[User, Profile](weakdict.DefaultConfig(), cmp)
type KeyComparer[K any] struct {
	key func(k *K) string
}

// NewKeyComparer builds a KeyComparer from key.
// Returns WEAKDICT_NIL_COMPARER if key is nil.
func NewKeyComparer[K any](key func(k *K) string) (*KeyComparer[K], error) {
	if key == nil {
		return nil, NewErrNilComparer("NewKeyComparer")
	}
	return &KeyComparer[K]{key: key}, nil
}

// Equal compares the derived strings of a and b.
func (c *KeyComparer[K]) Equal(a, b *K) bool {
	return c.key(a) == c.key(b)
}

// Hash returns the xxhash of the derived string of k.
func (c *KeyComparer[K]) Hash(k *K) uint64 {
	return xxhash.Sum64String(c.key(k))
}

// handleComparer lifts a key Comparer to weak handles.
//
// Two handles are equal when both keys are alive and equal under keys, or
// when both keys are dead. Dead handles are interchangeable tombstones: two
// unrelated dead entries in one bucket compare equal. Nothing live ever
// matches a dead handle.
type handleComparer[K any] struct {
	keys Comparer[K]
}

func (c handleComparer[K]) equal(a, b *weakHandle[K]) bool {
	if a == b {
		return true
	}
	ka, kb := a.value(), b.value()
	if ka == nil || kb == nil {
		return ka == nil && kb == nil
	}
	return c.keys.Equal(ka, kb)
}

// matches is equal specialised to a live query key, which saves building a
// transient weak handle on every lookup.
func (c handleComparer[K]) matches(stored *weakHandle[K], query *K) bool {
	k := stored.value()
	if k == nil {
		return false
	}
	return c.keys.Equal(k, query)
}

func (c handleComparer[K]) hash(h *weakHandle[K]) uint64 {
	return h.hash
}
