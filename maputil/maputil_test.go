// maputil_test.go: tests for plain-map helpers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package maputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOrAdd(t *testing.T) {
	m := map[string]int{"x": 1}
	calls := 0
	factory := func(k string) int {
		calls++
		return len(k) * 10
	}

	assert.Equal(t, 1, GetOrAdd(m, "x", factory))
	assert.Equal(t, 0, calls)

	assert.Equal(t, 30, GetOrAdd(m, "abc", factory))
	assert.Equal(t, 30, GetOrAdd(m, "abc", factory))
	assert.Equal(t, 1, calls)
	assert.Equal(t, map[string]int{"x": 1, "abc": 30}, m)
}

func TestAddOrUpdate(t *testing.T) {
	m := map[string]int{}
	inc := func(_ string, old int) int { return old + 1 }

	assert.Equal(t, 1, AddOrUpdate(m, "hits", 1, inc))
	assert.Equal(t, 2, AddOrUpdate(m, "hits", 1, inc))
	assert.Equal(t, 3, AddOrUpdate(m, "hits", 1, inc))
	assert.Equal(t, 3, m["hits"])
}

func TestTryAdd(t *testing.T) {
	type counters map[int]string
	m := counters{}

	assert.True(t, TryAdd(m, 1, "one"))
	assert.False(t, TryAdd(m, 1, "uno"))
	assert.Equal(t, "one", m[1])
}
