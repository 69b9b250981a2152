// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package churn

import (
	"context"
	"testing"
	"time"

	"github.com/bemobolo/weakdict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vawter.tech/stopper"
)

func newStopper(t *testing.T) *stopper.Context {
	t.Helper()
	ctx := stopper.WithContext(context.Background())
	t.Cleanup(func() { ctx.Stop(10 * time.Millisecond) })
	return ctx
}

func TestRunConverges(t *testing.T) {
	r := require.New(t)
	a := assert.New(t)

	report, err := Run(newStopper(t), Options{
		Workers: 4,
		Keys:    250,
		Retain:  0.2,
		Purge:   true,
		Timeout: 10 * time.Second,
	})
	r.NoError(err)
	a.Equal(1000, report.Inserted)
	a.True(report.Converged)
	a.Equal(report.Retained, report.Remaining)
	a.Equal(uint64(report.Inserted-report.Retained), report.Stats.Evictions+report.Stats.Purged)
	a.Positive(report.GCCycles)
}

func TestRunRetainAll(t *testing.T) {
	report, err := Run(newStopper(t), Options{
		Workers: 2,
		Keys:    50,
		Retain:  1,
		Timeout: time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, report.Retained)
	assert.Equal(t, 100, report.Remaining)
	assert.True(t, report.Converged)
}

func TestRunInvalidOptions(t *testing.T) {
	tcs := []struct {
		name string
		opts Options
	}{
		{"workers", Options{Workers: 0, Keys: 1}},
		{"keys", Options{Workers: 1, Keys: 0}},
		{"retain-low", Options{Workers: 1, Keys: 1, Retain: -0.1}},
		{"retain-high", Options{Workers: 1, Keys: 1, Retain: 1.5}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Run(newStopper(t), tc.opts)
			require.Error(t, err)
			assert.Equal(t, weakdict.ErrCodeInvalidConfig, weakdict.GetErrorCode(err))
		})
	}
}
