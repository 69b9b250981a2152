// Package churn drives a shared Dictionary from many goroutines, drops most
// of the keys and measures how quickly the collector lets the dictionary
// shrink back to the retained set.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package churn

import (
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/bemobolo/weakdict"
	"vawter.tech/stopper"
)

// Key is the key type inserted by workers. It is large enough to get its own
// allocation, so each key is collected independently.
type Key struct {
	Worker int
	Seq    int
	pad    [48]byte
}

// Options controls a churn run.
type Options struct {
	// Workers is the number of concurrent inserting goroutines.
	Workers int
	// Keys is the number of keys each worker inserts.
	Keys int
	// Retain is the fraction of keys each worker keeps reachable.
	Retain float64
	// Purge calls Dictionary.Purge between collections instead of waiting
	// on runtime cleanups alone.
	Purge bool
	// Timeout bounds the convergence phase.
	Timeout time.Duration
	// Logger receives dictionary logs.
	Logger weakdict.Logger
}

// Report summarizes a churn run.
type Report struct {
	Inserted  int
	Retained  int
	Remaining int
	Stats     weakdict.Stats
	Converged bool
	GCCycles  int
	Insert    time.Duration
	Converge  time.Duration
}

// Run executes the churn workload within ctx.
func Run(ctx *stopper.Context, opts Options) (*Report, error) {
	if opts.Workers <= 0 {
		return nil, weakdict.NewErrInvalidConfig("workers", "must be positive")
	}
	if opts.Keys <= 0 {
		return nil, weakdict.NewErrInvalidConfig("keys", "must be positive")
	}
	if opts.Retain < 0 || opts.Retain > 1 {
		return nil, weakdict.NewErrInvalidConfig("retain", "must be between 0 and 1")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	dict := weakdict.New[Key, int](weakdict.Config{
		InitialCapacity: opts.Workers * opts.Keys,
		Logger:          opts.Logger,
	})
	defer dict.Close()

	results := make(chan []*Key, opts.Workers)
	start := time.Now()
	for w := range opts.Workers {
		ctx.Go(func(ctx *stopper.Context) error {
			var kept []*Key
			for i := range opts.Keys {
				if ctx.IsStopping() {
					break
				}
				k := &Key{Worker: w, Seq: i}
				if err := dict.Add(k, w*opts.Keys+i); err != nil {
					return err
				}
				if rand.Float64() < opts.Retain {
					kept = append(kept, k)
				}
			}
			results <- kept
			return nil
		})
	}

	var retained [][]*Key
	report := &Report{}
	for range opts.Workers {
		select {
		case kept := <-results:
			retained = append(retained, kept)
			report.Retained += len(kept)
		case <-ctx.Stopping():
			return nil, ctx.Err()
		}
	}
	report.Insert = time.Since(start)
	report.Inserted = int(dict.Stats().Adds)

	start = time.Now()
	deadline := start.Add(opts.Timeout)
	for {
		runtime.GC()
		report.GCCycles++
		if opts.Purge {
			dict.Purge()
		}
		if dict.Count() == report.Retained {
			report.Converged = true
			break
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-time.After(10 * time.Millisecond):
		case <-ctx.Stopping():
			return nil, ctx.Err()
		}
	}
	report.Converge = time.Since(start)
	report.Remaining = dict.Count()
	report.Stats = dict.Stats()

	runtime.KeepAlive(retained)
	return report, nil
}
