// weakdict.go: version and package constants
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package weakdict

import "time"

const (
	// Version of the weakdict library
	Version = "v0.1.0-dev"

	// DefaultInitialCapacity is the default sizing hint for new dictionaries
	DefaultInitialCapacity = 16

	// MinPurgeInterval is the smallest accepted background purge interval
	MinPurgeInterval = 10 * time.Millisecond
)
