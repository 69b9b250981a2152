// hot-reload.go: dynamic configuration with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package weakdict

import (
	"sync"
	"time"

	"github.com/agilira/argus"
)

// PurgeTuner is the part of a Dictionary that hot reload can adjust.
// Every *Dictionary[K, V] implements it.
type PurgeTuner interface {
	SetPurgeInterval(interval time.Duration)
	PurgeInterval() time.Duration
}

// HotConfig provides dynamic configuration reload capabilities using Argus.
// It watches a configuration file and applies supported changes to a
// running dictionary.
type HotConfig struct {
	target  PurgeTuner
	watcher *argus.Watcher
	logger  Logger
	mu      sync.RWMutex
	config  Config

	// OnReload is called after configuration is successfully reloaded.
	// This callback is optional and must be fast and non-blocking.
	OnReload func(oldConfig, newConfig Config)
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after configuration is successfully reloaded.
	OnReload func(oldConfig, newConfig Config)

	// Logger for hot reload operations.
	// If nil, uses the target's logger when it exposes one.
	Logger Logger
}

// NewHotConfig creates a new hot-reloadable configuration for a dictionary.
// Call Start to begin watching.
//
// Example configuration file (YAML):
//
//	weakdict:
//	  purge_interval: "30s"
//	  initial_capacity: 1024
//
// Supported configuration keys:
//   - weakdict.purge_interval (duration string): background purge interval, "0s" disables it
//   - weakdict.initial_capacity (int): sizing hint, only used by dictionaries
//     created from GetConfig afterwards
func NewHotConfig(target PurgeTuner, opts HotConfigOptions) (*HotConfig, error) {
	if target == nil {
		return nil, NewErrInvalidConfig("target", "is required")
	}
	if opts.ConfigPath == "" {
		return nil, NewErrInvalidConfig("config_path", "is required")
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}

	if opts.Logger == nil {
		if lg, ok := target.(interface{ Logger() Logger }); ok {
			opts.Logger = lg.Logger()
		} else {
			opts.Logger = NoOpLogger{}
		}
	}

	config := DefaultConfig()
	config.PurgeInterval = target.PurgeInterval()

	hc := &HotConfig{
		target:   target,
		logger:   opts.Logger,
		OnReload: opts.OnReload,
		config:   config,
	}

	argusConfig := argus.Config{
		PollInterval: opts.PollInterval,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher

	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *HotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error {
	return hc.watcher.Stop()
}

// GetConfig returns the current configuration (thread-safe).
func (hc *HotConfig) GetConfig() Config {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.config
}

// handleConfigChange is called by Argus when configuration changes.
func (hc *HotConfig) handleConfigChange(configData map[string]interface{}) {
	hc.mu.Lock()
	oldConfig := hc.config
	newConfig := hc.parseConfig(configData)
	hc.config = newConfig
	hc.mu.Unlock()

	hc.applyChanges(oldConfig, newConfig)

	if hc.OnReload != nil {
		hc.OnReload(oldConfig, newConfig)
	}
}

// parsePositiveInt extracts a positive integer from interface{} value.
// Supports both int and float64 types (YAML/JSON may vary).
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// parseDuration extracts a non-negative time.Duration from a string value.
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil && d >= 0 {
			return d, true
		}
	}
	return 0, false
}

// parseConfig extracts dictionary configuration from Argus config data.
// Missing or invalid keys keep their current values. Caller holds hc.mu.
func (hc *HotConfig) parseConfig(data map[string]interface{}) Config {
	config := hc.config

	section, ok := data["weakdict"].(map[string]interface{})
	if !ok {
		// The whole document may be the section itself.
		_, hasPurge := data["purge_interval"]
		_, hasCapacity := data["initial_capacity"]
		if !hasPurge && !hasCapacity {
			return config
		}
		section = data
	}

	if interval, ok := parseDuration(section["purge_interval"]); ok {
		config.PurgeInterval = normalizePurgeInterval(interval)
	}

	if capacity, ok := parsePositiveInt(section["initial_capacity"]); ok {
		config.InitialCapacity = capacity
	}

	return config
}

// applyChanges pushes the changes a running dictionary can absorb. Only the
// purge interval is live; InitialCapacity matters at construction only.
func (hc *HotConfig) applyChanges(old, new Config) {
	if old.PurgeInterval != new.PurgeInterval {
		hc.target.SetPurgeInterval(new.PurgeInterval)
	}
	if old.InitialCapacity != new.InitialCapacity {
		hc.logger.Debug("initial capacity changed, applies to new dictionaries only",
			"initial_capacity", new.InitialCapacity)
	}
}
