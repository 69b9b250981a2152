// hot-reload_test.go: tests for dynamic configuration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package weakdict

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("Failed to rename config: %v", err)
	}
}

// TestNewHotConfig tests HotConfig creation
func TestNewHotConfig(t *testing.T) {
	dict := New[testKey, int](DefaultConfig())
	configPath := filepath.Join(t.TempDir(), "weakdict.yaml")
	writeConfig(t, configPath, "weakdict:\n  purge_interval: 1s\n")

	hc, err := NewHotConfig(dict, HotConfigOptions{
		ConfigPath:   configPath,
		PollInterval: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewHotConfig failed: %v", err)
	}
	defer func() { _ = hc.Stop() }()

	if hc.target != dict {
		t.Error("HotConfig target reference mismatch")
	}
	if hc.watcher == nil {
		t.Error("Expected non-nil watcher")
	}
	if hc.logger != dict.Logger() {
		t.Error("HotConfig did not inherit the dictionary logger")
	}
}

func TestNewHotConfig_InvalidOptions(t *testing.T) {
	dict := New[testKey, int](DefaultConfig())

	_, err := NewHotConfig(dict, HotConfigOptions{ConfigPath: ""})
	if GetErrorCode(err) != ErrCodeInvalidConfig {
		t.Errorf("empty path: expected %s, got %v", ErrCodeInvalidConfig, err)
	}

	_, err = NewHotConfig(nil, HotConfigOptions{ConfigPath: "weakdict.yaml"})
	if GetErrorCode(err) != ErrCodeInvalidConfig {
		t.Errorf("nil target: expected %s, got %v", ErrCodeInvalidConfig, err)
	}
}

// TestHotConfig_Reload tests that a changed purge interval reaches the
// running dictionary.
func TestHotConfig_Reload(t *testing.T) {
	dict := New[testKey, int](DefaultConfig())
	defer func() { _ = dict.Close() }()

	configPath := filepath.Join(t.TempDir(), "weakdict.yaml")
	writeConfig(t, configPath, "weakdict:\n  purge_interval: 50ms\n  initial_capacity: 64\n")

	var mu sync.Mutex
	reloads := 0
	reloadCh := make(chan Config, 4)

	hc, err := NewHotConfig(dict, HotConfigOptions{
		ConfigPath:   configPath,
		PollInterval: 50 * time.Millisecond,
		OnReload: func(oldConfig, newConfig Config) {
			mu.Lock()
			reloads++
			mu.Unlock()
			select {
			case reloadCh <- newConfig:
			default:
			}
		},
	})
	if err != nil {
		t.Fatalf("NewHotConfig failed: %v", err)
	}
	defer func() { _ = hc.Stop() }()

	if err := hc.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case cfg := <-reloadCh:
		if cfg.PurgeInterval != 50*time.Millisecond || cfg.InitialCapacity != 64 {
			t.Fatalf("initial config wrong: %v / %d", cfg.PurgeInterval, cfg.InitialCapacity)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for initial config load")
	}
	if got := dict.PurgeInterval(); got != 50*time.Millisecond {
		t.Errorf("dictionary PurgeInterval = %v, want 50ms", got)
	}

	// Many filesystems have 1-second mtime granularity.
	time.Sleep(1500 * time.Millisecond)
	writeConfig(t, configPath, "weakdict:\n  purge_interval: 0s\n")

	select {
	case cfg := <-reloadCh:
		if cfg.PurgeInterval != 0 {
			t.Errorf("PurgeInterval = %v, want 0", cfg.PurgeInterval)
		}
	case <-time.After(3 * time.Second):
		mu.Lock()
		defer mu.Unlock()
		t.Fatalf("Timeout waiting for config reload, reloads=%d", reloads)
	}
	if got := dict.PurgeInterval(); got != 0 {
		t.Errorf("dictionary PurgeInterval = %v after disabling, want 0", got)
	}
	if got := hc.GetConfig().PurgeInterval; got != 0 {
		t.Errorf("GetConfig().PurgeInterval = %v, want 0", got)
	}
}

// fakeTuner records purge interval changes.
type fakeTuner struct {
	mu        sync.Mutex
	interval  time.Duration
	setCalled int
}

func (f *fakeTuner) SetPurgeInterval(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interval = d
	f.setCalled++
}

func (f *fakeTuner) PurgeInterval() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval
}

func TestHotConfig_ParseConfig(t *testing.T) {
	hc := &HotConfig{target: &fakeTuner{}, logger: NoOpLogger{}, config: DefaultConfig()}

	tests := []struct {
		name         string
		data         map[string]interface{}
		wantInterval time.Duration
		wantCapacity int
	}{
		{
			name: "section",
			data: map[string]interface{}{
				"weakdict": map[string]interface{}{"purge_interval": "2s", "initial_capacity": 128},
			},
			wantInterval: 2 * time.Second,
			wantCapacity: 128,
		},
		{
			name:         "top level",
			data:         map[string]interface{}{"purge_interval": "1m", "initial_capacity": float64(32)},
			wantInterval: time.Minute,
			wantCapacity: 32,
		},
		{
			name:         "below minimum",
			data:         map[string]interface{}{"purge_interval": "1ns"},
			wantInterval: MinPurgeInterval,
			wantCapacity: DefaultInitialCapacity,
		},
		{
			name:         "invalid values keep defaults",
			data:         map[string]interface{}{"purge_interval": "-5s", "initial_capacity": -1},
			wantInterval: 0,
			wantCapacity: DefaultInitialCapacity,
		},
		{
			name:         "unrelated document",
			data:         map[string]interface{}{"cache": map[string]interface{}{"max_size": 10}},
			wantInterval: 0,
			wantCapacity: DefaultInitialCapacity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := hc.parseConfig(tt.data)
			if cfg.PurgeInterval != tt.wantInterval {
				t.Errorf("PurgeInterval = %v, want %v", cfg.PurgeInterval, tt.wantInterval)
			}
			if cfg.InitialCapacity != tt.wantCapacity {
				t.Errorf("InitialCapacity = %d, want %d", cfg.InitialCapacity, tt.wantCapacity)
			}
		})
	}
}

func TestHotConfig_HandleConfigChange(t *testing.T) {
	tuner := &fakeTuner{}
	hc := &HotConfig{target: tuner, logger: NoOpLogger{}, config: DefaultConfig()}

	var got []Config
	hc.OnReload = func(_, newConfig Config) { got = append(got, newConfig) }

	hc.handleConfigChange(map[string]interface{}{"purge_interval": "3s"})
	hc.handleConfigChange(map[string]interface{}{"purge_interval": "3s", "initial_capacity": 10})

	if tuner.setCalled != 1 {
		t.Errorf("SetPurgeInterval called %d times, want 1", tuner.setCalled)
	}
	if tuner.PurgeInterval() != 3*time.Second {
		t.Errorf("tuner interval = %v, want 3s", tuner.PurgeInterval())
	}
	if len(got) != 2 || got[1].InitialCapacity != 10 {
		t.Errorf("OnReload saw %+v", got)
	}
}

// TestHotConfig_PartialReloadKeepsCurrentValues verifies that keys missing
// from a reloaded file keep their running values.
func TestHotConfig_PartialReloadKeepsCurrentValues(t *testing.T) {
	tuner := &fakeTuner{interval: 5 * time.Second}
	current := DefaultConfig()
	current.PurgeInterval = 5 * time.Second
	hc := &HotConfig{target: tuner, logger: NoOpLogger{}, config: current}

	hc.handleConfigChange(map[string]interface{}{
		"weakdict": map[string]interface{}{"initial_capacity": 256},
	})

	cfg := hc.GetConfig()
	if cfg.PurgeInterval != 5*time.Second {
		t.Errorf("PurgeInterval = %v, want 5s", cfg.PurgeInterval)
	}
	if cfg.InitialCapacity != 256 {
		t.Errorf("InitialCapacity = %d, want 256", cfg.InitialCapacity)
	}
	if tuner.setCalled != 0 {
		t.Errorf("SetPurgeInterval called %d times, want 0", tuner.setCalled)
	}
	if tuner.PurgeInterval() != 5*time.Second {
		t.Errorf("purger interval = %v, want 5s", tuner.PurgeInterval())
	}

	// A document without the section leaves everything as it was.
	hc.handleConfigChange(map[string]interface{}{"other": true})
	if got := hc.GetConfig(); got.PurgeInterval != 5*time.Second || got.InitialCapacity != 256 {
		t.Errorf("unrelated reload changed config: %v / %d", got.PurgeInterval, got.InitialCapacity)
	}
}
