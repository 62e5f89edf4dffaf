// hot-reload.go: dynamic configuration with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// HotConfig watches a configuration file and applies tunable changes to a
// running Tracker as they land on disk. Only non-structural parameters can
// be hot-reloaded: Timeout, RefreshPeriod, and the load-factor thresholds.
// StartingRows/MinRows/MaxRows size an already-allocated table and are
// fixed for the tracker's lifetime.
type HotConfig struct {
	tracker Tracker
	watcher *argus.Watcher
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

	// Logger for hot reload operations. If nil, defaults to NoOpLogger.
	Logger Logger
}

// NewHotConfig creates a new hot-reloadable configuration for a tracker and
// starts watching the configuration file immediately.
//
// Example configuration file (YAML):
//
//	flowsession:
//	  timeout: "60s"
//	  refresh_period: "120s"
//	  hash_full_pct: 8.0
//	  scale_up_pct: 6.0
//	  scale_down_pct: 0.8
//
// Supported configuration keys:
//   - flowsession.timeout (duration string): drain window length
//   - flowsession.refresh_period (duration string): interval between refresh cycles
//   - flowsession.hash_full_pct (float): load-factor ceiling, percent
//   - flowsession.scale_up_pct (float): scale-up threshold, percent
//   - flowsession.scale_down_pct (float): scale-down threshold, percent
//
// tracker must expose updateTunables; only *tracker (as returned by New and
// NewStatic) does, so a HotConfig built around a caller-supplied Tracker
// implementation is rejected.
func NewHotConfig(t Tracker, opts HotConfigOptions) (*HotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}
	if _, ok := t.(*tracker); !ok {
		return nil, fmt.Errorf("flowsession: hot reload requires a tracker created by New or NewStatic")
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}

	hc := &HotConfig{
		tracker:  t,
		OnReload: opts.OnReload,
		config:   DefaultConfig(),
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

// GetConfig returns the last configuration applied (thread-safe).
func (hc *HotConfig) GetConfig() Config {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.config
}

// handleConfigChange is called by Argus when the watched file changes.
func (hc *HotConfig) handleConfigChange(configData map[string]interface{}) {
	hc.mu.Lock()
	oldConfig := hc.config
	newConfig := hc.parseConfig(configData)
	hc.config = newConfig
	hc.mu.Unlock()

	t := hc.tracker.(*tracker)
	t.updateTunables(newConfig.Timeout, newConfig.RefreshPeriod, newConfig.HashFullPct, newConfig.ScaleUpPct, newConfig.ScaleDownPct)

	if hc.OnReload != nil {
		hc.OnReload(oldConfig, newConfig)
	}
}

// parseDuration extracts a time.Duration from a string value.
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}

// parsePositiveFloat extracts a positive float64 from interface{} value.
// Supports both int and float64 types (YAML/JSON may vary).
func parsePositiveFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return v, true
		}
	case int:
		if v > 0 {
			return float64(v), true
		}
	}
	return 0, false
}

// parseConfig extracts flowsession tunables from Argus config data.
func (hc *HotConfig) parseConfig(data map[string]interface{}) Config {
	config := hc.config

	section, ok := data["flowsession"].(map[string]interface{})
	if !ok {
		if _, hasTimeout := data["timeout"]; hasTimeout {
			section = data
		} else {
			return config
		}
	}

	if timeout, ok := parseDuration(section["timeout"]); ok {
		config.Timeout = timeout
	}
	if period, ok := parseDuration(section["refresh_period"]); ok {
		config.RefreshPeriod = period
	}
	if pct, ok := parsePositiveFloat(section["hash_full_pct"]); ok {
		config.HashFullPct = pct
	}
	if pct, ok := parsePositiveFloat(section["scale_up_pct"]); ok {
		config.ScaleUpPct = pct
	}
	if pct, ok := parsePositiveFloat(section["scale_down_pct"]); ok {
		config.ScaleDownPct = pct
	}

	return config
}
