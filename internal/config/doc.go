// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for timetracker.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation. The loaded Config is passed
// explicitly to the stores, the tracker and the daemon; there is no global
// instance.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - TrackerConfig: Session gap and project matching rules
//   - StoreConfig: Event log backend and file locations
//   - DaemonConfig: Filesystem monitoring behaviour
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TIMETRACKER_*)
//   - <dir>/config.toml
//   - <dir>/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.EnsureLayout(); err != nil {
//	    log.Fatal(err)
//	}
//	gap := cfg.MinSessionGap()
package config
