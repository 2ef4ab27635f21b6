// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for timetracker.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - <dir>/config.toml
//   - <dir>/config.json
//   - Built-in defaults
//
// where <dir> is $TIMETRACKER_HOME or ~/.timetracker.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Bystroushaak/Timetracker/internal/util"
)

// DefaultMinSessionGap is the idle gap, in seconds, that separates two
// working sessions. Each counted session is charged this many seconds.
const DefaultMinSessionGap = 5 * 60

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete timetracker configuration.
type Config struct {
	// Dir is the configuration directory holding the watchlist, the log and
	// the config file itself. Relative store paths are resolved against it.
	Dir string `toml:"-" json:"-"`

	// Tracker controls session aggregation
	Tracker TrackerConfig `toml:"tracker" json:"tracker"`

	// Store selects and locates the event log backend
	Store StoreConfig `toml:"store" json:"store"`

	// Daemon configures filesystem monitoring
	Daemon DaemonConfig `toml:"daemon" json:"daemon"`
}

// TrackerConfig contains aggregation settings.
type TrackerConfig struct {
	// MinSessionGapSecs is the minimum idle gap between events before a new
	// session is counted. Also the number of seconds charged per session.
	MinSessionGapSecs int64 `toml:"min_session_gap_secs" json:"min_session_gap_secs"`
	// StrictBoundary requires an event path to equal the project path or
	// continue it with a path separator, so /home/proj2 does not count
	// toward /home/proj. Off by default (plain prefix match).
	StrictBoundary bool `toml:"strict_boundary" json:"strict_boundary"`
	// RetainOrphans keeps summaries of projects no longer on the watchlist in
	// the compacted log, so re-adding a project restores its history.
	RetainOrphans bool `toml:"retain_orphans" json:"retain_orphans"`
}

// StoreConfig contains event log storage settings.
type StoreConfig struct {
	// Backend is "file" (plain text log) or "sqlite"
	Backend string `toml:"backend" json:"backend"`
	// WatchlistFile is the watchlist path (relative to Dir unless absolute)
	WatchlistFile string `toml:"watchlist_file" json:"watchlist_file"`
	// LogFile is the text log path (relative to Dir unless absolute)
	LogFile string `toml:"log_file" json:"log_file"`
	// SQLiteFile is the database path used by the sqlite backend
	SQLiteFile string `toml:"sqlite_file" json:"sqlite_file"`
}

// DaemonConfig contains filesystem monitoring settings.
type DaemonConfig struct {
	// MaxEventsPerSec caps how many events are appended per second (0 = unlimited).
	// Excess events are dropped; one event per session is enough to count it.
	MaxEventsPerSec float64 `toml:"max_events_per_sec" json:"max_events_per_sec"`
	// Burst is the rate limiter burst size
	Burst int `toml:"burst" json:"burst"`
	// PollIntervalSecs is the polling fallback interval when fsnotify is unavailable
	PollIntervalSecs int `toml:"poll_interval_secs" json:"poll_interval_secs"`
	// ForcePolling skips fsnotify entirely (network filesystems)
	ForcePolling bool `toml:"force_polling" json:"force_polling"`
	// IgnorePatterns are base-name glob patterns that are never watched or logged
	IgnorePatterns []string `toml:"ignore_patterns" json:"ignore_patterns"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Tracker: TrackerConfig{
			MinSessionGapSecs: DefaultMinSessionGap,
			StrictBoundary:    false,
			RetainOrphans:     true,
		},

		Store: StoreConfig{
			Backend:       BackendFile,
			WatchlistFile: "watchlist.txt",
			LogFile:       "watchlog.txt",
			SQLiteFile:    "watchlog.db",
		},

		Daemon: DaemonConfig{
			MaxEventsPerSec:  0, // unlimited
			Burst:            50,
			PollIntervalSecs: 5,
			ForcePolling:     false,
			IgnorePatterns: []string{
				".git", ".svn", ".hg",
				"*.swp", "*.swx", "*~", "4913", // editor scratch files
			},
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the timetracker configuration directory path.
// TIMETRACKER_HOME overrides the default ~/.timetracker.
func ConfigDir() (string, error) {
	if dir := os.Getenv("TIMETRACKER_HOME"); dir != "" {
		return filepath.Abs(expandHome(dir))
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".timetracker"), nil
}

// resolve joins name onto Dir unless it is already absolute.
func (c *Config) resolve(name string) string {
	name = expandHome(name)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// WatchlistPath returns the absolute watchlist file path.
func (c *Config) WatchlistPath() string { return c.resolve(c.Store.WatchlistFile) }

// LogPath returns the absolute text log path.
func (c *Config) LogPath() string { return c.resolve(c.Store.LogFile) }

// SQLitePath returns the absolute SQLite database path.
func (c *Config) SQLitePath() string { return c.resolve(c.Store.SQLiteFile) }

// StatePaths returns the directory and store files the tracker writes to.
// The daemon drops events for them so its own appends are never recorded.
func (c *Config) StatePaths() []string {
	return []string{c.Dir, c.WatchlistPath(), c.LogPath(), c.SQLitePath()}
}

// ConfigPathTOML returns the TOML config file path inside Dir.
func (c *Config) ConfigPathTOML() string { return filepath.Join(c.Dir, "config.toml") }

// ConfigPathJSON returns the JSON config file path inside Dir.
func (c *Config) ConfigPathJSON() string { return filepath.Join(c.Dir, "config.json") }

// MinSessionGap returns the session gap in seconds.
func (c *Config) MinSessionGap() int64 { return c.Tracker.MinSessionGapSecs }

// EnsureLayout creates the configuration directory and empty watchlist and
// log files when they are missing. Called once per invocation before any
// store is opened.
func (c *Config) EnsureLayout() error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	files := []string{c.WatchlistPath()}
	if c.Store.Backend == BackendFile {
		files = append(files, c.LogPath())
	}
	for _, path := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		f.Close()
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from dir (ConfigDir() when empty).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	cfg.Dir = dir

	for _, candidate := range []string{cfg.ConfigPathTOML(), cfg.ConfigPathJSON()} {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := decodeFile(cfg, candidate); err != nil {
			return nil, err
		}
		break
	}

	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file. The directory
// holding the file becomes Dir.
func LoadFromPath(path string) (*Config, error) {
	abs, err := filepath.Abs(expandHome(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	cfg := Default()
	cfg.Dir = filepath.Dir(abs)
	if err := decodeFile(cfg, abs); err != nil {
		return nil, err
	}

	return finish(cfg)
}

func decodeFile(cfg *Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read JSON config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode JSON config %s: %w", path, err)
		}
		return nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %v\n", path, undecoded)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Tracker.MinSessionGapSecs == 0 {
		c.Tracker.MinSessionGapSecs = defaults.Tracker.MinSessionGapSecs
	}
	if c.Store.Backend == "" {
		c.Store.Backend = defaults.Store.Backend
	}
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	if c.Store.WatchlistFile == "" {
		c.Store.WatchlistFile = defaults.Store.WatchlistFile
	}
	if c.Store.LogFile == "" {
		c.Store.LogFile = defaults.Store.LogFile
	}
	if c.Store.SQLiteFile == "" {
		c.Store.SQLiteFile = defaults.Store.SQLiteFile
	}
	if c.Daemon.Burst == 0 {
		c.Daemon.Burst = defaults.Daemon.Burst
	}
	if c.Daemon.PollIntervalSecs == 0 {
		c.Daemon.PollIntervalSecs = defaults.Daemon.PollIntervalSecs
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to <Dir>/config.toml.
func (c *Config) Save() error {
	return c.SaveTOML(c.ConfigPathTOML())
}

// SaveTOML writes the configuration to a TOML file atomically.
func (c *Config) SaveTOML(path string) error {
	var b strings.Builder
	b.WriteString("# timetracker configuration file\n\n")
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file atomically.
func (c *Config) SaveJSON(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Tracker.MinSessionGapSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "tracker.min_session_gap_secs",
			Message: fmt.Sprintf("must not be negative, got %d", c.Tracker.MinSessionGapSecs),
		})
	}

	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, ValidationError{
			Field:   "store.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite", c.Store.Backend),
		})
	}

	if c.Daemon.MaxEventsPerSec < 0 {
		errs = append(errs, ValidationError{
			Field:   "daemon.max_events_per_sec",
			Message: "must not be negative",
		})
	}
	if c.Daemon.Burst < 0 {
		errs = append(errs, ValidationError{
			Field:   "daemon.burst",
			Message: "must not be negative",
		})
	}
	if c.Daemon.PollIntervalSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "daemon.poll_interval_secs",
			Message: "must not be negative",
		})
	}
	for _, pattern := range c.Daemon.IgnorePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, ValidationError{
				Field:   "daemon.ignore_patterns",
				Message: fmt.Sprintf("invalid glob '%s': %v", pattern, err),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - TIMETRACKER_MIN_GAP: overrides tracker.min_session_gap_secs
//   - TIMETRACKER_STRICT_BOUNDARY: "1" or "true" enables strict boundary matching
//   - TIMETRACKER_STORE: overrides store.backend
//   - TIMETRACKER_FORCE_POLLING: "1" or "true" forces the polling watcher
//
// TIMETRACKER_HOME is read by ConfigDir, not here.
func (c *Config) ApplyEnvOverrides() {
	if gap := os.Getenv("TIMETRACKER_MIN_GAP"); gap != "" {
		if v, err := strconv.ParseInt(gap, 10, 64); err == nil {
			c.Tracker.MinSessionGapSecs = v
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring TIMETRACKER_MIN_GAP=%q: %v\n", gap, err)
		}
	}

	if strict := os.Getenv("TIMETRACKER_STRICT_BOUNDARY"); strict != "" {
		c.Tracker.StrictBoundary = parseBool(strict)
	}

	if backend := os.Getenv("TIMETRACKER_STORE"); backend != "" {
		c.Store.Backend = backend
	}

	if polling := os.Getenv("TIMETRACKER_FORCE_POLLING"); polling != "" {
		c.Daemon.ForcePolling = parseBool(polling)
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	var ve ValidateErrors
	return errors.As(err, &ve)
}
