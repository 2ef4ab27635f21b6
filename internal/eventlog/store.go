// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package eventlog

import (
	"errors"
	"fmt"

	"github.com/Bystroushaak/Timetracker/internal/config"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrIOFailure wraps every storage read/write failure.
	ErrIOFailure = errors.New("event log I/O failure")
	// ErrInvalidEvent is returned by Append for events that cannot be encoded.
	ErrInvalidEvent = errors.New("invalid event")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("event log closed")
)

func ioFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrIOFailure, op, err)
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the durable holding area for raw events and project summaries.
type Store interface {
	// Append adds one raw event. It is visible to the next ReadAll,
	// including one made by a later process.
	Append(ev RawEvent) error

	// ReadAll returns every stored line, raw events and summaries alike,
	// in storage order.
	ReadAll() ([]string, error)

	// ReplaceAll atomically overwrites the stored content with lines.
	ReplaceAll(lines []string) error

	// Close releases resources held by the store.
	Close() error
}

// Open returns the Store selected by cfg.Store.Backend. The caller must have
// run cfg.EnsureLayout so the parent directories exist.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		return OpenSQLite(cfg.SQLitePath())
	case config.BackendFile, "":
		return NewFileStore(cfg.LogPath()), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// Transactional is implemented by stores that can hold their write lock
// across a read-modify-write. Both FileStore and SQLiteStore implement it.
type Transactional interface {
	Transaction(fn func(lines []string) ([]string, error)) error
}

var (
	_ Store         = (*FileStore)(nil)
	_ Store         = (*SQLiteStore)(nil)
	_ Transactional = (*FileStore)(nil)
	_ Transactional = (*SQLiteStore)(nil)
)
