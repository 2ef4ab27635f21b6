// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watchlist manages the ordered list of watched project paths.
//
// The list is persisted one absolute path per line. Entries keep the order
// in which they were added, so the index printed by List stays valid for a
// following RemoveAt across invocations.
package watchlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Bystroushaak/Timetracker/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrPathNotFound is returned by Add when the path does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrIndexOutOfRange is returned by RemoveAt for an invalid index.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// =============================================================================
// WATCHLIST
// =============================================================================

// Watchlist is an ordered sequence of unique project paths.
type Watchlist struct {
	path    string
	entries []string
}

// Load reads the watchlist file. Blank lines are dropped and duplicates
// collapse to their first occurrence. A missing file is an empty list.
func Load(path string) (*Watchlist, error) {
	w := &Watchlist{path: path}

	lines, err := util.ReadLines(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read watchlist: %w", err)
	}

	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		entry := strings.TrimSpace(line)
		if entry == "" || seen[entry] {
			continue
		}
		seen[entry] = true
		w.entries = append(w.entries, entry)
	}

	return w, nil
}

// Path returns the backing file path.
func (w *Watchlist) Path() string {
	return w.path
}

// List returns a copy of the entries in their stable order.
func (w *Watchlist) List() []string {
	return append([]string(nil), w.entries...)
}

// Len returns the number of entries.
func (w *Watchlist) Len() int {
	return len(w.entries)
}

// Contains reports whether project is on the list.
func (w *Watchlist) Contains(project string) bool {
	return w.indexOf(project) >= 0
}

func (w *Watchlist) indexOf(project string) int {
	for i, e := range w.entries {
		if e == project {
			return i
		}
	}
	return -1
}

// Add resolves path (expanding "~", making it absolute and cleaning it),
// checks that it exists and appends it. Adding an entry that is already
// present is a no-op. The resolved path is returned in both cases; on
// ErrPathNotFound it is returned too so callers can report it.
func (w *Watchlist) Add(path string) (string, error) {
	resolved, err := Resolve(path)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(resolved); err != nil {
		if os.IsNotExist(err) {
			return resolved, fmt.Errorf("%w: %s", ErrPathNotFound, resolved)
		}
		return resolved, fmt.Errorf("failed to stat %s: %w", resolved, err)
	}

	if w.Contains(resolved) {
		return resolved, nil
	}

	w.entries = append(w.entries, resolved)
	if err := w.Save(); err != nil {
		w.entries = w.entries[:len(w.entries)-1]
		return resolved, err
	}
	return resolved, nil
}

// RemoveAt deletes the entry at index and persists the list.
func (w *Watchlist) RemoveAt(index int) (string, error) {
	if index < 0 || index >= len(w.entries) {
		return "", fmt.Errorf("%w: %d (watchlist has %d entries)", ErrIndexOutOfRange, index, len(w.entries))
	}

	removed := w.entries[index]
	previous := w.List()
	w.entries = append(w.entries[:index], w.entries[index+1:]...)
	if err := w.Save(); err != nil {
		w.entries = previous
		return "", err
	}
	return removed, nil
}

// Save atomically rewrites the watchlist file.
func (w *Watchlist) Save() error {
	if err := util.AtomicWriteLines(w.path, w.entries, 0644); err != nil {
		return fmt.Errorf("failed to save watchlist: %w", err)
	}
	return nil
}

// Resolve turns a user-supplied path into the canonical form stored on the
// watchlist: home-expanded, absolute, cleaned and NFC-normalised.
func Resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathNotFound)
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return norm.NFC.String(abs), nil
}
