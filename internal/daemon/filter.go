// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package daemon

import (
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// PATH FILTER
// =============================================================================

// Filter decides which changed paths are dropped before they reach the log.
// It combines name patterns (editor swap files, VCS directories) with the
// tracker's own state: appending to the log must never produce an event
// that appends again.
type Filter struct {
	patterns []string
	subtrees []string // dropped together with everything below them
	files    []string // dropped together with same-directory siblings named after them
}

// NewFilter builds a filter. Each exclude path that is an existing directory
// drops its whole subtree; any other path drops the file itself plus its
// lock, journal and temporary siblings (watchlog.txt.lock, watchlog.db-wal,
// .tmp-watchlog.txt-123).
func NewFilter(patterns []string, exclude ...string) Filter {
	f := Filter{patterns: patterns}
	for _, p := range exclude {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		p = filepath.Clean(p)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			f.subtrees = append(f.subtrees, p)
		} else {
			f.files = append(f.files, p)
		}
	}
	return f
}

// Skip reports whether events for path should be dropped.
func (f Filter) Skip(path string) bool {
	return f.excluded(path) || f.matchPattern(path)
}

// matchPattern reports whether any component of path matches a pattern.
func (f Filter) matchPattern(path string) bool {
	if len(f.patterns) == 0 {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" {
			continue
		}
		for _, pattern := range f.patterns {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}

func (f Filter) excluded(path string) bool {
	path = filepath.Clean(path)
	for _, dir := range f.subtrees {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	dir, name := filepath.Split(path)
	for _, file := range f.files {
		fileDir, fileName := filepath.Split(file)
		if dir != fileDir {
			continue
		}
		if strings.HasPrefix(name, fileName) || strings.HasPrefix(name, ".tmp-"+fileName) {
			return true
		}
	}
	return false
}
