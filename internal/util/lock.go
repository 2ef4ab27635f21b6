// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"os"
)

// =============================================================================
// ADVISORY FILE LOCK
// =============================================================================

// FileLock is an advisory lock held on a dedicated lock file.
//
// The lock lives on a sidecar file rather than the data file itself because
// AtomicWriteFile replaces the data file's inode on every rewrite.
type FileLock struct {
	f         *os.File
	exclusive bool
}

// LockFile opens (creating if needed) the lock file at path and blocks until
// a shared or exclusive lock is acquired.
func LockFile(path string, exclusive bool) (*FileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := lockFD(f, exclusive); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return &FileLock{f: f, exclusive: exclusive}, nil
}

// Exclusive reports whether the lock was taken in exclusive mode.
func (l *FileLock) Exclusive() bool {
	return l.exclusive
}

// Unlock releases the lock and closes the lock file. Safe to call twice.
func (l *FileLock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlockFD(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
