// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides file helpers shared by the timetracker stores.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - AtomicWriteLines: AtomicWriteFile for newline-terminated text records
//   - ReadLines: Read a text file as a slice of lines
//
// Locking:
//   - LockFile: Advisory shared/exclusive lock on a sidecar lock file
//
// # Usage
//
//	// Hold the log lock while compacting it
//	lock, err := util.LockFile(logPath+".lock", true)
//	if err != nil {
//	    return err
//	}
//	defer lock.Unlock()
//
//	err = util.AtomicWriteLines(logPath, lines, 0644)
package util
