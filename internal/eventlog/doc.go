// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package eventlog provides the append-only event log for timetracker.
//
// The log holds two kinds of text lines: raw filesystem events written by
// the daemon, and per-project summaries written back by a stats pass after
// the raw events have been folded in.
//
// # Key Types
//
//   - Store: Append / ReadAll / ReplaceAll contract used by the daemon and tracker
//   - FileStore: Plain text log guarded by an advisory lock file
//   - SQLiteStore: The same contract on a single-table SQLite database
//   - RawEvent: One observed change, "(timestamp, path)"
//
// # Line Format
//
//	1354972800 /home/user/project/main.go     raw event
//	saved 12 1354972800 /home/user/project    summary
//
// # Usage
//
//	store, err := eventlog.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	err = store.Append(eventlog.NewRawEvent(time.Now(), path))
package eventlog
