// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tracker turns the raw event log into per-project time estimates.
//
// A project's time is approximated by counting working sessions: clusters of
// filesystem events separated from the previous counted event by more than
// the minimum session gap. Each session is charged a flat gap-sized block,
// so the estimate is Count * Gap seconds.
//
// # Key Types
//
//   - Aggregator: Pure session counting over a watchlist and a set of log lines
//   - ProjectSummary: Accumulated (count, last seen) state for one project
//   - Tracker: One stats pass against a Store, including log compaction
//   - Report: The human-facing estimate produced by a stats pass
//
// # Compaction
//
// A stats pass replaces every raw event with one "saved" summary line per
// project. The next pass starts from those summaries, so counts only grow and
// the log stays proportional to the number of projects.
//
// # Usage
//
//	t := tracker.New(cfg, store)
//	report, err := t.Stats(ctx, watchlist.List())
//	for _, e := range report.Entries {
//	    fmt.Printf("Aprox. %ds\t%s\n", e.Seconds, e.Project)
//	}
package tracker
