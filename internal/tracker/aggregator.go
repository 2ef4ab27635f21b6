// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tracker

import (
	"log"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Bystroushaak/Timetracker/internal/config"
)

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator counts working sessions per project. It holds no state between
// calls to Analyze and never touches storage.
type Aggregator struct {
	// Gap is the minimum idle gap in seconds before a new session is counted
	Gap int64
	// StrictBoundary makes /home/proj2 stop matching a watched /home/proj
	StrictBoundary bool
}

// NewAggregator builds an Aggregator from the tracker configuration.
func NewAggregator(cfg config.TrackerConfig) *Aggregator {
	gap := cfg.MinSessionGapSecs
	if gap <= 0 {
		gap = config.DefaultMinSessionGap
	}
	return &Aggregator{
		Gap:            gap,
		StrictBoundary: cfg.StrictBoundary,
	}
}

// Result is the outcome of one Analyze call.
type Result struct {
	// Projects lists the watched projects in watchlist order, duplicates removed
	Projects []string
	// Summaries has exactly one entry per watched project
	Summaries map[string]ProjectSummary
	// Orphans are summaries read from the log for projects no longer watched,
	// in order of first appearance, last value winning
	Orphans []ProjectSummary
	// Events is the number of raw event lines read
	Events int
	// Skipped is the number of corrupt lines ignored
	Skipped int
}

// Ordered returns the watched summaries in watchlist order.
func (r *Result) Ordered() []ProjectSummary {
	out := make([]ProjectSummary, 0, len(r.Projects))
	for _, p := range r.Projects {
		out = append(out, r.Summaries[p])
	}
	return out
}

// Analyze folds lines into a summary for every project in watchlist.
//
// Each project starts at {0, 0} or at its last "saved" line. Raw events are
// then scanned in log order; an event under the project whose timestamp is
// more than Gap seconds away from the project's last counted event starts a
// new session and becomes the new last-seen time. Events inside the gap are
// absorbed without moving last-seen, so a burst of saves counts once. The
// first event of a project that was never seen always opens a session.
//
// Corrupt lines are skipped and counted in Result.Skipped.
func (a *Aggregator) Analyze(watchlist []string, lines []string) *Result {
	res := &Result{
		Summaries: make(map[string]ProjectSummary, len(watchlist)),
	}

	for _, project := range watchlist {
		if _, seen := res.Summaries[project]; seen || project == "" {
			continue
		}
		res.Projects = append(res.Projects, project)
		res.Summaries[project] = ProjectSummary{Project: project}
	}

	var events []eventMatch
	orphanIndex := make(map[string]int)

	for i, raw := range lines {
		line, err := ParseLine(raw)
		if err != nil {
			res.Skipped++
			log.Printf("CORRUPT_LOG_ENTRY | line=%d kind=%s error=%v", i+1, line.Kind, err)
			continue
		}

		switch line.Kind {
		case LineSummary:
			s := line.Summary
			if _, watched := res.Summaries[s.Project]; watched {
				res.Summaries[s.Project] = s
				continue
			}
			if idx, ok := orphanIndex[s.Project]; ok {
				res.Orphans[idx] = s
			} else {
				orphanIndex[s.Project] = len(res.Orphans)
				res.Orphans = append(res.Orphans, s)
			}

		case LineEvent:
			res.Events++
			events = append(events, eventMatch{
				ts:   line.Event.Timestamp,
				path: norm.NFC.String(line.Event.Path),
			})
		}
	}

	for _, project := range res.Projects {
		s := res.Summaries[project]
		prefix := norm.NFC.String(project)
		for _, ev := range events {
			if !a.matches(prefix, ev.path) {
				continue
			}
			if s.neverSeen() || abs(ev.ts-s.LastSeen) > a.Gap {
				s.Count++
				s.LastSeen = ev.ts
			}
		}
		res.Summaries[project] = s
	}

	return res
}

type eventMatch struct {
	ts   int64
	path string
}

// matches reports whether an event path belongs to project. Without
// StrictBoundary this is a plain string prefix test.
func (a *Aggregator) matches(project, path string) bool {
	if !strings.HasPrefix(path, project) {
		return false
	}
	if !a.StrictBoundary || len(path) == len(project) {
		return true
	}
	if isSeparator(project[len(project)-1]) {
		return true
	}
	return isSeparator(path[len(project)])
}

func isSeparator(c byte) bool {
	return c == '/' || c == os.PathSeparator
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Compact renders the log content that replaces everything a pass consumed:
// one summary line per watched project in watchlist order, then the orphan
// summaries when retainOrphans is set.
func Compact(res *Result, retainOrphans bool) []string {
	lines := make([]string, 0, len(res.Projects)+len(res.Orphans))
	for _, s := range res.Ordered() {
		lines = append(lines, s.Line())
	}
	if retainOrphans {
		for _, s := range res.Orphans {
			lines = append(lines, s.Line())
		}
	}
	return lines
}
