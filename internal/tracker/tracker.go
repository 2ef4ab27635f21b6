// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tracker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Bystroushaak/Timetracker/internal/config"
	"github.com/Bystroushaak/Timetracker/internal/eventlog"
)

// =============================================================================
// REPORT
// =============================================================================

// ReportEntry is the estimate for one watched project.
type ReportEntry struct {
	Project  string `json:"project"`
	Sessions int    `json:"sessions"`
	LastSeen int64  `json:"last_seen"`
	Seconds  int64  `json:"seconds"`
}

// Duration returns the estimate as a time.Duration.
func (e ReportEntry) Duration() time.Duration {
	return time.Duration(e.Seconds) * time.Second
}

// Report is the result of a stats pass.
type Report struct {
	Entries     []ReportEntry `json:"projects"`
	GapSeconds  int64         `json:"gap_seconds"`
	Events      int           `json:"events_folded"`
	Skipped     int           `json:"corrupt_lines_skipped"`
	Orphans     int           `json:"orphan_summaries"`
	Compacted   bool          `json:"compacted"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// TotalSeconds sums the estimate over every project.
func (r *Report) TotalSeconds() int64 {
	var total int64
	for _, e := range r.Entries {
		total += e.Seconds
	}
	return total
}

// =============================================================================
// TRACKER
// =============================================================================

// Tracker runs stats passes against an event log store.
type Tracker struct {
	store         eventlog.Store
	agg           *Aggregator
	retainOrphans bool
	now           func() time.Time
}

// New creates a Tracker for store using cfg's tracker settings.
func New(cfg *config.Config, store eventlog.Store) *Tracker {
	return &Tracker{
		store:         store,
		agg:           NewAggregator(cfg.Tracker),
		retainOrphans: cfg.Tracker.RetainOrphans,
		now:           time.Now,
	}
}

// Aggregator returns the aggregator used by the tracker.
func (t *Tracker) Aggregator() *Aggregator {
	return t.agg
}

// Stats reads the whole log, computes per-project estimates for projects,
// and compacts the log so only summary lines remain.
//
// When the store supports transactions the read and the rewrite happen under
// one lock, so events appended by a running daemon are never lost.
func (t *Tracker) Stats(ctx context.Context, projects []string) (*Report, error) {
	return t.run(ctx, projects, true)
}

// Peek computes the same report as Stats without rewriting the log.
func (t *Tracker) Peek(ctx context.Context, projects []string) (*Report, error) {
	return t.run(ctx, projects, false)
}

func (t *Tracker) run(ctx context.Context, projects []string, compact bool) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var res *Result
	fold := func(lines []string) ([]string, error) {
		res = t.agg.Analyze(projects, lines)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Compact(res, t.retainOrphans), nil
	}

	switch tx, ok := t.store.(eventlog.Transactional); {
	case !compact:
		lines, err := t.store.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read event log: %w", err)
		}
		if _, err := fold(lines); err != nil {
			return nil, err
		}

	case ok:
		if err := tx.Transaction(fold); err != nil {
			return nil, fmt.Errorf("failed to compact event log: %w", err)
		}

	default:
		lines, err := t.store.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read event log: %w", err)
		}
		compacted, err := fold(lines)
		if err != nil {
			return nil, err
		}
		if err := t.store.ReplaceAll(compacted); err != nil {
			return nil, fmt.Errorf("failed to compact event log: %w", err)
		}
	}

	if compact {
		log.Printf("LOG_COMPACTED | projects=%d events=%d skipped=%d orphans=%d",
			len(res.Projects), res.Events, res.Skipped, len(res.Orphans))
	}

	return t.report(res, compact), nil
}

func (t *Tracker) report(res *Result, compacted bool) *Report {
	r := &Report{
		Entries:     make([]ReportEntry, 0, len(res.Projects)),
		GapSeconds:  t.agg.Gap,
		Events:      res.Events,
		Skipped:     res.Skipped,
		Orphans:     len(res.Orphans),
		Compacted:   compacted,
		GeneratedAt: t.now(),
	}
	for _, s := range res.Ordered() {
		r.Entries = append(r.Entries, ReportEntry{
			Project:  s.Project,
			Sessions: s.Count,
			LastSeen: s.LastSeen,
			Seconds:  s.Seconds(t.agg.Gap),
		})
	}
	return r
}
