// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package daemon

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Bystroushaak/Timetracker/internal/config"
	"github.com/Bystroushaak/Timetracker/internal/eventlog"
)

// Counters summarises what a run did with the events it received.
type Counters struct {
	Received int64 `json:"received"`
	Appended int64 `json:"appended"`
	Dropped  int64 `json:"dropped"`
	Failed   int64 `json:"failed"`
}

// Daemon drains a Source into a Store. It is the only writer that appends
// raw events; compaction happens in the stats pass.
type Daemon struct {
	store   eventlog.Store
	source  Source
	limiter *rootLimiter
	runID   string
	logger  *log.Logger

	received atomic.Int64
	appended atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64
}

// New creates a daemon for the watched roots. A zero MaxEventsPerSec
// disables rate limiting; otherwise each root gets its own budget so a busy
// project cannot starve the first edit of a quiet one.
func New(cfg config.DaemonConfig, store eventlog.Store, source Source, roots ...string) *Daemon {
	runID := uuid.NewString()

	d := &Daemon{
		store:  store,
		source: source,
		runID:  runID,
		logger: log.New(os.Stderr, "[daemon "+runID[:8]+"] ", log.LstdFlags),
	}

	if cfg.MaxEventsPerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		d.limiter = newRootLimiter(rate.Limit(cfg.MaxEventsPerSec), burst, roots)
	}

	return d
}

// rootLimiter keeps one token bucket per watched root. Paths outside every
// root share the bucket keyed by "". Only the Run goroutine touches it.
type rootLimiter struct {
	limit   rate.Limit
	burst   int
	roots   []string // longest first so nested roots win
	buckets map[string]*rate.Limiter
}

func newRootLimiter(limit rate.Limit, burst int, roots []string) *rootLimiter {
	sorted := make([]string, 0, len(roots))
	for _, r := range roots {
		sorted = append(sorted, filepath.Clean(r))
	}
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	return &rootLimiter{
		limit:   limit,
		burst:   burst,
		roots:   sorted,
		buckets: make(map[string]*rate.Limiter),
	}
}

// rootOf returns the watched root containing path, or "".
func (l *rootLimiter) rootOf(path string) string {
	for _, root := range l.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root
		}
	}
	return ""
}

func (l *rootLimiter) Allow(path string) bool {
	root := l.rootOf(path)
	bucket, ok := l.buckets[root]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[root] = bucket
	}
	return bucket.Allow()
}

// RunID identifies this daemon run in logs.
func (d *Daemon) RunID() string { return d.runID }

// SetLogger replaces the run logger.
func (d *Daemon) SetLogger(l *log.Logger) { d.logger = l }

// Counters returns a snapshot of the event counters.
func (d *Daemon) Counters() Counters {
	return Counters{
		Received: d.received.Load(),
		Appended: d.appended.Load(),
		Dropped:  d.dropped.Load(),
		Failed:   d.failed.Load(),
	}
}

// Run appends events until ctx is cancelled or the source closes its event
// channel. Append failures are logged and do not stop the loop.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Printf("DAEMON_STARTED | run_id=%s", d.runID)
	defer func() {
		c := d.Counters()
		d.logger.Printf("DAEMON_STOPPED | received=%d appended=%d dropped=%d failed=%d",
			c.Received, c.Appended, c.Dropped, c.Failed)
	}()

	events := d.source.Events()
	errs := d.source.Errors()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.handle(ev)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			d.logger.Printf("WATCH_ERROR | error=%v", err)
		}
	}
}

func (d *Daemon) handle(ev eventlog.RawEvent) {
	d.received.Add(1)

	if d.limiter != nil && !d.limiter.Allow(ev.Path) {
		d.dropped.Add(1)
		return
	}

	if err := d.store.Append(ev); err != nil {
		d.failed.Add(1)
		d.logger.Printf("APPEND_FAILED | path=%s error=%v", ev.Path, err)
		return
	}
	d.appended.Add(1)
}
