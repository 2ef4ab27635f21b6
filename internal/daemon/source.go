// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Bystroushaak/Timetracker/internal/config"
	"github.com/Bystroushaak/Timetracker/internal/eventlog"
)

// =============================================================================
// EVENT SOURCE INTERFACE
// =============================================================================

// Source delivers filesystem change events for the watched projects.
type Source interface {
	// Watch registers the roots and starts delivering events until ctx is
	// cancelled or Close is called.
	Watch(ctx context.Context) error

	// Events is closed when the source stops.
	Events() <-chan eventlog.RawEvent

	// Errors reports non-fatal watch errors.
	Errors() <-chan error

	// Close stops watching and releases resources.
	Close() error
}

// eventBuffer is the channel capacity between a source and the consumer loop.
const eventBuffer = 256

// ErrNothingToWatch is returned when the watchlist is empty.
var ErrNothingToWatch = errors.New("there is nothing on watchlist")

// NewSource returns an fsnotify source for roots, falling back to polling
// when fsnotify cannot be started or cfg forces polling. Events under the
// exclude paths (the tracker's own config directory and stores) are dropped.
func NewSource(ctx context.Context, cfg config.DaemonConfig, roots []string, exclude []string) (Source, error) {
	if len(roots) == 0 {
		return nil, ErrNothingToWatch
	}

	filter := NewFilter(cfg.IgnorePatterns, exclude...)
	if !cfg.ForcePolling {
		fs, err := NewFsnotifySource(roots, filter)
		if err == nil {
			if err := fs.Watch(ctx); err == nil {
				return fs, nil
			}
			log.Printf("WATCH_FALLBACK | reason=%v", err)
			fs.Close()
		} else {
			log.Printf("WATCH_FALLBACK | reason=%v", err)
		}
	}

	interval := time.Duration(cfg.PollIntervalSecs) * time.Second
	ps := NewPollingSource(roots, filter, interval)
	if err := ps.Watch(ctx); err != nil {
		return nil, err
	}
	return ps, nil
}

// =============================================================================
// FSNOTIFY SOURCE
// =============================================================================

// FsnotifySource watches every directory below each root with fsnotify.
// Directories created later are added as they appear.
type FsnotifySource struct {
	roots   []string
	filter  Filter
	watcher *fsnotify.Watcher
	events  chan eventlog.RawEvent
	errors  chan error
	now     func() time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// NewFsnotifySource creates an fsnotify-backed source.
func NewFsnotifySource(roots []string, filter Filter) (*FsnotifySource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FsnotifySource{
		roots:   roots,
		filter:  filter,
		watcher: watcher,
		events:  make(chan eventlog.RawEvent, eventBuffer),
		errors:  make(chan error, 16),
		now:     time.Now,
		done:    make(chan struct{}),
	}, nil
}

// Watch adds every root and starts the event goroutine. A root that cannot
// be watched at all is an error; unreadable subdirectories are skipped.
func (fs *FsnotifySource) Watch(ctx context.Context) error {
	for _, root := range fs.roots {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("cannot watch %s: %w", root, err)
		}
		if !info.IsDir() {
			if err := fs.watcher.Add(root); err != nil {
				return fmt.Errorf("cannot watch %s: %w", root, err)
			}
			continue
		}
		if err := fs.watcher.Add(root); err != nil {
			return fmt.Errorf("cannot watch %s: %w", root, err)
		}
		fs.addRecursive(root)
	}

	fs.ctx, fs.cancel = context.WithCancel(ctx)
	go fs.processEvents()
	return nil
}

// addRecursive adds a directory and all its subdirectories to the watcher.
func (fs *FsnotifySource) addRecursive(dir string) {
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && fs.filter.Skip(path) {
			return filepath.SkipDir
		}
		if err := fs.watcher.Add(path); err != nil {
			fs.reportError(fmt.Errorf("add watch %s: %w", path, err))
		}
		return nil
	})
}

func (fs *FsnotifySource) processEvents() {
	defer close(fs.done)
	defer close(fs.events)

	for {
		select {
		case <-fs.ctx.Done():
			return

		case event, ok := <-fs.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if fs.filter.Skip(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					fs.addRecursive(event.Name)
				}
			}

			select {
			case fs.events <- eventlog.NewRawEvent(fs.now(), event.Name):
			case <-fs.ctx.Done():
				return
			}

		case err, ok := <-fs.watcher.Errors:
			if !ok {
				return
			}
			fs.reportError(err)
		}
	}
}

// reportError forwards err without blocking the event loop.
func (fs *FsnotifySource) reportError(err error) {
	select {
	case fs.errors <- err:
	default:
		log.Printf("WATCH_ERROR_DROPPED | error=%v", err)
	}
}

// Events returns the event channel.
func (fs *FsnotifySource) Events() <-chan eventlog.RawEvent { return fs.events }

// Errors returns the error channel.
func (fs *FsnotifySource) Errors() <-chan error { return fs.errors }

// Close stops watching and releases resources.
func (fs *FsnotifySource) Close() error {
	var err error
	fs.closeOnce.Do(func() {
		if fs.cancel != nil {
			fs.cancel()
			<-fs.done
		}
		err = fs.watcher.Close()
	})
	return err
}

// =============================================================================
// POLLING SOURCE (FALLBACK)
// =============================================================================

// PollingSource detects changes by periodically comparing modification times.
type PollingSource struct {
	roots    []string
	filter   Filter
	interval time.Duration
	events   chan eventlog.RawEvent
	errors   chan error
	now      func() time.Time

	files map[string]time.Time

	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// NewPollingSource creates a polling source.
func NewPollingSource(roots []string, filter Filter, interval time.Duration) *PollingSource {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &PollingSource{
		roots:    roots,
		filter:   filter,
		interval: interval,
		events:   make(chan eventlog.RawEvent, eventBuffer),
		errors:   make(chan error, 16),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Watch takes the initial snapshot and starts polling.
func (ps *PollingSource) Watch(ctx context.Context) error {
	for _, root := range ps.roots {
		if _, err := os.Stat(root); err != nil {
			return fmt.Errorf("cannot watch %s: %w", root, err)
		}
	}
	ps.files = ps.scan()

	ctx, ps.cancel = context.WithCancel(ctx)
	go ps.poll(ctx)
	return nil
}

func (ps *PollingSource) scan() map[string]time.Time {
	files := make(map[string]time.Time)
	for _, root := range ps.roots {
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if path != root && ps.filter.Skip(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			files[path] = info.ModTime()
			return nil
		})
	}
	return files
}

func (ps *PollingSource) poll(ctx context.Context) {
	defer close(ps.done)
	defer close(ps.events)

	ticker := time.NewTicker(ps.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !ps.checkChanges(ctx) {
				return
			}
		}
	}
}

// checkChanges emits one event per new, modified or deleted path. It returns
// false when ctx was cancelled mid-delivery.
func (ps *PollingSource) checkChanges(ctx context.Context) bool {
	current := ps.scan()
	var changed []string

	for path, modTime := range current {
		if old, ok := ps.files[path]; !ok || !old.Equal(modTime) {
			changed = append(changed, path)
		}
	}
	for path := range ps.files {
		if _, ok := current[path]; !ok {
			changed = append(changed, path)
		}
	}
	ps.files = current

	now := ps.now()
	for _, path := range changed {
		select {
		case ps.events <- eventlog.NewRawEvent(now, path):
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// Events returns the event channel.
func (ps *PollingSource) Events() <-chan eventlog.RawEvent { return ps.events }

// Errors returns the error channel. Polling reports no asynchronous errors.
func (ps *PollingSource) Errors() <-chan error { return ps.errors }

// Close stops polling.
func (ps *PollingSource) Close() error {
	ps.closeOnce.Do(func() {
		if ps.cancel != nil {
			ps.cancel()
			<-ps.done
		}
	})
	return nil
}
