// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - Command handlers for timetracker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Bystroushaak/Timetracker/internal/config"
	"github.com/Bystroushaak/Timetracker/internal/daemon"
	"github.com/Bystroushaak/Timetracker/internal/eventlog"
	"github.com/Bystroushaak/Timetracker/internal/tracker"
	"github.com/Bystroushaak/Timetracker/internal/watchlist"
)

// EmptyWatchlistMessage is printed by --list and --remove when nothing is
// watched.
const EmptyWatchlistMessage = "There is nothing on watchlist."

// App runs commands against one configuration.
type App struct {
	Config *config.Config
	Stdout io.Writer
	Stderr io.Writer

	// NewSource builds the daemon's event source. Tests replace it.
	NewSource func(ctx context.Context, cfg config.DaemonConfig, roots, exclude []string) (daemon.Source, error)
}

// NewApp creates an App writing to the process's stdout and stderr.
func NewApp(cfg *config.Config) *App {
	return &App{
		Config:    cfg,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		NewSource: daemon.NewSource,
	}
}

// Run executes cmd. Errors are returned undisplayed; see Exit.
func (a *App) Run(ctx context.Context, cmd Command, args Args) error {
	switch cmd {
	case CmdVersion:
		return a.HandleVersion(args)
	case CmdList:
		return a.HandleList(args)
	case CmdAdd:
		return a.HandleAdd(args)
	case CmdRemove:
		return a.HandleRemove(args)
	case CmdStats:
		return a.HandleStats(ctx, args)
	case CmdDaemon:
		return a.HandleDaemon(ctx, args)
	default:
		PrintUsage(a.Stdout)
		return nil
	}
}

// Exit displays err (if any) and returns the process exit code.
func (a *App) Exit(cmd Command, args Args, err error) int {
	if err == nil {
		return ExitSuccess
	}
	if args.JSON {
		NewJSONErrorResponse(cmd.String(), err).Print(a.Stdout)
	} else {
		DisplayError(a.Stderr, err, false)
	}
	return GetExitCode(err)
}

func (a *App) printJSON(cmd Command, data interface{}) error {
	return NewJSONResponse(cmd.String(), data).Print(a.Stdout)
}

func (a *App) loadWatchlist() (*watchlist.Watchlist, error) {
	wl, err := watchlist.Load(a.Config.WatchlistPath())
	if err != nil {
		return nil, NewCommandError("watchlist", "cannot read "+a.Config.WatchlistPath(), err)
	}
	return wl, nil
}

func (a *App) printWatchlist(paths []string) {
	if len(paths) == 0 {
		fmt.Fprintln(a.Stdout, EmptyWatchlistMessage)
		return
	}
	for i, p := range paths {
		fmt.Fprintf(a.Stdout, "%d\t%s\n", i, p)
	}
}

// =============================================================================
// VERSION
// =============================================================================

// HandleVersion prints the version banner.
func (a *App) HandleVersion(args Args) error {
	if args.JSON {
		return a.printJSON(CmdVersion, VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		})
	}
	fmt.Fprintln(a.Stdout, VersionString())
	return nil
}

// =============================================================================
// WATCHLIST
// =============================================================================

// HandleList prints "<index>\t<path>" per watched project.
func (a *App) HandleList(args Args) error {
	wl, err := a.loadWatchlist()
	if err != nil {
		return err
	}

	if args.JSON {
		return a.printJSON(CmdList, ListData{Projects: numbered(wl.List())})
	}
	a.printWatchlist(wl.List())
	return nil
}

// HandleAdd puts a project on the watchlist.
func (a *App) HandleAdd(args Args) error {
	wl, err := a.loadWatchlist()
	if err != nil {
		return err
	}

	already := false
	if resolved, err := watchlist.Resolve(args.AddPath); err == nil {
		already = wl.Contains(resolved)
	}

	path, err := wl.Add(args.AddPath)
	if err != nil {
		if errors.Is(err, watchlist.ErrPathNotFound) {
			return &NotFoundError{Path: path, Err: err}
		}
		return NewCommandError("add", "cannot update watchlist", err)
	}
	log.Printf("PROJECT_ADDED | path=%s already_watched=%t", path, already)

	if args.JSON {
		return a.printJSON(CmdAdd, AddData{Path: path, Added: !already})
	}
	return nil
}

// HandleRemove drops a project by index and prints what is left.
func (a *App) HandleRemove(args Args) error {
	wl, err := a.loadWatchlist()
	if err != nil {
		return err
	}

	removed, err := wl.RemoveAt(args.RemoveIndex)
	if err != nil {
		return err
	}
	log.Printf("PROJECT_REMOVED | path=%s", removed)

	if args.JSON {
		return a.printJSON(CmdRemove, RemoveData{Removed: removed, Remaining: numbered(wl.List())})
	}
	a.printWatchlist(wl.List())
	return nil
}

// =============================================================================
// STATS
// =============================================================================

// HandleStats prints "Aprox. <seconds>s\t<project>" per watched project and
// compacts the log, unless --dry-run is given.
func (a *App) HandleStats(ctx context.Context, args Args) error {
	wl, err := a.loadWatchlist()
	if err != nil {
		return err
	}

	store, err := eventlog.Open(a.Config)
	if err != nil {
		return NewCommandError("stats", "cannot open event log", err)
	}
	defer store.Close()

	tr := tracker.New(a.Config, store)
	var report *tracker.Report
	if args.DryRun {
		report, err = tr.Peek(ctx, wl.List())
	} else {
		report, err = tr.Stats(ctx, wl.List())
	}
	if err != nil {
		return err
	}

	if args.JSON {
		return a.printJSON(CmdStats, report)
	}

	for _, e := range report.Entries {
		fmt.Fprintf(a.Stdout, "Aprox. %ds\t%s\n", e.Seconds, e.Project)
	}
	if report.Skipped > 0 {
		fmt.Fprintln(a.Stderr, RenderFor(a.Stderr, WarningStyle,
			fmt.Sprintf("warning: skipped %d corrupt log entries", report.Skipped)))
	}
	return nil
}

// =============================================================================
// DAEMON
// =============================================================================

// HandleDaemon records filesystem events for every watched project until
// SIGINT or SIGTERM.
func (a *App) HandleDaemon(ctx context.Context, args Args) error {
	wl, err := a.loadWatchlist()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := eventlog.Open(a.Config)
	if err != nil {
		return NewCommandError("daemon", "cannot open event log", err)
	}
	defer store.Close()

	src, err := a.NewSource(ctx, a.Config.Daemon, wl.List(), a.Config.StatePaths())
	if err != nil {
		if errors.Is(err, daemon.ErrNothingToWatch) {
			return err
		}
		return NewCommandError("daemon", "cannot watch projects", err)
	}
	defer src.Close()

	d := daemon.New(a.Config.Daemon, store, src, wl.List()...)
	d.SetLogger(log.New(a.Stderr, "[daemon "+d.RunID()[:8]+"] ", log.LstdFlags))
	if err := d.Run(ctx); err != nil {
		return err
	}

	if args.JSON {
		return a.printJSON(CmdDaemon, d.Counters())
	}
	return nil
}
