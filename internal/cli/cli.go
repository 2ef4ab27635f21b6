// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing for timetracker.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdHelp Command = iota
	CmdVersion
	CmdList
	CmdAdd
	CmdRemove
	CmdStats
	CmdDaemon
)

// String returns the command name used in JSON output and logs.
func (c Command) String() string {
	switch c {
	case CmdVersion:
		return "version"
	case CmdList:
		return "list"
	case CmdAdd:
		return "add"
	case CmdRemove:
		return "remove"
	case CmdStats:
		return "stats"
	case CmdDaemon:
		return "daemon"
	default:
		return "help"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON       bool   // Output in JSON format
	Verbose    bool   // Route logs to stderr
	ConfigPath string // Explicit config file (--config)

	// Command-specific
	AddPath     string // --add
	RemoveIndex int    // --remove
	DryRun      bool   // --stats without compacting the log

	// Raw args as given
	Raw []string
}

const usageText = `timetracker - approximate time spent on your projects

Watches project directories for file changes and counts working sessions.
Every session is charged a flat gap (5 minutes by default).

Usage:
  timetracker -a, --add PATH     Add a project to the watchlist
  timetracker -r, --remove ID    Remove project ID (see --list)
  timetracker -l, --list         List watched projects
  timetracker -s, --stats        Show time per project and compact the log
      --dry-run                  Show stats without rewriting the log
  timetracker -d, --daemon       Record filesystem changes until interrupted
  timetracker -v, --version      Show version
  timetracker -h, --help         Show this help

Global Flags:
  --json                         Output in JSON format
  --config FILE                  Use FILE instead of ~/.timetracker/config.toml
  --verbose                      Log to stderr

Environment:
  TIMETRACKER_HOME               Configuration directory (default ~/.timetracker)
  TIMETRACKER_MIN_GAP            Session gap in seconds
  TIMETRACKER_STORE              Event log backend: file or sqlite
  NO_COLOR                       Disable colored output

Examples:
  timetracker --add ~/src/website
  timetracker --daemon &
  timetracker --stats
`

// knownFlags lists every accepted flag name, short and long.
var knownFlags = map[string]bool{
	"a": true, "add": true,
	"r": true, "remove": true,
	"l": true, "list": true,
	"s": true, "stats": true,
	"d": true, "daemon": true,
	"v": true, "version": true,
	"h": true, "help": true,
	"json": true, "config": true, "verbose": true, "dry-run": true,
}

// valueFlags are the flags that take an argument.
var valueFlags = []string{"a", "add", "r", "remove", "config"}

// PrintUsage prints the help text to w.
func PrintUsage(w io.Writer) {
	title, rest, _ := strings.Cut(usageText, "\n")
	fmt.Fprintln(w, RenderFor(w, TitleStyle, title))
	for _, line := range strings.SplitAfter(rest, "\n") {
		if strings.HasSuffix(line, ":\n") && !strings.HasPrefix(line, " ") {
			line = RenderFor(w, SectionStyle, strings.TrimSuffix(line, "\n")) + "\n"
		}
		fmt.Fprint(w, line)
	}
}

// VersionString returns the one-line version banner.
func VersionString() string {
	return fmt.Sprintf("timetracker v%s (%s, commit %s) %s/%s",
		Version, BuildDate, GitCommit, runtime.GOOS, runtime.GOARCH)
}

// Parse parses argv (without the program name). When several command flags
// are given, the first in this order wins: help, version, list, add, remove,
// stats, daemon. No command flag at all means help.
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, valueFlags...)

	args := Args{
		JSON:       p.BoolFlag("json"),
		Verbose:    p.BoolFlag("verbose"),
		ConfigPath: p.Flag("config"),
		DryRun:     p.BoolFlag("dry-run"),
		Raw:        argv,
	}

	for _, name := range p.Flags() {
		if !knownFlags[name] {
			example := "timetracker --help"
			if s := SuggestFlag(name); s != "" {
				example = "did you mean --" + s + "?"
			}
			return CmdHelp, args, NewValidationErrorWithExample("flag", "--"+name, "unknown flag", example)
		}
	}
	if p.PositionalCount() > 0 {
		return CmdHelp, args, NewValidationErrorWithExample("argument", p.Positional(0), "unexpected argument", "timetracker --add PATH")
	}
	if p.MissingValue("config") {
		return CmdHelp, args, ErrMissingArgument("config", "timetracker --config ~/.timetracker/config.toml --stats")
	}

	switch {
	case p.AnyBool("h", "help"):
		return CmdHelp, args, nil

	case p.AnyBool("v", "version"):
		return CmdVersion, args, nil

	case p.AnyBool("l", "list"):
		return CmdList, args, nil

	case p.HasFlag("a") || p.HasFlag("add"):
		path, _ := p.FirstFlag("a", "add")
		if strings.TrimSpace(path) == "" {
			return CmdAdd, args, ErrMissingArgument("path", "timetracker --add ~/src/project")
		}
		args.AddPath = strings.TrimSpace(path)
		return CmdAdd, args, nil

	case p.HasFlag("r") || p.HasFlag("remove"):
		raw, _ := p.FirstFlag("r", "remove")
		index, err := ParseIndex(raw, "index")
		if err != nil {
			return CmdRemove, args, err
		}
		args.RemoveIndex = index
		return CmdRemove, args, nil

	case p.AnyBool("s", "stats"):
		return CmdStats, args, nil

	case p.AnyBool("d", "daemon"):
		return CmdDaemon, args, nil
	}

	return CmdHelp, args, nil
}
