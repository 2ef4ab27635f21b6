// timetracker - approximate time spent on projects, from filesystem activity.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/Bystroushaak/Timetracker/internal/cli"
	"github.com/Bystroushaak/Timetracker/internal/config"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		app := cli.NewApp(config.Default())
		return app.Exit(cmd, args, err)
	}

	// CLI commands stay quiet unless asked; the daemon always logs
	if args.Verbose || cmd == cli.CmdDaemon {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	if cmd == cli.CmdHelp || cmd == cli.CmdVersion {
		app := cli.NewApp(config.Default())
		return app.Exit(cmd, args, app.Run(context.Background(), cmd, args))
	}

	cfg, err := loadConfig(args.ConfigPath)
	app := cli.NewApp(cfg)
	if err != nil {
		return app.Exit(cmd, args, err)
	}

	// First run creates ~/.timetracker with an empty watchlist and log
	if err := cfg.EnsureLayout(); err != nil {
		return app.Exit(cmd, args, cli.NewCommandError(cmd.String(), "cannot prepare "+cfg.Dir, err))
	}

	return app.Exit(cmd, args, app.Run(context.Background(), cmd, args))
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.LoadFromPath(path)
		if err != nil {
			return config.Default(), err
		}
		return cfg, nil
	}

	cfg, err := config.Load("")
	if err != nil {
		return config.Default(), err
	}
	return cfg, nil
}
