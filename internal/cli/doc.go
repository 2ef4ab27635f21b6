// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and command handlers for
// timetracker.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed command-line arguments
//   - App: Runs a command against a loaded configuration
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	app := cli.NewApp(cfg)
//	os.Exit(app.Exit(cmd, args, app.Run(ctx, cmd, args)))
//
// All commands support --json.
package cli
