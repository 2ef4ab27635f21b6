// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package daemon records filesystem activity for watched projects.
//
// A Source (fsnotify, or mtime polling when fsnotify is unavailable) emits
// one RawEvent per change below a watched path. Daemon.Run drains those
// events in a single goroutine and appends them to the event log.
package daemon
