// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for CLI output.
//
// Interactive terminals get colors; piped output and NO_COLOR environments
// get plain text. The decision is made per destination writer, so help on
// stdout and errors on stderr are judged independently.

package cli

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// isTerminal reports whether w is backed by a terminal file descriptor.
// Buffers and other in-memory writers never are.
func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

const (
	colorAuto int32 = iota
	colorOn
	colorOff
)

// colorOverride holds a forced decision set by ForceColorsEnabled
var colorOverride atomic.Int32

// ColorsEnabledFor returns true if colored output should be written to w.
// See https://no-color.org/ for the NO_COLOR specification.
func ColorsEnabledFor(w io.Writer) bool {
	switch colorOverride.Load() {
	case colorOn:
		return true
	case colorOff:
		return false
	}

	// NO_COLOR takes precedence (any non-empty value disables colors)
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// FORCE_COLOR overrides TTY detection
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	return isTerminal(w)
}

// ForceColorsEnabled allows overriding color detection (for testing).
func ForceColorsEnabled(enabled bool) {
	if enabled {
		colorOverride.Store(colorOn)
		return
	}
	colorOverride.Store(colorOff)
}

// resetColorOverride returns to environment and TTY detection.
func resetColorOverride() {
	colorOverride.Store(colorAuto)
}

// GetColorProfile returns the termenv color profile for the most capable
// terminal among stdout and stderr. Returns Ascii when neither gets colors.
func GetColorProfile() termenv.Profile {
	for _, f := range []*os.File{os.Stdout, os.Stderr} {
		if !ColorsEnabledFor(f) {
			continue
		}
		if p := termenv.NewOutput(f).ColorProfile(); p != termenv.Ascii {
			return p
		}
		// Forced colors on a pipe
		return termenv.ANSI256
	}
	return termenv.Ascii
}
