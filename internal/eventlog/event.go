// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package eventlog

import (
	"fmt"
	"strings"
	"time"
)

// TimestampWidth is the fixed number of leading decimal digits in a raw
// event line. Ten digits cover every epoch second until the year 2286.
const TimestampWidth = 10

// RawEvent is a single observed filesystem change.
type RawEvent struct {
	Timestamp int64  // seconds since the Unix epoch
	Path      string // absolute path that changed
}

// NewRawEvent builds a RawEvent from a wall-clock time.
func NewRawEvent(at time.Time, path string) RawEvent {
	return RawEvent{Timestamp: at.Unix(), Path: path}
}

// Line renders the event in its on-disk form: a zero-padded ten digit
// timestamp, one space, then the path.
func (e RawEvent) Line() string {
	return fmt.Sprintf("%0*d %s", TimestampWidth, e.Timestamp, e.Path)
}

// Validate reports whether the event can be written without corrupting the log.
func (e RawEvent) Validate() error {
	if e.Timestamp < 0 || e.Timestamp > 9999999999 {
		return fmt.Errorf("timestamp %d does not fit %d digits", e.Timestamp, TimestampWidth)
	}
	if strings.TrimSpace(e.Path) == "" {
		return fmt.Errorf("empty path")
	}
	if strings.ContainsAny(e.Path, "\r\n") {
		return fmt.Errorf("path contains a line break: %q", e.Path)
	}
	return nil
}
