// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tracker

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Bystroushaak/Timetracker/internal/eventlog"
)

// ErrCorruptLogEntry marks a log line that could not be parsed.
var ErrCorruptLogEntry = errors.New("corrupt log entry")

// summaryToken starts every summary line.
const summaryToken = "saved"

// LineKind classifies a log line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineSummary
	LineEvent
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineSummary:
		return "summary"
	case LineEvent:
		return "event"
	default:
		return fmt.Sprintf("LineKind(%d)", int(k))
	}
}

// Line is one parsed log line. Only the fields matching Kind are set.
type Line struct {
	Kind    LineKind
	Summary ProjectSummary
	Event   eventlog.RawEvent
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptLogEntry, fmt.Sprintf(format, args...))
}

// ParseLine classifies and decodes a single log line.
//
// Lines beginning with "saved" are summaries: "saved <count> <last> <path>",
// where path is the trimmed remainder after the third space and may contain
// spaces. Every other non-blank line is a raw event: ten timestamp digits
// followed by the path, with one optional separating space.
func ParseLine(raw string) (Line, error) {
	if strings.TrimSpace(raw) == "" {
		return Line{Kind: LineBlank}, nil
	}
	if strings.HasPrefix(raw, summaryToken) {
		return parseSummary(raw)
	}
	return parseEvent(raw)
}

func parseSummary(raw string) (Line, error) {
	parts := strings.SplitN(raw, " ", 4)
	if len(parts) < 4 || parts[0] != summaryToken {
		return Line{Kind: LineSummary}, corrupt("summary needs 4 fields: %q", raw)
	}

	count, err := strconv.Atoi(parts[1])
	if err != nil || count < 0 {
		return Line{Kind: LineSummary}, corrupt("bad session count %q", parts[1])
	}
	lastSeen, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Line{Kind: LineSummary}, corrupt("bad last-seen timestamp %q", parts[2])
	}
	project := strings.TrimSpace(parts[3])
	if project == "" {
		return Line{Kind: LineSummary}, corrupt("summary without project: %q", raw)
	}

	return Line{
		Kind: LineSummary,
		Summary: ProjectSummary{
			Project:  project,
			Count:    count,
			LastSeen: lastSeen,
		},
	}, nil
}

func parseEvent(raw string) (Line, error) {
	if len(raw) < eventlog.TimestampWidth {
		return Line{Kind: LineEvent}, corrupt("event shorter than %d characters: %q", eventlog.TimestampWidth, raw)
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(raw[:eventlog.TimestampWidth]), 10, 64)
	if err != nil {
		return Line{Kind: LineEvent}, corrupt("bad event timestamp %q", raw[:eventlog.TimestampWidth])
	}

	path := strings.TrimPrefix(raw[eventlog.TimestampWidth:], " ")
	if path == "" {
		return Line{Kind: LineEvent}, corrupt("event without path: %q", raw)
	}

	return Line{
		Kind:  LineEvent,
		Event: eventlog.RawEvent{Timestamp: ts, Path: path},
	}, nil
}
