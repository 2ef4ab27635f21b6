// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tracker

import "fmt"

// ProjectSummary is the accumulated state of one project after a pass.
type ProjectSummary struct {
	Project  string `json:"project"`
	Count    int    `json:"session_count"`
	LastSeen int64  `json:"last_seen"`
}

// Line renders the summary as a "saved" log line.
func (s ProjectSummary) Line() string {
	return fmt.Sprintf("%s %d %d %s", summaryToken, s.Count, s.LastSeen, s.Project)
}

// Seconds is the time estimate: each session is charged gap seconds.
func (s ProjectSummary) Seconds(gap int64) int64 {
	return int64(s.Count) * gap
}

// neverSeen reports whether no session has been counted for the project yet.
func (s ProjectSummary) neverSeen() bool {
	return s.Count == 0 && s.LastSeen == 0
}
