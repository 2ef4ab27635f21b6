// json_output.go - JSON output support for scripting and status bars.
//
// Provides a standardized JSON envelope for every command when --json is
// given.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the standardized response format for all CLI commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Error:     nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the indented JSON response to w.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// WatchlistEntry is one numbered watchlist line.
type WatchlistEntry struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}

// ListData represents the data returned by --list.
type ListData struct {
	Projects []WatchlistEntry `json:"projects"`
}

// AddData represents the data returned by --add.
type AddData struct {
	Path  string `json:"path"`
	Added bool   `json:"added"` // false when the path was already watched
}

// RemoveData represents the data returned by --remove.
type RemoveData struct {
	Removed   string           `json:"removed"`
	Remaining []WatchlistEntry `json:"remaining"`
}

// VersionData represents the data returned by --version.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

func numbered(paths []string) []WatchlistEntry {
	entries := make([]WatchlistEntry, len(paths))
	for i, p := range paths {
		entries[i] = WatchlistEntry{Index: i, Path: p}
	}
	return entries
}
