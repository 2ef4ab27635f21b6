// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display and exit codes for CLI commands.
//
// STANDARDIZED PATTERN:
//   - Handlers ALWAYS return errors (never just print and return nil)
//   - Run displays them once and maps them to an exit code

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Bystroushaak/Timetracker/internal/config"
	"github.com/Bystroushaak/Timetracker/internal/daemon"
	"github.com/Bystroushaak/Timetracker/internal/eventlog"
	"github.com/Bystroushaak/Timetracker/internal/watchlist"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error, including I/O failures
	ExitGeneralError = 1
	// ExitUsageError indicates invalid arguments, a missing path or a bad index
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
)

// ExitIOError is the exit code for event log and watchlist I/O failures.
const ExitIOError = ExitGeneralError

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "stats", "add")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError reports a path that does not exist. Its message is the one
// users have always seen for --add.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Selected path '%s' doesn't exist!", e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, reason string, err error) error {
	return &CommandError{
		Command: command,
		Reason:  reason,
		Err:     err,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Reason:  reason,
		Example: example,
	}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(argName, "", "required argument missing", usage)
}

// =============================================================================
// ERROR DISPLAY HELPERS
// =============================================================================

// DisplayError writes err to w. Path and index errors are printed bare so
// scripts can match them; everything else gets an [ERROR] tag.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}

	if jsonMode {
		DisplayErrorJSON(w, err)
		return
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		fmt.Fprintln(w, err.Error())
		return
	}

	fmt.Fprintf(w, "%s %s\n", RenderFor(w, ErrorStyle, "[ERROR]"), err.Error())
}

// DisplayErrorJSON outputs an error as JSON.
func DisplayErrorJSON(w io.Writer, err error) {
	output := map[string]interface{}{
		"error":   err.Error(),
		"success": false,
	}

	var (
		commandErr    *CommandError
		validationErr *ValidationError
		notFoundErr   *NotFoundError
	)

	switch {
	case errors.As(err, &notFoundErr):
		output["error_type"] = "not_found_error"
		output["path"] = notFoundErr.Path

	case errors.As(err, &validationErr):
		output["error_type"] = "validation_error"
		output["field"] = validationErr.Field
		output["value"] = validationErr.Value
		output["reason"] = validationErr.Reason
		if validationErr.Example != "" {
			output["example"] = validationErr.Example
		}

	case errors.Is(err, watchlist.ErrIndexOutOfRange):
		output["error_type"] = "index_error"

	case errors.As(err, &commandErr):
		output["error_type"] = "command_error"
		output["command"] = commandErr.Command
		output["reason"] = commandErr.Reason
		if commandErr.Err != nil {
			output["underlying_error"] = commandErr.Err.Error()
		}

	default:
		output["error_type"] = "generic_error"
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.Encode(output)
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the appropriate exit code for an error:
//   - ExitUsageError (2): bad arguments, missing path, index out of range,
//     empty watchlist for the daemon
//   - ExitConfigError (3): invalid configuration
//   - ExitGeneralError (1): I/O failures and everything else
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitUsageError
	}

	switch {
	case errors.Is(err, watchlist.ErrPathNotFound),
		errors.Is(err, watchlist.ErrIndexOutOfRange),
		errors.Is(err, daemon.ErrNothingToWatch):
		return ExitUsageError
	case config.IsValidationError(err):
		return ExitConfigError
	case errors.Is(err, eventlog.ErrIOFailure):
		return ExitIOError
	}

	return ExitGeneralError
}
