// args.go - Argument parsing for the timetracker command line.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser provides uniform flag parsing. It handles:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//   - Positional arguments: arguments without flags
//
// Flags named in valueFlags always consume the next argument, even when it
// starts with a dash (so "-r -1" reads -1 as the index). Any other flag is
// boolean unless written as --flag=value.
type ArgParser struct {
	flags      map[string]string // String flags (--key=value)
	boolFlags  map[string]bool   // Boolean flags (--json)
	missing    map[string]bool   // Value flags given without a value
	positional []string          // Positional arguments
	order      []string          // Flag names in the order they appeared
}

// NewArgParser creates a parser for raw.
//
// Example:
//
//	args := NewArgParser([]string{"-a", "~/src/proj", "--json"}, "a", "add")
//	args.Flag("a")        // "~/src/proj"
//	args.BoolFlag("json") // true
func NewArgParser(raw []string, valueFlags ...string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		missing:    make(map[string]bool),
		positional: make([]string, 0),
	}

	takesValue := make(map[string]bool, len(valueFlags))
	for _, name := range valueFlags {
		takesValue[strings.TrimLeft(name, "-")] = true
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		// "--" ends flag parsing; "-" alone is positional
		if arg == "--" {
			parser.positional = append(parser.positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			parser.positional = append(parser.positional, arg)
			i++
			continue
		}

		// Handle --flag=value format
		if strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			flagName := strings.TrimLeft(parts[0], "-")
			flagValue := parts[1]
			parser.order = append(parser.order, flagName)

			if !takesValue[flagName] && (flagValue == "true" || flagValue == "false") {
				parser.boolFlags[flagName] = flagValue == "true"
			} else {
				parser.flags[flagName] = flagValue
			}
			i++
			continue
		}

		flagName := strings.TrimLeft(arg, "-")
		parser.order = append(parser.order, flagName)

		if takesValue[flagName] {
			if i+1 < len(raw) {
				parser.flags[flagName] = raw[i+1]
				i += 2
			} else {
				parser.missing[flagName] = true
				i++
			}
			continue
		}

		parser.boolFlags[flagName] = true
		i++
	}

	return parser
}

// Flag returns the value of a string flag, or "" if absent.
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// FirstFlag returns the value of the first of names that is set.
// Useful for short/long pairs such as "a" and "add".
func (p *ArgParser) FirstFlag(names ...string) (string, bool) {
	for _, name := range names {
		if val, ok := p.flags[strings.TrimLeft(name, "-")]; ok {
			return val, true
		}
	}
	return "", false
}

// BoolFlag returns the value of a boolean flag, or false if absent.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[strings.TrimLeft(name, "-")]
}

// AnyBool reports whether any of the named boolean flags is set.
func (p *ArgParser) AnyBool(names ...string) bool {
	for _, name := range names {
		if p.BoolFlag(name) {
			return true
		}
	}
	return false
}

// HasFlag returns true if the flag appeared in any form, including a value
// flag with its value missing.
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool || p.missing[name]
}

// MissingValue reports whether a value flag was given as the last argument
// with nothing after it.
func (p *ArgParser) MissingValue(name string) bool {
	return p.missing[strings.TrimLeft(name, "-")]
}

// Flags returns flag names in the order they appeared.
func (p *ArgParser) Flags() []string {
	return p.order
}

// Positional returns the positional argument at index, or "" if out of range.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// =============================================================================
// HELPER FUNCTIONS FOR COMMON ARG PATTERNS
// =============================================================================

// ParseIndex parses a non-negative list index.
func ParseIndex(s string, fieldName string) (int, error) {
	if s == "" {
		return 0, ErrMissingArgument(fieldName, "timetracker --remove 0")
	}

	val, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, NewValidationErrorWithExample(fieldName, s, "must be an integer", "timetracker --remove 0")
	}
	if val < 0 {
		return 0, NewValidationError(fieldName, s, "must not be negative")
	}

	return val, nil
}
