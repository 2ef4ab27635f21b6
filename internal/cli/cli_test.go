// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bystroushaak/Timetracker/internal/config"
	"github.com/Bystroushaak/Timetracker/internal/daemon"
	"github.com/Bystroushaak/Timetracker/internal/eventlog"
	"github.com/Bystroushaak/Timetracker/internal/watchlist"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name: "value flag",
			args: []string{"--add", "/tmp/x"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "/tmp/x", p.Flag("add"))
			},
		},
		{
			name: "flag with equals",
			args: []string{"--config=/etc/tt.toml"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "/etc/tt.toml", p.Flag("config"))
			},
		},
		{
			name: "boolean flag does not swallow positional",
			args: []string{"--json", "extra"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("json"))
				assert.Equal(t, "extra", p.Positional(0))
			},
		},
		{
			name: "value flag takes dash-prefixed value",
			args: []string{"-r", "-1"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "-1", p.Flag("r"))
			},
		},
		{
			name: "value flag at end",
			args: []string{"--stats", "-a"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.MissingValue("a"))
				assert.True(t, p.HasFlag("a"))
				assert.Equal(t, []string{"stats", "a"}, p.Flags())
			},
		},
		{
			name: "double dash ends flags",
			args: []string{"--", "--json"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.False(t, p.BoolFlag("json"))
				assert.Equal(t, 1, p.PositionalCount())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, NewArgParser(tt.args, "a", "add", "r", "remove", "config"))
		})
	}
}

func TestParseIndex(t *testing.T) {
	i, err := ParseIndex("3", "index")
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	for _, bad := range []string{"", "abc", "-1", "1.5"} {
		_, err := ParseIndex(bad, "index")
		assert.Error(t, err, bad)
		assert.Equal(t, ExitUsageError, GetExitCode(err), bad)
	}
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		args []string
		want Command
	}{
		{nil, CmdHelp},
		{[]string{"-h"}, CmdHelp},
		{[]string{"--version"}, CmdVersion},
		{[]string{"-v"}, CmdVersion},
		{[]string{"-l"}, CmdList},
		{[]string{"--list", "--json"}, CmdList},
		{[]string{"-a", "."}, CmdAdd},
		{[]string{"--remove", "0"}, CmdRemove},
		{[]string{"-s"}, CmdStats},
		{[]string{"--stats", "--dry-run"}, CmdStats},
		{[]string{"-d"}, CmdDaemon},
		{[]string{"--verbose", "--daemon"}, CmdDaemon},
		// Precedence: version > list > add > remove > stats > daemon
		{[]string{"-s", "-v"}, CmdVersion},
		{[]string{"-d", "-l"}, CmdList},
		{[]string{"-s", "-r", "1"}, CmdRemove},
		{[]string{"-d", "-s"}, CmdStats},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cmd, _, err := Parse(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParse_Args(t *testing.T) {
	_, args, err := Parse([]string{"--json", "--verbose", "--config", "/x/c.toml", "-a", " ~/proj "})
	require.NoError(t, err)
	assert.True(t, args.JSON)
	assert.True(t, args.Verbose)
	assert.Equal(t, "/x/c.toml", args.ConfigPath)
	assert.Equal(t, "~/proj", args.AddPath)

	_, args, err = Parse([]string{"-r", "4"})
	require.NoError(t, err)
	assert.Equal(t, 4, args.RemoveIndex)

	_, args, err = Parse([]string{"-s", "--dry-run"})
	require.NoError(t, err)
	assert.True(t, args.DryRun)
}

func TestParse_Errors(t *testing.T) {
	tests := [][]string{
		{"--bogus"},
		{"-a"},
		{"-r", "x"},
		{"-r", "-2"},
		{"--stats", "extra"},
		{"--stats", "--config"},
	}

	for _, argv := range tests {
		t.Run(strings.Join(argv, " "), func(t *testing.T) {
			_, _, err := Parse(argv)
			require.Error(t, err)
			assert.Equal(t, ExitUsageError, GetExitCode(err))
		})
	}
}

// =============================================================================
// EXIT CODE TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"not found", &NotFoundError{Path: "/x", Err: watchlist.ErrPathNotFound}, ExitUsageError},
		{"wrapped path", fmt.Errorf("x: %w", watchlist.ErrPathNotFound), ExitUsageError},
		{"index", fmt.Errorf("x: %w", watchlist.ErrIndexOutOfRange), ExitUsageError},
		{"nothing to watch", daemon.ErrNothingToWatch, ExitUsageError},
		{"io", NewCommandError("stats", "boom", fmt.Errorf("%w: read", eventlog.ErrIOFailure)), ExitIOError},
		{"config", fmt.Errorf("load: %w", config.ValidateErrors{{Field: "tracker", Message: "bad"}}), ExitConfigError},
		{"other", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError(t *testing.T) {
	ForceColorsEnabled(false)

	var buf bytes.Buffer
	DisplayError(&buf, &NotFoundError{Path: "/nope"}, false)
	assert.Equal(t, "Selected path '/nope' doesn't exist!\n", buf.String())

	buf.Reset()
	DisplayError(&buf, errors.New("boom"), false)
	assert.Equal(t, "[ERROR] boom\n", buf.String())

	buf.Reset()
	DisplayError(&buf, NewValidationError("index", "x", "must be an integer"), true)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "validation_error", out["error_type"])
	assert.Equal(t, false, out["success"])
}

func TestColorsEnabledFor(t *testing.T) {
	t.Cleanup(resetColorOverride)
	resetColorOverride()
	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "")

	var buf bytes.Buffer
	assert.False(t, ColorsEnabledFor(&buf), "in-memory writer is never a terminal")

	f, err := os.CreateTemp(t.TempDir(), "stderr")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, ColorsEnabledFor(f), "regular file is not a terminal")

	t.Setenv("FORCE_COLOR", "1")
	assert.True(t, ColorsEnabledFor(&buf))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorsEnabledFor(&buf), "NO_COLOR wins over FORCE_COLOR")

	ForceColorsEnabled(true)
	assert.True(t, ColorsEnabledFor(&buf))
	ForceColorsEnabled(false)
	assert.False(t, ColorsEnabledFor(&buf))
}

func TestDisplayError_PlainWhenWriterIsNotTerminal(t *testing.T) {
	t.Cleanup(resetColorOverride)
	resetColorOverride()
	t.Setenv("NO_COLOR", "")
	t.Setenv("FORCE_COLOR", "")

	var buf bytes.Buffer
	DisplayError(&buf, errors.New("boom"), false)
	assert.Equal(t, "[ERROR] boom\n", buf.String())
	assert.NotContains(t, buf.String(), "\x1b[")

	buf.Reset()
	PrintUsage(&buf)
	assert.NotContains(t, buf.String(), "\x1b[")
}

// =============================================================================
// COMMAND TESTS (commands.go)
// =============================================================================

type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ForceColorsEnabled(false)

	cfg := config.Default()
	cfg.Dir = t.TempDir()
	require.NoError(t, cfg.EnsureLayout())

	ta := &testApp{App: NewApp(cfg), stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	ta.Stdout = ta.stdout
	ta.Stderr = ta.stderr
	return ta
}

// exec parses argv and runs it the way main does, returning the exit code.
func (ta *testApp) exec(t *testing.T, argv ...string) int {
	t.Helper()
	ta.stdout.Reset()
	ta.stderr.Reset()
	cmd, args, err := Parse(argv)
	if err != nil {
		return ta.Exit(cmd, args, err)
	}
	return ta.Exit(cmd, args, ta.Run(context.Background(), cmd, args))
}

func TestApp_ListEmpty(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, ExitSuccess, app.exec(t, "--list"))
	assert.Equal(t, EmptyWatchlistMessage+"\n", app.stdout.String())
}

func TestApp_AddListRemove(t *testing.T) {
	app := newTestApp(t)
	p1 := t.TempDir()
	p2 := t.TempDir()

	require.Equal(t, ExitSuccess, app.exec(t, "--add", p1))
	require.Equal(t, ExitSuccess, app.exec(t, "-a", p2))
	require.Equal(t, ExitSuccess, app.exec(t, "-a", p1)) // duplicate is a no-op

	require.Equal(t, ExitSuccess, app.exec(t, "-l"))
	assert.Equal(t, fmt.Sprintf("0\t%s\n1\t%s\n", p1, p2), app.stdout.String())

	require.Equal(t, ExitSuccess, app.exec(t, "-r", "0"))
	assert.Equal(t, fmt.Sprintf("0\t%s\n", p2), app.stdout.String())

	require.Equal(t, ExitSuccess, app.exec(t, "-r", "0"))
	assert.Equal(t, EmptyWatchlistMessage+"\n", app.stdout.String())
}

func TestApp_AddMissingPath(t *testing.T) {
	app := newTestApp(t)
	missing := filepath.Join(t.TempDir(), "nope")

	before, err := os.ReadFile(app.Config.WatchlistPath())
	require.NoError(t, err)

	assert.Equal(t, ExitUsageError, app.exec(t, "--add", missing))
	assert.Equal(t, fmt.Sprintf("Selected path '%s' doesn't exist!\n", missing), app.stderr.String())

	after, err := os.ReadFile(app.Config.WatchlistPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApp_RemoveOutOfRange(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, ExitSuccess, app.exec(t, "-a", t.TempDir()))

	assert.Equal(t, ExitUsageError, app.exec(t, "-r", "5"))
	assert.Contains(t, app.stderr.String(), "[ERROR]")

	require.Equal(t, ExitSuccess, app.exec(t, "-l"))
	assert.Equal(t, 1, strings.Count(app.stdout.String(), "\n"))
}

func seedEvents(t *testing.T, app *testApp, project string) {
	t.Helper()
	store := eventlog.NewFileStore(app.Config.LogPath())
	defer store.Close()
	base := int64(1700000000)
	for _, off := range []int64{0, 100, 1000} {
		require.NoError(t, store.Append(eventlog.RawEvent{Timestamp: base + off, Path: project + "/main.go"}))
	}
}

func TestApp_StatsCompactsLog(t *testing.T) {
	app := newTestApp(t)
	project := t.TempDir()
	require.Equal(t, ExitSuccess, app.exec(t, "-a", project))
	seedEvents(t, app, project)

	require.Equal(t, ExitSuccess, app.exec(t, "--stats"))
	assert.Equal(t, fmt.Sprintf("Aprox. 600s\t%s\n", project), app.stdout.String())

	data, err := os.ReadFile(app.Config.LogPath())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("saved 2 1700001000 %s\n", project), string(data))

	// Compaction is idempotent
	require.Equal(t, ExitSuccess, app.exec(t, "-s"))
	assert.Equal(t, fmt.Sprintf("Aprox. 600s\t%s\n", project), app.stdout.String())
}

func TestApp_StatsDryRunKeepsLog(t *testing.T) {
	app := newTestApp(t)
	project := t.TempDir()
	require.Equal(t, ExitSuccess, app.exec(t, "-a", project))
	seedEvents(t, app, project)

	before, err := os.ReadFile(app.Config.LogPath())
	require.NoError(t, err)

	require.Equal(t, ExitSuccess, app.exec(t, "-s", "--dry-run"))
	assert.Contains(t, app.stdout.String(), "Aprox. 600s")

	after, err := os.ReadFile(app.Config.LogPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApp_StatsWarnsOnCorruptLines(t *testing.T) {
	app := newTestApp(t)
	project := t.TempDir()
	require.Equal(t, ExitSuccess, app.exec(t, "-a", project))
	require.NoError(t, os.WriteFile(app.Config.LogPath(), []byte("garbage\n"), 0644))

	require.Equal(t, ExitSuccess, app.exec(t, "-s"))
	assert.Equal(t, fmt.Sprintf("Aprox. 0s\t%s\n", project), app.stdout.String())
	assert.Contains(t, app.stderr.String(), "skipped 1 corrupt")
}

func TestApp_StatsJSON(t *testing.T) {
	app := newTestApp(t)
	project := t.TempDir()
	require.Equal(t, ExitSuccess, app.exec(t, "-a", project))
	seedEvents(t, app, project)

	require.Equal(t, ExitSuccess, app.exec(t, "-s", "--json"))

	var resp struct {
		Success bool   `json:"success"`
		Command string `json:"command"`
		Data    struct {
			Projects []struct {
				Project  string `json:"project"`
				Sessions int    `json:"sessions"`
				Seconds  int64  `json:"seconds"`
			} `json:"projects"`
			GapSeconds int64 `json:"gap_seconds"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(app.stdout.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "stats", resp.Command)
	assert.Equal(t, int64(300), resp.Data.GapSeconds)
	require.Len(t, resp.Data.Projects, 1)
	assert.Equal(t, project, resp.Data.Projects[0].Project)
	assert.Equal(t, 2, resp.Data.Projects[0].Sessions)
	assert.Equal(t, int64(600), resp.Data.Projects[0].Seconds)
}

func TestApp_ErrorJSON(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, ExitUsageError, app.exec(t, "-r", "3", "--json"))

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(app.stdout.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "remove", resp.Command)
	require.NotNil(t, resp.Error)
}

func TestApp_Version(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, ExitSuccess, app.exec(t, "--version"))
	assert.True(t, strings.HasPrefix(app.stdout.String(), "timetracker v"+Version))
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, ExitSuccess, app.exec(t))
	assert.Contains(t, app.stdout.String(), "--stats")
}

// fakeSource replays a fixed set of events and then closes.
type fakeSource struct {
	events chan eventlog.RawEvent
	errors chan error
}

func (f *fakeSource) Watch(context.Context) error { return nil }
func (f *fakeSource) Events() <-chan eventlog.RawEvent { return f.events }
func (f *fakeSource) Errors() <-chan error { return f.errors }
func (f *fakeSource) Close() error { return nil }

func TestApp_DaemonAppendsEvents(t *testing.T) {
	app := newTestApp(t)
	project := t.TempDir()
	require.Equal(t, ExitSuccess, app.exec(t, "-a", project))

	var roots []string
	app.NewSource = func(_ context.Context, _ config.DaemonConfig, r, _ []string) (daemon.Source, error) {
		roots = r
		src := &fakeSource{events: make(chan eventlog.RawEvent, 1), errors: make(chan error)}
		src.events <- eventlog.RawEvent{Timestamp: 1700000000, Path: project + "/x.go"}
		close(src.events)
		return src, nil
	}

	require.Equal(t, ExitSuccess, app.exec(t, "--daemon"))
	assert.Equal(t, []string{project}, roots)

	data, err := os.ReadFile(app.Config.LogPath())
	require.NoError(t, err)
	assert.Equal(t, "1700000000 "+project+"/x.go\n", string(data))
	assert.Contains(t, app.stderr.String(), "DAEMON_STARTED")
}

func TestApp_DaemonEmptyWatchlist(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, ExitUsageError, app.exec(t, "-d"))
}

// =============================================================================
// SUGGESTION TESTS (suggest.go)
// =============================================================================

func TestSuggestFlag(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"stat", "stats"},
		{"--lsit", "list"},
		{"deamon", "daemon"},
		{"dryrun", "dry-run"},
		{"stats", ""},  // exact
		{"x", ""},      // too short
		{"banana", ""}, // nothing close
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestFlag(tt.input))
		})
	}
}

func TestParse_UnknownFlagSuggestion(t *testing.T) {
	_, _, err := Parse([]string{"--stat"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean --stats?")
}
