// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package eventlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bystroushaak/Timetracker/internal/config"
)

// =============================================================================
// RAW EVENT TESTS
// =============================================================================

func TestRawEvent_Line(t *testing.T) {
	tests := []struct {
		name string
		ev   RawEvent
		want string
	}{
		{"ten digits", RawEvent{1354972800, "/home/u/proj/a.go"}, "1354972800 /home/u/proj/a.go"},
		{"zero padded", RawEvent{400, "/a"}, "0000000400 /a"},
		{"path with spaces", RawEvent{1000000000, "/home/u/my proj/x"}, "1000000000 /home/u/my proj/x"},
		{"surrounding spaces kept", RawEvent{5, " /a/b "}, "0000000005  /a/b "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.Line())
		})
	}
}

func TestRawEvent_Validate(t *testing.T) {
	assert.NoError(t, RawEvent{0, "/a"}.Validate())
	assert.Error(t, RawEvent{-1, "/a"}.Validate())
	assert.Error(t, RawEvent{10000000000, "/a"}.Validate())
	assert.Error(t, RawEvent{1, "  "}.Validate())
	assert.Error(t, RawEvent{1, "/a\nsaved 99 0 /a"}.Validate())
}

func TestNewRawEvent(t *testing.T) {
	at := time.Unix(1700000000, 999)
	ev := NewRawEvent(at, "/x")
	assert.Equal(t, int64(1700000000), ev.Timestamp)
	assert.Equal(t, "/x", ev.Path)
}

// =============================================================================
// SHARED STORE CONTRACT
// =============================================================================

type storeFactory func(t *testing.T) Store

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"file": func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "watchlog.txt"))
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "watchlog.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_Contract(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("empty read", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				lines, err := s.ReadAll()
				require.NoError(t, err)
				assert.Empty(t, lines)
			})

			t.Run("append then read preserves order", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				require.NoError(t, s.Append(RawEvent{400, "/a/x"}))
				require.NoError(t, s.Append(RawEvent{100, "/a/y"}))

				lines, err := s.ReadAll()
				require.NoError(t, err)
				assert.Equal(t, []string{"0000000400 /a/x", "0000000100 /a/y"}, lines)
			})

			t.Run("replace all discards raw events", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				require.NoError(t, s.Append(RawEvent{1, "/a"}))
				require.NoError(t, s.ReplaceAll([]string{"saved 1 1 /a", "saved 0 0 /b c"}))

				lines, err := s.ReadAll()
				require.NoError(t, err)
				assert.Equal(t, []string{"saved 1 1 /a", "saved 0 0 /b c"}, lines)

				require.NoError(t, s.ReplaceAll(nil))
				lines, err = s.ReadAll()
				require.NoError(t, err)
				assert.Empty(t, lines)
			})

			t.Run("path written verbatim", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				ev := RawEvent{9, "/a/trailing "}
				require.NoError(t, ev.Validate())
				require.NoError(t, s.Append(ev))

				lines, err := s.ReadAll()
				require.NoError(t, err)
				require.Len(t, lines, 1)
				assert.Equal(t, ev.Path, lines[0][TimestampWidth+1:])
			})

			t.Run("invalid event rejected", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				err := s.Append(RawEvent{1, ""})
				assert.True(t, errors.Is(err, ErrInvalidEvent))
			})

			t.Run("closed store", func(t *testing.T) {
				s := factory(t)
				require.NoError(t, s.Close())

				assert.ErrorIs(t, s.Append(RawEvent{1, "/a"}), ErrClosed)
				_, err := s.ReadAll()
				assert.ErrorIs(t, err, ErrClosed)
			})

			t.Run("transaction rollback on error", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				require.NoError(t, s.Append(RawEvent{7, "/a"}))
				boom := errors.New("boom")
				err := s.(Transactional).Transaction(func(lines []string) ([]string, error) {
					assert.Len(t, lines, 1)
					return nil, boom
				})
				assert.ErrorIs(t, err, boom)

				lines, err := s.ReadAll()
				require.NoError(t, err)
				assert.Equal(t, []string{"0000000007 /a"}, lines)
			})
		})
	}
}

// =============================================================================
// FILE STORE SPECIFICS
// =============================================================================

func TestFileStore_MissingDirectoryIsIOFailure(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing", "watchlog.txt"))

	err := s.Append(RawEvent{1, "/a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIOFailure)

	err = s.ReplaceAll([]string{"saved 0 0 /a"})
	assert.ErrorIs(t, err, ErrIOFailure)
}

func TestFileStore_ReadsLegacyContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlog.txt")
	content := "saved 3 1000 /home/u/proj\n1354972800 /home/u/proj/a\n\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lines, err := NewFileStore(path).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"saved 3 1000 /home/u/proj", "1354972800 /home/u/proj/a", ""}, lines)
}

func TestFileStore_ConcurrentAppendAndCompact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlog.txt")
	writer := NewFileStore(path)
	compactor := NewFileStore(path)

	const events = 200
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < events; i++ {
			if err := writer.Append(RawEvent{int64(i), "/a"}); err != nil {
				t.Errorf("append %d: %v", i, err)
				return
			}
		}
	}()

	// Each compaction folds raw lines into a running total; none may be lost.
	total := 0
	for i := 0; i < 20; i++ {
		err := compactor.Transaction(func(lines []string) ([]string, error) {
			for _, l := range lines {
				if l != "" {
					total++
				}
			}
			return nil, nil
		})
		require.NoError(t, err)
	}
	wg.Wait()

	lines, err := compactor.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, events, total+len(lines))
}

// =============================================================================
// FACTORY
// =============================================================================

func TestOpen_SelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Dir = t.TempDir()

	s, err := Open(cfg)
	require.NoError(t, err)
	fs, ok := s.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, cfg.LogPath(), fs.Path())
	require.NoError(t, s.Close())

	cfg.Store.Backend = config.BackendSQLite
	s, err = Open(cfg)
	require.NoError(t, err)
	ss, ok := s.(*SQLiteStore)
	require.True(t, ok)
	assert.Equal(t, cfg.SQLitePath(), ss.Path())
	require.NoError(t, s.Close())

	cfg.Store.Backend = "bogus"
	_, err = Open(cfg)
	assert.Error(t, err)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlog.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(RawEvent{42, "/proj/file"}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	lines, err := s.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"0000000042 /proj/file"}, lines)
}

func TestSQLiteDSN_ImmediateTransactions(t *testing.T) {
	dsn := sqliteDSN("/tmp/x/watchlog.db")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.True(t, strings.HasPrefix(dsn, "/tmp/x/watchlog.db?"))
}

func TestSQLiteStore_ConcurrentAppendAndCompact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlog.db")
	writer, err := OpenSQLite(path)
	require.NoError(t, err)
	defer writer.Close()
	compactor, err := OpenSQLite(path)
	require.NoError(t, err)
	defer compactor.Close()

	const events = 100
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < events; i++ {
			if err := writer.Append(RawEvent{int64(i), "/a"}); err != nil {
				t.Errorf("append %d: %v", i, err)
				return
			}
		}
	}()

	total := 0
	for i := 0; i < 20; i++ {
		err := compactor.Transaction(func(lines []string) ([]string, error) {
			total += len(lines)
			return nil, nil
		})
		require.NoError(t, err)
	}
	wg.Wait()

	lines, err := compactor.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, events, total+len(lines))
}
