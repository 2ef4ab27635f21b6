// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watchlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watchlist.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DeduplicatesAndKeepsOrder(t *testing.T) {
	path := writeList(t, "/b\n\n/a\n/b\n  /c  \n")

	w, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/b", "/a", "/c"}, w.List())
	assert.Equal(t, 3, w.Len())
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	w, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	assert.Zero(t, w.Len())
}

func TestAdd(t *testing.T) {
	project := t.TempDir()
	path := writeList(t, "")

	w, err := Load(path)
	require.NoError(t, err)

	got, err := w.Add(project + "/./")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(project), got)

	// Second add is a no-op
	_, err = w.Add(project)
	require.NoError(t, err)

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Clean(project)}, reloaded.List())
}

func TestAdd_MissingPathLeavesFileUnchanged(t *testing.T) {
	path := writeList(t, "/existing\n")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	w, err := Load(path)
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	resolved, err := w.Add(missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathNotFound)
	assert.Equal(t, missing, resolved)
	assert.Equal(t, []string{"/existing"}, w.List())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAdd_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.Mkdir(filepath.Join(home, "proj"), 0755))

	w, err := Load(writeList(t, ""))
	require.NoError(t, err)

	got, err := w.Add("~/proj")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "proj"), got)
}

func TestRemoveAt(t *testing.T) {
	path := writeList(t, "/a\n/b\n/c\n")
	w, err := Load(path)
	require.NoError(t, err)

	removed, err := w.RemoveAt(1)
	require.NoError(t, err)
	assert.Equal(t, "/b", removed)
	assert.Equal(t, []string{"/a", "/c"}, w.List())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/a\n/c\n", string(data))
}

func TestRemoveAt_OutOfRange(t *testing.T) {
	w, err := Load(writeList(t, "/a\n"))
	require.NoError(t, err)

	for _, idx := range []int{-1, 1, 42} {
		_, err := w.RemoveAt(idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", idx)
	}
	assert.Equal(t, []string{"/a"}, w.List())
}

func TestList_ReturnsCopy(t *testing.T) {
	w, err := Load(writeList(t, "/a\n"))
	require.NoError(t, err)

	l := w.List()
	l[0] = "/mutated"
	assert.Equal(t, []string{"/a"}, w.List())
}

func TestResolve_Empty(t *testing.T) {
	_, err := Resolve("   ")
	assert.ErrorIs(t, err, ErrPathNotFound)
}
