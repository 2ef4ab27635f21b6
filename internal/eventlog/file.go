// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package eventlog

import (
	"fmt"
	"os"
	"sync"

	"github.com/Bystroushaak/Timetracker/internal/util"
)

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps the log as a UTF-8 text file, one record per line.
//
// Every operation holds an advisory lock on "<path>.lock": Append and
// ReplaceAll take it exclusively, ReadAll shared. A daemon appending while a
// stats pass compacts therefore cannot lose events between the read and the
// rewrite, as long as the pass holds the lock across both (see Transaction).
type FileStore struct {
	path     string
	lockPath string

	mu     sync.Mutex
	closed bool
}

// NewFileStore returns a store backed by the text file at path. The file is
// created on first Append if it does not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:     path,
		lockPath: path + ".lock",
	}
}

// Path returns the log file path.
func (s *FileStore) Path() string {
	return s.path
}

// Append writes one raw event line.
func (s *FileStore) Append(ev RawEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	lock, err := util.LockFile(s.lockPath, true)
	if err != nil {
		return ioFailure("lock", err)
	}
	defer lock.Unlock()

	return s.appendLine(ev.Line())
}

func (s *FileStore) appendLine(line string) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return ioFailure("open", err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return ioFailure("append", err)
	}
	if err := f.Close(); err != nil {
		return ioFailure("close", err)
	}
	return nil
}

// ReadAll returns every line of the log. A missing file reads as empty.
func (s *FileStore) ReadAll() ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	lock, err := util.LockFile(s.lockPath, false)
	if err != nil {
		return nil, ioFailure("lock", err)
	}
	defer lock.Unlock()

	return s.readLines()
}

func (s *FileStore) readLines() ([]string, error) {
	lines, err := util.ReadLines(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, ioFailure("read", err)
	}
	return lines, nil
}

// ReplaceAll atomically rewrites the log with lines.
func (s *FileStore) ReplaceAll(lines []string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	lock, err := util.LockFile(s.lockPath, true)
	if err != nil {
		return ioFailure("lock", err)
	}
	defer lock.Unlock()

	return s.writeLines(lines)
}

func (s *FileStore) writeLines(lines []string) error {
	if err := util.AtomicWriteLines(s.path, lines, 0644); err != nil {
		return ioFailure("rewrite", err)
	}
	return nil
}

// Transaction runs fn with the log's exclusive lock held across the whole
// read-modify-write. fn receives the current lines and returns the
// replacement; returning an error leaves the log untouched.
func (s *FileStore) Transaction(fn func(lines []string) ([]string, error)) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	lock, err := util.LockFile(s.lockPath, true)
	if err != nil {
		return ioFailure("lock", err)
	}
	defer lock.Unlock()

	lines, err := s.readLines()
	if err != nil {
		return err
	}
	replacement, err := fn(lines)
	if err != nil {
		return err
	}
	return s.writeLines(replacement)
}

// Close marks the store closed. The file store holds no open handles.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}
