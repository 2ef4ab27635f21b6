// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package eventlog

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SchemaVersion tracks the database schema version for migrations.
const SchemaVersion = 1

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per log line; id preserves storage order
CREATE TABLE IF NOT EXISTS log_lines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    line TEXT NOT NULL
);
`

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore keeps log lines in a SQLite database. Lines are stored
// verbatim so the tracker sees exactly what a FileStore would return.
type SQLiteStore struct {
	db   *sql.DB
	path string

	mu     sync.Mutex
	closed bool
}

// sqliteDSN takes the write lock at BEGIN so a compaction never has to
// upgrade a read snapshot while the daemon appends.
func sqliteDSN(path string) string {
	return path + "?_txlock=immediate&_pragma=busy_timeout(5000)"
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, ioFailure("open database", err)
	}

	// One writer; SQLite serialises writes anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000", // daemon and stats may overlap
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, ioFailure(pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, ioFailure("create schema", err)
	}
	if _, err := db.Exec(
		`INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)`,
		fmt.Sprint(SchemaVersion),
	); err != nil {
		db.Close()
		return nil, ioFailure("write schema version", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Append inserts one raw event line.
func (s *SQLiteStore) Append(ev RawEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	if _, err := s.db.Exec(`INSERT INTO log_lines (line) VALUES (?)`, ev.Line()); err != nil {
		return ioFailure("append", err)
	}
	return nil
}

// ReadAll returns every line ordered by insertion.
func (s *SQLiteStore) ReadAll() ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return readLines(s.db)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func readLines(q querier) ([]string, error) {
	rows, err := q.Query(`SELECT line FROM log_lines ORDER BY id`)
	if err != nil {
		return nil, ioFailure("read", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, ioFailure("scan", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, ioFailure("read", err)
	}
	return lines, nil
}

// ReplaceAll deletes every row and inserts lines in a single transaction.
func (s *SQLiteStore) ReplaceAll(lines []string) error {
	return s.Transaction(func([]string) ([]string, error) {
		return lines, nil
	})
}

// Transaction runs a read-modify-write inside one SQL transaction.
// Returning an error from fn rolls back and leaves the log untouched.
func (s *SQLiteStore) Transaction(fn func(lines []string) ([]string, error)) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return ioFailure("begin", err)
	}
	defer tx.Rollback()

	current, err := readLines(tx)
	if err != nil {
		return err
	}
	replacement, err := fn(current)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM log_lines`); err != nil {
		return ioFailure("clear", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO log_lines (line) VALUES (?)`)
	if err != nil {
		return ioFailure("prepare", err)
	}
	defer stmt.Close()

	for _, line := range replacement {
		if _, err := stmt.Exec(line); err != nil {
			return ioFailure("insert", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ioFailure("commit", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}
