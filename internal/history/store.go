// Package history persists confirmed prompts in SQLite so they can be
// recalled with a back/forward cursor.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultMaxEntries is the number of prompts kept when no limit is given.
const DefaultMaxEntries = 1000

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store is closed")

// Entry is one recorded prompt.
type Entry struct {
	ID     int64
	Source string
	Prompt string
	At     time.Time
}

// Store is an append-only prompt log backed by SQLite.
type Store struct {
	db         *sql.DB
	maxEntries int
	now        func() time.Time

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

// Open opens (creating if needed) the history database at path. The store
// keeps at most maxEntries prompts; a value <= 0 selects DefaultMaxEntries.
func Open(path string, maxEntries int) (*Store, error) {
	if path == "" {
		return nil, errors.New("history: database path is required")
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	// modernc.org/sqlite uses _pragma=name(value) syntax
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	s := &Store{
		db:         db,
		maxEntries: maxEntries,
		now:        time.Now,
		closed:     make(chan struct{}),
	}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run history migrations: %w", err)
	}
	return s, nil
}

// Close closes the database. It is safe to call Close multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func (s *Store) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Append records prompt for source. Empty prompts and a repeat of the
// source's latest prompt are ignored. The oldest prompts beyond the store's
// limit are pruned. It reports whether a row was written.
func (s *Store) Append(ctx context.Context, source, prompt string) (bool, error) {
	if s.isClosed() {
		return false, ErrClosed
	}
	if strings.TrimSpace(prompt) == "" {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var last string
	err = tx.QueryRowContext(ctx, `
		SELECT prompt FROM prompts WHERE source = ? ORDER BY id DESC LIMIT 1
	`, source).Scan(&last)
	switch {
	case err == nil && last == prompt:
		return false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("failed to read last prompt: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO prompts (source, prompt, ts_unix_ms) VALUES (?, ?, ?)
	`, source, prompt, s.now().UnixMilli()); err != nil {
		return false, fmt.Errorf("failed to insert prompt: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM prompts WHERE id NOT IN (
			SELECT id FROM prompts ORDER BY id DESC LIMIT ?
		)
	`, s.maxEntries); err != nil {
		return false, fmt.Errorf("failed to prune history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit history: %w", err)
	}
	return true, nil
}

// Recent returns up to limit prompts, most recent first. An empty source
// matches every source; limit <= 0 returns everything kept.
func (s *Store) Recent(ctx context.Context, source string, limit int) ([]Entry, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = s.maxEntries
	}

	query := `SELECT id, source, prompt, ts_unix_ms FROM prompts`
	args := []any{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Source, &e.Prompt, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.At = time.UnixMilli(ts)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return out, nil
}

// Clear deletes the prompts of source, or every prompt when source is empty.
func (s *Store) Clear(ctx context.Context, source string) (int64, error) {
	if s.isClosed() {
		return 0, ErrClosed
	}
	var (
		res sql.Result
		err error
	)
	if source == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM prompts`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM prompts WHERE source = ?`, source)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}

// Cursor loads the prompts of source for navigation.
func (s *Store) Cursor(ctx context.Context, source string) (*Cursor, error) {
	recent, err := s.Recent(ctx, source, 0)
	if err != nil {
		return nil, err
	}
	prompts := make([]string, len(recent))
	for i, e := range recent {
		prompts[len(recent)-1-i] = e.Prompt
	}
	return NewCursor(prompts), nil
}

func (s *Store) migrate(ctx context.Context) error {
	currentVersion := 0
	err := s.db.QueryRowContext(ctx, `
		SELECT version FROM schema_meta ORDER BY version DESC LIMIT 1
	`).Scan(&currentVersion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) && !strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{version: 1, sql: migrationV1},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration v%d failed: %w", m.version, err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO schema_meta (version, applied_at_unix_ms)
			VALUES (?, ?)
		`, m.version, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.version, err)
		}
	}
	return nil
}

const migrationV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
  version INTEGER PRIMARY KEY,
  applied_at_unix_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS prompts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL,
  prompt TEXT NOT NULL,
  ts_unix_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prompts_source ON prompts(source, id DESC);
`
