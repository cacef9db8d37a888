package cache

import (
	"database/sql"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store persists cache entries in a sqlite file so results survive between runs.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("cache path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite cache %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Load returns the entry stored under key. A missing row is (Entry{}, false, nil).
func (s *Store) Load(key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		entry   Entry
		raw     string
		failed  int
		lookErr error
	)
	lookErr = s.withRetry("load entry", func() error {
		return s.db.QueryRow(
			`SELECT path, imports_json, parse_failed FROM import_results WHERE cache_key = ?`, key,
		).Scan(&entry.Path, &raw, &failed)
	})
	if stdErrors.Is(lookErr, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if lookErr != nil {
		return Entry{}, false, lookErr
	}
	if err := json.Unmarshal([]byte(raw), &entry.Imports); err != nil {
		return Entry{}, false, fmt.Errorf("decode cached imports for %q: %w", entry.Path, err)
	}
	if entry.Imports == nil {
		entry.Imports = map[string]int{}
	}
	entry.ParseFailed = failed != 0
	return entry, true, nil
}

// Save upserts an entry. Older rows for the same path are dropped so the file
// holds one result per source file.
func (s *Store) Save(key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(entry.Imports)
	if err != nil {
		return fmt.Errorf("encode imports for %q: %w", entry.Path, err)
	}
	failed := 0
	if entry.ParseFailed {
		failed = 1
	}
	return s.withRetry("save entry", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM import_results WHERE path = ? AND cache_key <> ?`, entry.Path, key); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`
INSERT INTO import_results (cache_key, path, imports_json, parse_failed, stored_at_utc)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(cache_key) DO UPDATE SET
  path=excluded.path,
  imports_json=excluded.imports_json,
  parse_failed=excluded.parse_failed,
  stored_at_utc=excluded.stored_at_utc
`, key, entry.Path, string(raw), failed, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// Count returns the number of stored rows.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.withRetry("count entries", func() error {
		return s.db.QueryRow(`SELECT COUNT(*) FROM import_results`).Scan(&n)
	})
	return n, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
