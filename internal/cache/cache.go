// Package cache is a small SQLite-backed key/value store with a TTL and a
// total size cap, used for data derived from decoded audio.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

const (
	DefaultTTL     = 30 * 24 * time.Hour
	DefaultMaxSize = 16 << 20
)

// Store is a persistent cache. Entries older than ttl are treated as
// missing; when the sum of value sizes exceeds maxSize the least recently
// used entries are evicted.
type Store struct {
	db      *sql.DB
	ttl     time.Duration
	maxSize int64
	now     func() time.Time
}

// Open opens (or creates) the cache database at path. Zero ttl or maxSize
// select the defaults.
func Open(path string, ttl time.Duration, maxSize int64) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and
	// serialises writers.
	db.SetMaxOpenConns(1)

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	s := &Store{db: db, ttl: ttl, maxSize: maxSize, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache migration failed: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		size INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		accessed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS entries_accessed ON entries(accessed_at);
	`)
	return err
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	now := s.now()
	var value []byte
	var created int64
	row := s.db.QueryRowContext(ctx, "SELECT value, created_at FROM entries WHERE key = ?", key)
	if err := row.Scan(&value, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("cache get %q: %w", key, err)
	}
	if now.Sub(time.Unix(0, created)) > s.ttl {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE key = ?", key); err != nil {
			return nil, fmt.Errorf("cache expire %q: %w", key, err)
		}
		return nil, ErrMiss
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE entries SET accessed_at = ? WHERE key = ?", now.UnixNano(), key); err != nil {
		return nil, fmt.Errorf("cache touch %q: %w", key, err)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value, then evicts
// expired and least recently used entries until the store fits maxSize.
// A value larger than maxSize is not stored.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if int64(len(value)) > s.maxSize {
		return nil
	}
	now := s.now().UnixNano()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (key, value, size, created_at, accessed_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, size = excluded.size,
			created_at = excluded.created_at, accessed_at = excluded.accessed_at
	`, key, value, len(value), now, now)
	if err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}

	expired := now - s.ttl.Nanoseconds()
	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE created_at < ?", expired); err != nil {
		return fmt.Errorf("cache evict expired: %w", err)
	}

	var total int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(SUM(size), 0) FROM entries").Scan(&total); err != nil {
		return fmt.Errorf("cache size: %w", err)
	}
	for total > s.maxSize {
		var victim string
		var size int64
		err := tx.QueryRowContext(ctx,
			"SELECT key, size FROM entries WHERE key != ? ORDER BY accessed_at ASC LIMIT 1", key,
		).Scan(&victim, &size)
		if err == sql.ErrNoRows {
			break
		}
		if err != nil {
			return fmt.Errorf("cache evict: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE key = ?", victim); err != nil {
			return fmt.Errorf("cache evict %q: %w", victim, err)
		}
		total -= size
	}
	return tx.Commit()
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func peaksKey(hash string, n int) string {
	return fmt.Sprintf("peaks:%s:%d", hash, n)
}

// Peaks returns a cached waveform overview for the audio file hash.
func (s *Store) Peaks(ctx context.Context, hash string, n int) ([]float64, error) {
	raw, err := s.Get(ctx, peaksKey(hash, n))
	if err != nil {
		return nil, err
	}
	var peaks []float64
	if err := json.Unmarshal(raw, &peaks); err != nil || len(peaks) != n {
		return nil, ErrMiss
	}
	return peaks, nil
}

// PutPeaks stores a waveform overview for the audio file hash.
func (s *Store) PutPeaks(ctx context.Context, hash string, peaks []float64) error {
	raw, err := json.Marshal(peaks)
	if err != nil {
		return err
	}
	return s.Put(ctx, peaksKey(hash, len(peaks)), raw)
}
