package rating

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists ratings to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite rating store.
// The path should be a file path (e.g., "./ratings.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ratings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			node_id TEXT NOT NULL,
			stars INTEGER NOT NULL,
			submitted_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ratings_session_id
		ON ratings(session_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(r Rating) error {
	if r.Stars < 1 || r.Stars > 5 {
		return ErrInvalidStars
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	at := r.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO ratings (session_id, node_id, stars, submitted_at)
		VALUES (?, ?, ?, ?)
	`, r.SessionID, r.NodeID, r.Stars, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save rating: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(sessionID string) ([]Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT node_id, stars, submitted_at
		FROM ratings
		WHERE session_id = ?
		ORDER BY submitted_at, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]Rating, 0)
	for rows.Next() {
		r := Rating{SessionID: sessionID}
		var at string
		if err := rows.Scan(&r.NodeID, &r.Stars, &at); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		r.At, _ = time.Parse(time.RFC3339Nano, at)
		ratings = append(ratings, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}

	return ratings, nil
}

// DeleteSession implements Store.
func (s *SQLiteStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		DELETE FROM ratings WHERE session_id = ?
	`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session ratings: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
