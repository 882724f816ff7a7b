// Package history records session lifecycle and page-view rows into a local
// SQLite database. The store is append-only audit data: nothing here is ever
// read back into a live session.
package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a sqlite-backed session audit recorder. It implements
// pager.Recorder; write failures are logged and swallowed so the dispatch
// loop never stalls on the audit trail.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and bootstraps the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	createSessionsTable := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		channel_id TEXT,
		pages INTEGER,
		started_at DATETIME,
		stopped_at DATETIME,
		stop_reason TEXT
	);`

	createEventsTable := `
	CREATE TABLE IF NOT EXISTS session_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		kind TEXT,
		page_index INTEGER,
		at DATETIME,
		FOREIGN KEY(session_id) REFERENCES sessions(id)
	);`

	if _, err := db.Exec(createSessionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	if _, err := db.Exec(createEventsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session_events table: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// SessionStarted records the session row and a start event.
func (s *Store) SessionStarted(sessionID, channelID string, pageCount int) {
	now := time.Now()
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO sessions (id, channel_id, pages, started_at) VALUES (?, ?, ?, ?)",
		sessionID, channelID, pageCount, now,
	)
	if err != nil {
		s.logger.Warn("failed to record session start", "session_id", sessionID, "error", err)
		return
	}
	s.recordEvent(sessionID, "create", 0, now)
}

// PageViewed records one page-view event.
func (s *Store) PageViewed(sessionID string, index int) {
	s.recordEvent(sessionID, "page_view", index, time.Now())
}

// SessionStopped stamps the session row and records a stop event.
func (s *Store) SessionStopped(sessionID, reason string) {
	now := time.Now()
	_, err := s.db.Exec(
		"UPDATE sessions SET stopped_at = ?, stop_reason = ? WHERE id = ?",
		now, reason, sessionID,
	)
	if err != nil {
		s.logger.Warn("failed to record session stop", "session_id", sessionID, "error", err)
		return
	}
	s.recordEvent(sessionID, "stop", -1, now)
}

func (s *Store) recordEvent(sessionID, kind string, index int, at time.Time) {
	_, err := s.db.Exec(
		"INSERT INTO session_events (session_id, kind, page_index, at) VALUES (?, ?, ?, ?)",
		sessionID, kind, index, at,
	)
	if err != nil {
		s.logger.Warn("failed to record session event", "session_id", sessionID, "kind", kind, "error", err)
	}
}

// EventCount returns the number of recorded events for a session.
func (s *Store) EventCount(sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM session_events WHERE session_id = ?", sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count session events: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
