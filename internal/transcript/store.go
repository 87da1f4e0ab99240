// Package transcript keeps a local sqlite record of every exchange.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Exchange is one prompt and the answer it produced.
type Exchange struct {
	ID         int64
	SessionID  string
	StartedAt  time.Time
	Duration   time.Duration
	Prompt     string
	Answer     string
	Iterations int
	ToolCalls  int
	Error      string
}

// Store appends exchanges for one process-level session.
type Store struct {
	db        *sql.DB
	sessionID string
}

var schemaStmts = []string{
	`CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		prompt TEXT NOT NULL,
		answer TEXT NOT NULL DEFAULT '',
		iterations INTEGER NOT NULL DEFAULT 0,
		tool_calls INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_exchanges_started_at ON exchanges(started_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, id);`,
}

// Open opens (creating if needed) the database at path and starts a new
// session id.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("transcript dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	// One writer at a time keeps sqlite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaStmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("transcript schema: %w", err)
		}
	}
	return &Store{db: db, sessionID: uuid.NewString()}, nil
}

// SessionID identifies the exchanges recorded through this Store.
func (s *Store) SessionID() string { return s.sessionID }

// Record appends e under the store's session id and returns its row id.
func (s *Store) Record(ctx context.Context, e Exchange) (int64, error) {
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges(session_id, started_at, duration_ms, prompt, answer, iterations, tool_calls, error)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		s.sessionID,
		e.StartedAt.UnixMilli(),
		e.Duration.Milliseconds(),
		e.Prompt,
		e.Answer,
		e.Iterations,
		e.ToolCalls,
		e.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("record exchange: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit exchanges across all sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Exchange, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, started_at, duration_ms, prompt, answer, iterations, tool_calls, error
		 FROM exchanges ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	out := make([]Exchange, 0, limit)
	for rows.Next() {
		var (
			e                Exchange
			startedMs, durMs int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &startedMs, &durMs, &e.Prompt, &e.Answer,
			&e.Iterations, &e.ToolCalls, &e.Error); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		e.StartedAt = time.UnixMilli(startedMs)
		e.Duration = time.Duration(durMs) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of recorded exchanges.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exchanges").Scan(&n)
	return n, err
}

func (s *Store) Close() error { return s.db.Close() }
