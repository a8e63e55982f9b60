package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gazure/arenabuddy/internal/cards"
	"github.com/gazure/arenabuddy/internal/draft"
	"github.com/gazure/arenabuddy/internal/match"
)

// SQLiteSink persists aggregates to a local SQLite database. The full record
// is stored as JSON next to the columns queries filter on.
type SQLiteSink struct {
	db     *sql.DB
	lookup cards.Lookup
}

// NewSQLiteSink opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteSink(path string, lookup cards.Lookup) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLiteSink{db: db, lookup: lookup}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			match_id TEXT PRIMARY KEY,
			controller TEXT NOT NULL DEFAULT '',
			opponent TEXT NOT NULL DEFAULT '',
			format TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL DEFAULT '',
			match_winning_seat INTEGER NOT NULL DEFAULT 0,
			record TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS drafts (
			event_name TEXT NOT NULL,
			started_at TEXT NOT NULL DEFAULT '',
			record TEXT NOT NULL,
			PRIMARY KEY (event_name, started_at)
		)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// WriteMatch upserts one match record keyed by match id, so a re-read log
// never duplicates a row.
func (s *SQLiteSink) WriteMatch(ctx context.Context, r *match.Replay) error {
	rec := NewMatchRecord(r, s.lookup)
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal match record: %w", err)
	}
	startedAt := ""
	if !rec.StartedAt.IsZero() {
		startedAt = rec.StartedAt.Format(time.RFC3339)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO matches (match_id, controller, opponent, format, started_at, match_winning_seat, record)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id) DO UPDATE SET
			controller = excluded.controller,
			opponent = excluded.opponent,
			format = excluded.format,
			started_at = excluded.started_at,
			match_winning_seat = excluded.match_winning_seat,
			record = excluded.record`,
		rec.MatchID, rec.Controller, rec.Opponent, rec.Format, startedAt, rec.MatchWinningSeat, string(blob))
	if err != nil {
		return fmt.Errorf("upsert match %s: %w", rec.MatchID, err)
	}
	return nil
}

// WriteDraft upserts one draft record.
func (s *SQLiteSink) WriteDraft(ctx context.Context, d *draft.Result) error {
	rec := NewDraftRecord(d)
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal draft record: %w", err)
	}
	startedAt := ""
	if !rec.StartedAt.IsZero() {
		startedAt = rec.StartedAt.Format(time.RFC3339)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (event_name, started_at, record)
		VALUES (?, ?, ?)
		ON CONFLICT (event_name, started_at) DO UPDATE SET record = excluded.record`,
		rec.EventName, startedAt, string(blob))
	if err != nil {
		return fmt.Errorf("upsert draft %s: %w", rec.EventName, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
