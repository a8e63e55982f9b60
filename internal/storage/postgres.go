package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gazure/arenabuddy/internal/cards"
	"github.com/gazure/arenabuddy/internal/draft"
	"github.com/gazure/arenabuddy/internal/match"
)

// PostgresSink persists aggregates to a shared Postgres database, for setups
// where several machines feed one collection.
type PostgresSink struct {
	pool   *pgxpool.Pool
	lookup cards.Lookup
}

// NewPostgresSink connects to the database at dsn and ensures the schema
// exists.
func NewPostgresSink(ctx context.Context, dsn string, lookup cards.Lookup) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresSink{pool: pool, lookup: lookup}
	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			match_id TEXT PRIMARY KEY,
			controller TEXT NOT NULL DEFAULT '',
			opponent TEXT NOT NULL DEFAULT '',
			format TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMPTZ,
			match_winning_seat INT NOT NULL DEFAULT 0,
			record JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS drafts (
			event_name TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
			record JSONB NOT NULL,
			PRIMARY KEY (event_name, started_at)
		)`,
	}
	for _, q := range queries {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// WriteMatch upserts one match record keyed by match id.
func (s *PostgresSink) WriteMatch(ctx context.Context, r *match.Replay) error {
	rec := NewMatchRecord(r, s.lookup)
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal match record: %w", err)
	}
	var startedAt *time.Time
	if !rec.StartedAt.IsZero() {
		startedAt = &rec.StartedAt
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO matches (match_id, controller, opponent, format, started_at, match_winning_seat, record)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (match_id) DO UPDATE SET
			controller = excluded.controller,
			opponent = excluded.opponent,
			format = excluded.format,
			started_at = excluded.started_at,
			match_winning_seat = excluded.match_winning_seat,
			record = excluded.record`,
		rec.MatchID, rec.Controller, rec.Opponent, rec.Format, startedAt, rec.MatchWinningSeat, blob)
	if err != nil {
		return fmt.Errorf("upsert match %s: %w", rec.MatchID, err)
	}
	return nil
}

// WriteDraft upserts one draft record.
func (s *PostgresSink) WriteDraft(ctx context.Context, d *draft.Result) error {
	rec := NewDraftRecord(d)
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal draft record: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO drafts (event_name, started_at, record)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_name, started_at) DO UPDATE SET record = excluded.record`,
		rec.EventName, rec.StartedAt, blob)
	if err != nil {
		return fmt.Errorf("upsert draft %s: %w", rec.EventName, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() {
	s.pool.Close()
}
