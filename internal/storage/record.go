// Package storage provides reference sink implementations for completed
// aggregates: a rotating JSONL file sink, a SQLite sink, and a Postgres
// sink. The ingestion core only depends on the sink interfaces; these are
// the batteries included for running the tracker end to end.
package storage

import (
	"time"

	"github.com/gazure/arenabuddy/internal/cards"
	"github.com/gazure/arenabuddy/internal/draft"
	"github.com/gazure/arenabuddy/internal/match"
)

// MatchRecord is the flattened, persisted form of a completed replay.
type MatchRecord struct {
	MatchID          string                 `json:"match_id"`
	ControllerSeat   int                    `json:"controller_seat"`
	Controller       string                 `json:"controller,omitempty"`
	Opponent         string                 `json:"opponent,omitempty"`
	Format           string                 `json:"format,omitempty"`
	StartedAt        time.Time              `json:"started_at,omitempty"`
	Decks            []match.Deck           `json:"decks,omitempty"`
	DeckDiffs        []match.DeckDiff       `json:"deck_diffs,omitempty"`
	Mulligans        []match.MulliganRecord `json:"mulligans,omitempty"`
	Games            []match.GameWin        `json:"games,omitempty"`
	MatchWinningSeat int                    `json:"match_winning_seat,omitempty"`
}

// NewMatchRecord assembles the persisted form of a replay. Each derivation
// that fails leaves its field empty rather than blanking the whole record;
// one missing sub-record should not cost the rest.
func NewMatchRecord(r *match.Replay, lookup cards.Lookup) MatchRecord {
	rec := MatchRecord{
		MatchID:        r.MatchID(),
		ControllerSeat: r.ControllerSeat(),
	}
	if controller, opponent, err := r.PlayerNames(); err == nil {
		rec.Controller = controller
		rec.Opponent = opponent
	}
	if format, err := r.Format(); err == nil {
		rec.Format = format
	}
	if started, err := r.StartTime(); err == nil {
		rec.StartedAt = started
	}
	if decks, err := r.Decks(); err == nil {
		rec.Decks = decks
	}
	if diffs, err := r.DeckDiffs(); err == nil {
		rec.DeckDiffs = diffs
	}
	if mulligans, err := r.Mulligans(lookup); err == nil {
		rec.Mulligans = mulligans
	}
	if results, err := r.Results(); err == nil {
		rec.Games = results.Games
		rec.MatchWinningSeat = results.MatchWinningSeat
	}
	return rec
}

// DraftRecord is the persisted form of a completed draft session.
type DraftRecord struct {
	EventName string       `json:"event_name"`
	StartedAt time.Time    `json:"started_at,omitempty"`
	Picks     []draft.Pick `json:"picks"`
}

// NewDraftRecord assembles the persisted form of a draft result.
func NewDraftRecord(d *draft.Result) DraftRecord {
	return DraftRecord{
		EventName: d.EventName,
		StartedAt: d.StartedAt,
		Picks:     d.Picks,
	}
}
