package match

import (
	"fmt"
	"time"

	"github.com/gazure/arenabuddy/internal/parser"
)

// Replay is the immutable finished record of one match. Everything else in
// this package is derived lazily from it by read methods; nothing mutates it
// after Build.
type Replay struct {
	matchID        string
	controllerSeat int
	start          parser.StateEvent
	end            parser.StateEvent
	log            []LogEntry
	telemetry      []parser.Telemetry
}

// MatchID returns the match's identifier.
func (r *Replay) MatchID() string { return r.matchID }

// ControllerSeat returns the seat whose perspective this replay represents.
func (r *Replay) ControllerSeat() int { return r.controllerSeat }

// PlayerNames reads the start boundary's room roster and returns the
// controller's and opponent's names, matched by seat id.
func (r *Replay) PlayerNames() (controller, opponent string, err error) {
	for _, p := range r.start.Players {
		if p.SystemSeatID == r.controllerSeat {
			controller = p.PlayerName
		} else {
			opponent = p.PlayerName
		}
	}
	if controller == "" || opponent == "" {
		return "", "", fmt.Errorf("match %s: %w", r.matchID, ErrPlayersNotFound)
	}
	return controller, opponent, nil
}

// Deck is one game's decklist. Game numbers are assigned 1..N by arrival
// order of the deck messages, never by any embedded numbering.
type Deck struct {
	GameNumber int
	Mainboard  []int
	Sideboard  []int
}

// Decks returns the decklist played in each game: the connect ack's embedded
// deck first, then one deck per submit message, in arrival order.
func (r *Replay) Decks() ([]Deck, error) {
	var decks []Deck
	for _, entry := range r.log {
		switch {
		case entry.Engine != nil:
			m := entry.Engine
			if m.Type == parser.EngineTypeConnectResp && m.ConnectResp != nil && len(decks) == 0 {
				decks = append(decks, deckFromMessage(1, m.ConnectResp.DeckMessage))
			}
		case entry.Client != nil:
			p := entry.Client.Payload
			if p.Type == parser.ClientTypeSubmitDeckResp && p.SubmitDeckResp != nil {
				decks = append(decks, deckFromMessage(len(decks)+1, p.SubmitDeckResp.Deck))
			}
		}
	}
	if len(decks) == 0 {
		return nil, fmt.Errorf("match %s: %w", r.matchID, ErrDecksNotFound)
	}
	return decks, nil
}

func deckFromMessage(game int, msg parser.DeckMessage) Deck {
	return Deck{
		GameNumber: game,
		Mainboard:  append([]int(nil), msg.DeckCards...),
		Sideboard:  append([]int(nil), msg.SideboardCards...),
	}
}

// DeckDiff is the card-id delta between two consecutive games' mainboards.
type DeckDiff struct {
	FromGame int
	ToGame   int
	Added    []int
	Removed  []int
}

// DeckDiffs pairs each consecutive decklist and computes its mainboard diff.
// A match with a single decklist has no diffs.
func (r *Replay) DeckDiffs() ([]DeckDiff, error) {
	decks, err := r.Decks()
	if err != nil {
		return nil, err
	}
	diffs := make([]DeckDiff, 0, len(decks)-1)
	for i := 1; i < len(decks); i++ {
		prev, next := decks[i-1], decks[i]
		diffs = append(diffs, DeckDiff{
			FromGame: prev.GameNumber,
			ToGame:   next.GameNumber,
			Added:    multisetDiff(next.Mainboard, prev.Mainboard),
			Removed:  multisetDiff(prev.Mainboard, next.Mainboard),
		})
	}
	return diffs, nil
}

// multisetDiff returns the card ids in a that are not matched one-for-one
// by copies in b, preserving a's order.
func multisetDiff(a, b []int) []int {
	counts := make(map[int]int, len(b))
	for _, id := range b {
		counts[id]++
	}
	var out []int
	for _, id := range a {
		if counts[id] > 0 {
			counts[id]--
			continue
		}
		out = append(out, id)
	}
	return out
}

// GameWin is one per-game result. GameNumber is the 1-based position among
// game-scoped entries of the final result list.
type GameWin struct {
	GameNumber  int
	WinningSeat int
}

// Results is the typed view of the end boundary's result list.
type Results struct {
	Games []GameWin
	// MatchWinningSeat is zero when the result list carried no match-scope
	// entry.
	MatchWinningSeat int
}

// Results reads the end boundary's embedded result list, splitting per-game
// results from the match-level one by their scope tag.
func (r *Replay) Results() (Results, error) {
	if r.end.FinalResult == nil {
		return Results{}, fmt.Errorf("match %s: %w", r.matchID, ErrResultsNotFound)
	}
	var res Results
	for _, entry := range r.end.FinalResult.ResultList {
		switch entry.Scope {
		case parser.ScopeGame:
			res.Games = append(res.Games, GameWin{
				GameNumber:  len(res.Games) + 1,
				WinningSeat: entry.WinningTeamID,
			})
		case parser.ScopeMatch:
			res.MatchWinningSeat = entry.WinningTeamID
		}
	}
	return res, nil
}

// StartTime returns the timestamp of the first telemetry event that carried
// one.
func (r *Replay) StartTime() (time.Time, error) {
	for _, t := range r.telemetry {
		if !t.EventTime.IsZero() {
			return t.EventTime, nil
		}
	}
	return time.Time{}, fmt.Errorf("match %s: %w", r.matchID, ErrStartTimeNotFound)
}

// Format returns the format label from the first telemetry event carrying
// one.
func (r *Replay) Format() (string, error) {
	for _, t := range r.telemetry {
		if t.EventType == parser.TelemetryTypeMatchStart && t.EventName != "" {
			return t.EventName, nil
		}
	}
	return "", fmt.Errorf("match %s: %w", r.matchID, ErrFormatNotFound)
}
