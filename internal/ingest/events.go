package ingest

import (
	"context"

	"github.com/gazure/arenabuddy/internal/draft"
	"github.com/gazure/arenabuddy/internal/match"
	"github.com/gazure/arenabuddy/internal/parser"
)

// Event is a lifecycle notification surfaced to the registered handler. It
// is a closed set: MatchCompleted, DraftCompleted, DraftPackNoticed,
// TelemetryObserved, ParseFailed, LogRotated.
type Event interface {
	event()
}

func (MatchCompleted) event()    {}
func (DraftCompleted) event()    {}
func (DraftPackNoticed) event()  {}
func (TelemetryObserved) event() {}
func (ParseFailed) event()       {}
func (LogRotated) event()        {}

// MatchCompleted carries a finished, validated match replay.
type MatchCompleted struct {
	Replay *match.Replay
}

// DraftCompleted carries a finished draft session.
type DraftCompleted struct {
	Result *draft.Result
}

// DraftPackNoticed reports a draft pack offer as it is ingested, before the
// session completes.
type DraftPackNoticed struct {
	EventName string
	Pack      parser.DraftPack
}

// TelemetryObserved reports a relevant business event.
type TelemetryObserved struct {
	Telemetry parser.Telemetry
}

// ParseFailed reports a line whose envelope tag matched but whose payload
// failed structural decode. Never fatal to ingestion.
type ParseFailed struct {
	Line string
	Err  error
}

// LogRotated reports that the underlying log file was replaced and the
// cursor restarted from the top.
type LogRotated struct{}

// Handler receives lifecycle events synchronously on the ingestion
// goroutine. Implementations must not block.
type Handler interface {
	HandleEvent(Event)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(Event)

// HandleEvent implements Handler.
func (f HandlerFunc) HandleEvent(e Event) { f(e) }

// MatchSink persists completed match replays. Multiple sinks may be
// registered; each is attempted per aggregate.
type MatchSink interface {
	WriteMatch(ctx context.Context, r *match.Replay) error
}

// DraftSink persists completed draft sessions.
type DraftSink interface {
	WriteDraft(ctx context.Context, d *draft.Result) error
}
