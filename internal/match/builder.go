package match

import (
	"fmt"

	"github.com/gazure/arenabuddy/internal/parser"
)

// LogEntry is one element of a match's ordered message log. Exactly one of
// Engine/Client is set; arrival order across both families is preserved
// because later derivations depend on "most recent state before marker X".
type LogEntry struct {
	Engine *parser.EngineMessage
	Client *parser.ClientMessage
}

// Context is the transient accumulator for one in-progress match. It is only
// ever owned by a single Builder; nothing shares or locks it.
type Context struct {
	MatchID   string
	Start     *parser.StateEvent
	End       *parser.StateEvent
	Log       []LogEntry
	Telemetry []parser.Telemetry
}

// Builder is the match-boundary state machine: Idle (ctx == nil) or Open.
// It is moved turn-by-turn by the ingestion loop, never shared.
type Builder struct {
	ctx *Context
}

// NewBuilder returns an Idle builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Open reports whether a match context is currently accumulating.
func (b *Builder) Open() bool {
	return b.ctx != nil
}

// Reset abandons any in-progress context, returning to Idle. Used when the
// underlying log rotates away mid-match.
func (b *Builder) Reset() {
	b.ctx = nil
}

// Ingest routes one parse outcome into the state machine and reports whether
// the open match just completed. Outcomes that do not belong to a match
// (NoMatch, ParseError) and events arriving while Idle are dropped.
func (b *Builder) Ingest(o parser.Outcome) bool {
	switch v := o.(type) {
	case parser.StateEvent:
		return b.ingestStateEvent(v)
	case parser.EngineBatch:
		if b.ctx != nil {
			for i := range v.Messages {
				msg := v.Messages[i]
				b.ctx.Log = append(b.ctx.Log, LogEntry{Engine: &msg})
			}
		}
	case parser.ClientMessage:
		if b.ctx != nil {
			b.ctx.Log = append(b.ctx.Log, LogEntry{Client: &v})
		}
	case parser.Telemetry:
		if b.ctx != nil && v.Relevant() {
			b.ctx.Telemetry = append(b.ctx.Telemetry, v)
		}
	}
	return false
}

func (b *Builder) ingestStateEvent(ev parser.StateEvent) bool {
	switch {
	case ev.Opened():
		if b.ctx == nil {
			b.ctx = &Context{MatchID: ev.MatchID, Start: &ev}
			return false
		}
		// Re-announced room while already open: re-capture identity and
		// start boundary, keep the accumulated messages.
		b.ctx.MatchID = ev.MatchID
		b.ctx.Start = &ev
	case ev.Completed():
		if b.ctx != nil {
			b.ctx.End = &ev
			return true
		}
	}
	return false
}

// Build consumes the open context into an immutable Replay. It fails if any
// required boundary was never captured, or if no connect ack identifies the
// controller's seat; an aggregate with an unknown perspective is worthless.
// The builder returns to Idle whether or not the build succeeds.
func (b *Builder) Build() (*Replay, error) {
	ctx := b.ctx
	b.ctx = nil
	if ctx == nil {
		return nil, ErrMissingStartBoundary
	}
	if ctx.MatchID == "" {
		return nil, ErrMissingMatchID
	}
	if ctx.Start == nil {
		return nil, ErrMissingStartBoundary
	}
	if ctx.End == nil {
		return nil, fmt.Errorf("match %s: %w", ctx.MatchID, ErrMissingEndBoundary)
	}

	seat, ok := controllerSeat(ctx.Log)
	if !ok {
		return nil, fmt.Errorf("match %s: %w", ctx.MatchID, ErrControllerSeatNotFound)
	}

	return &Replay{
		matchID:        ctx.MatchID,
		controllerSeat: seat,
		start:          *ctx.Start,
		end:            *ctx.End,
		log:            ctx.Log,
		telemetry:      ctx.Telemetry,
	}, nil
}

// controllerSeat scans for the first connect ack and reads its seat list.
// The message-level list wins; the payload-level one covers client builds
// that nest it inside the ack.
func controllerSeat(log []LogEntry) (int, bool) {
	for _, entry := range log {
		m := entry.Engine
		if m == nil || m.Type != parser.EngineTypeConnectResp {
			continue
		}
		seats := m.SystemSeatIDs
		if len(seats) == 0 && m.ConnectResp != nil {
			seats = m.ConnectResp.SystemSeatIDs
		}
		if len(seats) == 0 {
			return 0, false
		}
		return seats[0], true
	}
	return 0, false
}
