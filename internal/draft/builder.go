// Package draft accumulates draft-pack pick events into finished draft
// records. It mirrors the match builder's Idle/Open shape, but completion is
// driven by telemetry events rather than room state changes.
package draft

import (
	"errors"
	"time"

	"github.com/gazure/arenabuddy/internal/parser"
)

// ErrNoPicks means a draft completion arrived for a context that never
// accumulated a pick.
var ErrNoPicks = errors.New("draft completed without any picks")

// Pick is one pack/pick/selection coordinate with the cards offered and the
// card taken.
type Pick struct {
	PackNumber      int
	PickNumber      int
	SelectionNumber int
	Offered         []int
	Picked          int
}

// Result is the immutable finished record of one draft session.
type Result struct {
	EventName string
	StartedAt time.Time
	Picks     []Pick
}

// Builder accumulates draft pack telemetry until a completion event closes
// the session. Idle when ctx is nil.
type Builder struct {
	ctx *context
}

type context struct {
	eventName string
	startedAt time.Time
	picks     []Pick
}

// NewBuilder returns an Idle builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Open reports whether a draft session is currently accumulating.
func (b *Builder) Open() bool {
	return b.ctx != nil
}

// Reset abandons any in-progress session.
func (b *Builder) Reset() {
	b.ctx = nil
}

// Ingest routes one telemetry event and reports whether the draft just
// completed. Non-draft telemetry is ignored.
func (b *Builder) Ingest(t parser.Telemetry) bool {
	switch t.EventType {
	case parser.TelemetryTypeDraftPack:
		if t.Draft == nil {
			return false
		}
		if b.ctx == nil {
			b.ctx = &context{eventName: t.EventName, startedAt: t.EventTime}
		}
		b.ctx.picks = append(b.ctx.picks, Pick{
			PackNumber:      t.Draft.PackNumber,
			PickNumber:      t.Draft.PickNumber,
			SelectionNumber: t.Draft.SelectionNumber,
			Offered:         append([]int(nil), t.Draft.CardsInPack...),
			Picked:          t.Draft.PickGrpID,
		})
	case parser.TelemetryTypeDraftComplete:
		return b.ctx != nil
	}
	return false
}

// Build consumes the open session into a Result. The builder returns to Idle
// whether or not the build succeeds.
func (b *Builder) Build() (*Result, error) {
	ctx := b.ctx
	b.ctx = nil
	if ctx == nil || len(ctx.picks) == 0 {
		return nil, ErrNoPicks
	}
	return &Result{
		EventName: ctx.eventName,
		StartedAt: ctx.startedAt,
		Picks:     ctx.picks,
	}, nil
}
