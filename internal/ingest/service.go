// Package ingest drives the continuous log ingestion loop: poll the log for
// new lines, classify each one, route outcomes to the match and draft
// builders, and fan completed aggregates out to the registered sinks. All
// mutable state is owned by the single goroutine running the loop.
package ingest

import (
	"context"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/sirupsen/logrus"

	"github.com/gazure/arenabuddy/internal/draft"
	"github.com/gazure/arenabuddy/internal/match"
	"github.com/gazure/arenabuddy/internal/parser"
)

// Duplicate-suppression filter sizing: far more matches than any client
// produces between restarts.
const (
	seenMatchCapacity = 100_000
	seenMatchFPRate   = 0.001
)

// Config is the ingestion surface: where the log lives and how to follow it.
type Config struct {
	Path          string
	Follow        bool
	PollInterval  time.Duration
	WatchRotation bool
}

// Service owns one classifier pass, one match builder, one draft builder,
// the sink lists, and an optional lifecycle handler.
type Service struct {
	cfg Config
	log *logrus.Entry

	tailer       *Tailer
	matchBuilder *match.Builder
	draftBuilder *draft.Builder

	matchSinks []MatchSink
	draftSinks []DraftSink
	handler    Handler

	// seen suppresses re-emission of a match id already fanned out, which
	// otherwise happens when a rotation rewinds the cursor over old lines.
	seen *bloom.BloomFilter
}

// New creates a service for the given config. Sinks and the handler are
// attached before Run.
func New(cfg Config, log *logrus.Logger) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Service{
		cfg:          cfg,
		log:          log.WithField("component", "ingest"),
		tailer:       NewTailer(cfg.Path),
		matchBuilder: match.NewBuilder(),
		draftBuilder: draft.NewBuilder(),
		seen:         bloom.NewWithEstimates(seenMatchCapacity, seenMatchFPRate),
	}
}

// AddMatchSink registers a sink for completed match replays.
func (s *Service) AddMatchSink(sink MatchSink) {
	s.matchSinks = append(s.matchSinks, sink)
}

// AddDraftSink registers a sink for completed drafts.
func (s *Service) AddDraftSink(sink DraftSink) {
	s.draftSinks = append(s.draftSinks, sink)
}

// SetHandler registers the lifecycle event handler.
func (s *Service) SetHandler(h Handler) {
	s.handler = h
}

// Run drives the ingestion loop until the context is cancelled or, with
// Follow disabled, until a tick drains no new lines. A rotation watcher that
// cannot be set up is fatal; an undetected rotation would silently risk
// stale or duplicated reads.
func (s *Service) Run(ctx context.Context) error {
	var rotations <-chan struct{}
	if s.cfg.WatchRotation {
		watcher, err := NewRotationWatcher(s.cfg.Path, s.log.Logger)
		if err != nil {
			return err
		}
		defer watcher.Close()
		rotations = watcher.C
	}

	s.log.WithFields(logrus.Fields{
		"path":   s.cfg.Path,
		"follow": s.cfg.Follow,
	}).Info("ingestion started")

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("ingestion stopped")
			return ctx.Err()
		case <-rotations:
			s.handleRotation()
		case <-ticker.C:
			drained, err := s.drain(ctx)
			if err != nil {
				s.log.WithError(err).Error("drain failed")
				continue
			}
			if !s.cfg.Follow && drained == 0 {
				s.log.Info("log exhausted")
				return nil
			}
		}
	}
}

// drain classifies every currently-available new line and routes the
// outcomes. Returns how many lines were consumed.
func (s *Service) drain(ctx context.Context) (int, error) {
	lines, err := s.tailer.ReadAvailable()
	if err != nil {
		return 0, err
	}
	for _, line := range lines {
		s.dispatch(ctx, parser.Classify(line))
	}
	return len(lines), nil
}

func (s *Service) dispatch(ctx context.Context, outcome parser.Outcome) {
	switch v := outcome.(type) {
	case parser.NoMatch:
	case parser.ParseError:
		s.log.WithError(v.Err).Debug("unparseable payload")
		s.emit(ParseFailed{Line: v.Line, Err: v.Err})
	case parser.Telemetry:
		if v.Draft != nil {
			s.emit(DraftPackNoticed{EventName: v.EventName, Pack: *v.Draft})
		}
		if v.Relevant() {
			s.emit(TelemetryObserved{Telemetry: v})
		}
		s.matchBuilder.Ingest(v)
		if s.draftBuilder.Ingest(v) {
			s.finishDraft(ctx)
		}
	case parser.EngineBatch, parser.ClientMessage, parser.StateEvent:
		if s.matchBuilder.Ingest(outcome) {
			s.finishMatch(ctx)
		}
	}
}

// finishMatch builds the completed aggregate and fans it out. Build failures
// drop the context; nothing partial is ever persisted.
func (s *Service) finishMatch(ctx context.Context) {
	replay, err := s.matchBuilder.Build()
	if err != nil {
		s.log.WithError(err).Warn("dropping unreconstructable match")
		return
	}
	if s.seen.TestString(replay.MatchID()) {
		s.log.WithField("match_id", replay.MatchID()).Info("skipping already-emitted match")
		return
	}
	s.seen.AddString(replay.MatchID())

	failed := 0
	for _, sink := range s.matchSinks {
		if err := sink.WriteMatch(ctx, replay); err != nil {
			failed++
			s.log.WithError(err).WithField("match_id", replay.MatchID()).Error("match sink write failed")
		}
	}
	if failed > 0 {
		s.log.WithField("failed_sinks", failed).Warn("match fan-out incomplete")
	}
	s.emit(MatchCompleted{Replay: replay})
}

func (s *Service) finishDraft(ctx context.Context) {
	result, err := s.draftBuilder.Build()
	if err != nil {
		s.log.WithError(err).Warn("dropping unreconstructable draft")
		return
	}
	for _, sink := range s.draftSinks {
		if err := sink.WriteDraft(ctx, result); err != nil {
			s.log.WithError(err).WithField("event", result.EventName).Error("draft sink write failed")
		}
	}
	s.emit(DraftCompleted{Result: result})
}

// handleRotation rebuilds the cursor from scratch and abandons any in-flight
// context. A half-built match from the rotated-away file can never complete.
func (s *Service) handleRotation() {
	s.tailer.Reset()
	if s.matchBuilder.Open() {
		s.log.Warn("abandoning in-flight match on rotation")
		s.matchBuilder.Reset()
	}
	if s.draftBuilder.Open() {
		s.log.Warn("abandoning in-flight draft on rotation")
		s.draftBuilder.Reset()
	}
	s.emit(LogRotated{})
}

func (s *Service) emit(e Event) {
	if s.handler != nil {
		s.handler.HandleEvent(e)
	}
}
