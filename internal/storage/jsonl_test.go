package storage

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gazure/arenabuddy/internal/draft"
	"github.com/gazure/arenabuddy/internal/match"
	"github.com/gazure/arenabuddy/internal/parser"
)

func sampleReplay(t *testing.T) *match.Replay {
	t.Helper()
	b := match.NewBuilder()
	outcomes := []parser.Outcome{
		parser.StateEvent{
			MatchID:   "m1",
			StateType: parser.RoomStatePlaying,
			Players: []parser.ReservedPlayer{
				{PlayerName: "Me", SystemSeatID: 2},
				{PlayerName: "Them", SystemSeatID: 1},
			},
		},
		parser.EngineBatch{Messages: []parser.EngineMessage{{
			Type:          parser.EngineTypeConnectResp,
			SystemSeatIDs: []int{2},
			ConnectResp:   &parser.ConnectResp{DeckMessage: parser.DeckMessage{DeckCards: []int{1, 2, 3}}},
		}}},
		parser.StateEvent{
			MatchID:   "m1",
			StateType: parser.RoomStateCompleted,
			FinalResult: &parser.FinalMatchResult{ResultList: []parser.GameResult{
				{Scope: parser.ScopeGame, WinningTeamID: 2},
				{Scope: parser.ScopeMatch, WinningTeamID: 2},
			}},
		},
	}
	for _, o := range outcomes {
		b.Ingest(o)
	}
	replay, err := b.Build()
	require.NoError(t, err)
	return replay
}

func sampleDraft() *draft.Result {
	return &draft.Result{
		EventName: "QuickDraft_FIN",
		StartedAt: time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC),
		Picks: []draft.Pick{
			{PackNumber: 1, PickNumber: 1, SelectionNumber: 1, Offered: []int{10, 11}, Picked: 11},
		},
	}
}

func readLines(t *testing.T, path string) []jsonlLine {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []jsonlLine
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line jsonlLine
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func warmFiles(t *testing.T, baseDir string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(baseDir, "warm"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, filepath.Join(baseDir, "warm", e.Name()))
	}
	return names
}

func TestJSONLSinkWritesRecords(t *testing.T) {
	baseDir := t.TempDir()
	sink, err := NewJSONLSink(baseDir, nil)
	require.NoError(t, err)

	require.NoError(t, sink.WriteMatch(context.Background(), sampleReplay(t)))
	require.NoError(t, sink.WriteDraft(context.Background(), sampleDraft()))
	require.NoError(t, sink.Close())

	warm := warmFiles(t, baseDir)
	require.Len(t, warm, 1, "closed file should land in warm storage")

	lines := readLines(t, warm[0])
	require.Len(t, lines, 2)
	assert.Equal(t, "match", lines[0].Kind)
	assert.Equal(t, "draft", lines[1].Kind)

	matchRec, ok := lines[0].Record.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "m1", matchRec["match_id"])
	assert.EqualValues(t, 2, matchRec["controller_seat"])
}

func TestJSONLSinkEmptyFileRemovedOnClose(t *testing.T) {
	baseDir := t.TempDir()
	sink, err := NewJSONLSink(baseDir, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	assert.Empty(t, warmFiles(t, baseDir), "empty files should be discarded, not promoted")
	hot, err := os.ReadDir(filepath.Join(baseDir, "hot"))
	require.NoError(t, err)
	assert.Empty(t, hot)
}

func TestJSONLArchiveWarm(t *testing.T) {
	baseDir := t.TempDir()
	sink, err := NewJSONLSink(baseDir, nil)
	require.NoError(t, err)
	require.NoError(t, sink.WriteDraft(context.Background(), sampleDraft()))
	require.NoError(t, sink.Close())

	archived, err := sink.ArchiveWarm()
	require.NoError(t, err)
	assert.Equal(t, 1, archived)
	assert.Empty(t, warmFiles(t, baseDir), "archived originals should be removed")

	cold, err := os.ReadDir(filepath.Join(baseDir, "cold"))
	require.NoError(t, err)
	require.Len(t, cold, 1)

	f, err := os.Open(filepath.Join(baseDir, "cold", cold[0].Name()))
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var line jsonlLine
	require.NoError(t, json.NewDecoder(gz).Decode(&line))
	assert.Equal(t, "draft", line.Kind)
}

func TestNewMatchRecordTolerantOfMissingDerivations(t *testing.T) {
	// No connect ack deck results in decks from game one only; no telemetry
	// means no format or start time. The record keeps what derives cleanly.
	b := match.NewBuilder()
	b.Ingest(parser.StateEvent{MatchID: "m2", StateType: parser.RoomStatePlaying})
	b.Ingest(parser.EngineBatch{Messages: []parser.EngineMessage{{
		Type:          parser.EngineTypeConnectResp,
		SystemSeatIDs: []int{1},
		ConnectResp:   &parser.ConnectResp{},
	}}})
	b.Ingest(parser.StateEvent{MatchID: "m2", StateType: parser.RoomStateCompleted})
	replay, err := b.Build()
	require.NoError(t, err)

	rec := NewMatchRecord(replay, nil)
	assert.Equal(t, "m2", rec.MatchID)
	assert.Equal(t, 1, rec.ControllerSeat)
	assert.Empty(t, rec.Controller)
	assert.Empty(t, rec.Format)
	assert.Zero(t, rec.MatchWinningSeat)
}

func TestNewMatchRecordFullDerivation(t *testing.T) {
	rec := NewMatchRecord(sampleReplay(t), nil)
	assert.Equal(t, "m1", rec.MatchID)
	assert.Equal(t, "Me", rec.Controller)
	assert.Equal(t, "Them", rec.Opponent)
	require.Len(t, rec.Decks, 1)
	assert.Equal(t, []int{1, 2, 3}, rec.Decks[0].Mainboard)
	assert.Equal(t, 2, rec.MatchWinningSeat)
	require.Len(t, rec.Games, 1)
	assert.Equal(t, match.GameWin{GameNumber: 1, WinningSeat: 2}, rec.Games[0])
}
