package storage

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gazure/arenabuddy/internal/cards"
	"github.com/gazure/arenabuddy/internal/draft"
	"github.com/gazure/arenabuddy/internal/match"
)

// Rotation triggers for the JSONL sink.
const (
	maxRecordsPerFile = 500
	maxFileAge        = time.Hour
)

// JSONLSink appends completed aggregates to rotating JSONL files. Active
// writes go to hot/, closed files move to warm/ for downstream processing,
// and ArchiveWarm compresses warm files into cold/.
type JSONLSink struct {
	mu sync.Mutex

	lookup cards.Lookup

	hotDir  string
	warmDir string
	coldDir string

	file        *os.File
	writer      *bufio.Writer
	path        string
	recordCount int
	openedAt    time.Time
}

// NewJSONLSink creates the hot/warm/cold directory layout under baseDir and
// opens the first file.
func NewJSONLSink(baseDir string, lookup cards.Lookup) (*JSONLSink, error) {
	s := &JSONLSink{
		lookup:  lookup,
		hotDir:  filepath.Join(baseDir, "hot"),
		warmDir: filepath.Join(baseDir, "warm"),
		coldDir: filepath.Join(baseDir, "cold"),
	}
	for _, dir := range []string{s.hotDir, s.warmDir, s.coldDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := s.rotate(); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteMatch appends one match record.
func (s *JSONLSink) WriteMatch(_ context.Context, r *match.Replay) error {
	return s.writeLine("match", NewMatchRecord(r, s.lookup))
}

// WriteDraft appends one draft record.
func (s *JSONLSink) WriteDraft(_ context.Context, d *draft.Result) error {
	return s.writeLine("draft", NewDraftRecord(d))
}

type jsonlLine struct {
	Kind   string      `json:"kind"`
	Record interface{} `json:"record"`
}

func (s *JSONLSink) writeLine(kind string, record interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(jsonlLine{Kind: kind, Record: record})
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", kind, err)
	}
	if _, err := s.writer.Write(data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	// Records arrive one completed aggregate at a time, so flush eagerly.
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	s.recordCount++
	if s.shouldRotate() {
		return s.rotate()
	}
	return nil
}

func (s *JSONLSink) shouldRotate() bool {
	if s.file == nil {
		return true
	}
	return s.recordCount >= maxRecordsPerFile || time.Since(s.openedAt) >= maxFileAge
}

// rotate closes the current file into warm storage and opens a fresh one.
func (s *JSONLSink) rotate() error {
	if s.file != nil {
		if err := s.closeCurrent(); err != nil {
			return err
		}
	}

	name := fmt.Sprintf("aggregates_%s.jsonl", time.Now().Format("2006-01-02_15-04-05.000"))
	s.path = filepath.Join(s.hotDir, name)
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	s.file = file
	s.writer = bufio.NewWriterSize(file, 64*1024)
	s.recordCount = 0
	s.openedAt = time.Now()
	return nil
}

func (s *JSONLSink) closeCurrent() error {
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("flush before rotation: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if s.recordCount == 0 {
		os.Remove(s.path)
		s.file = nil
		return nil
	}
	warmPath := filepath.Join(s.warmDir, filepath.Base(s.path))
	if err := os.Rename(s.path, warmPath); err != nil {
		return fmt.Errorf("move to warm storage: %w", err)
	}
	s.file = nil
	return nil
}

// Close flushes and moves any non-empty current file to warm storage.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	return s.closeCurrent()
}

// ArchiveWarm gzip-compresses every warm file into cold storage and removes
// the originals. Returns how many files were archived.
func (s *JSONLSink) ArchiveWarm() (int, error) {
	s.mu.Lock()
	warmDir, coldDir := s.warmDir, s.coldDir
	s.mu.Unlock()

	entries, err := os.ReadDir(warmDir)
	if err != nil {
		return 0, fmt.Errorf("read warm dir: %w", err)
	}
	archived := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := compressToCold(filepath.Join(warmDir, entry.Name()), coldDir); err != nil {
			return archived, err
		}
		archived++
	}
	return archived, nil
}

func compressToCold(warmPath, coldDir string) error {
	src, err := os.Open(warmPath)
	if err != nil {
		return err
	}
	defer src.Close()

	coldPath := filepath.Join(coldDir, filepath.Base(warmPath)+".gz")
	dst, err := os.Create(coldPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return os.Remove(warmPath)
}
