package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Tailer maintains a byte cursor into an append-only log file and returns
// the complete lines added since the last read. It keeps no file handle
// between reads, so a rotated-away file never pins a descriptor.
type Tailer struct {
	path   string
	offset int64
}

// NewTailer returns a tailer positioned at the start of the file.
func NewTailer(path string) *Tailer {
	return &Tailer{path: path}
}

// Reset discards the cursor so the next read starts from the top. Called
// after a rotation; no byte offset carries over.
func (t *Tailer) Reset() {
	t.offset = 0
}

// ReadAvailable returns every complete new line since the cursor. A missing
// file yields no lines and no error (the client may not have started yet).
// A trailing partial line is left for a later read. If the file shrank under
// the cursor the cursor restarts from zero.
func (t *Tailer) ReadAvailable() ([]string, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}
	if info.Size() < t.offset {
		t.offset = 0
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log: %w", err)
	}

	var lines []string
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// Partial trailing line: the writer hasn't finished it yet.
			if err == io.EOF {
				return lines, nil
			}
			return lines, fmt.Errorf("read log: %w", err)
		}
		t.offset += int64(len(line))
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
}
