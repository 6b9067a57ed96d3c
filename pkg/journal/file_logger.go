package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends events to a journal file in CBOR format.
//
// Log never fails the caller: the first write error is kept, later events
// are dropped, and the error is reported by Close.
type FileLogger struct {
	path    string
	file    *os.File
	encoder *cbor.Encoder

	mu      sync.Mutex
	closed  bool
	written int
	werr    error
}

// NewFileLogger opens path for appending, creating it and its parent
// directory if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return &FileLogger{path: path, file: f, encoder: NewEncoder(f)}, nil
}

// Path returns the journal file path.
func (l *FileLogger) Path() string { return l.path }

// Log appends event to the journal.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.werr != nil {
		return
	}
	if err := l.encoder.Encode(event); err != nil {
		l.werr = fmt.Errorf("writing journal %s: %w", l.path, err)
		return
	}
	l.written++
}

// Written returns the number of events appended so far.
func (l *FileLogger) Written() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// Close closes the file and returns the first write error, if any.
// Calls after the first return nil, and Log is a no-op once closed.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return errors.Join(l.werr, l.file.Close())
}

var _ Logger = (*FileLogger)(nil)
