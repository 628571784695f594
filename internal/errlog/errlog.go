// Package errlog provides an append-only, timestamped error sink. Recording is
// best-effort: callers are never blocked and failures to write are swallowed.
package errlog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const defaultBufferSize = 256

// Sink records errors for later inspection.
type Sink interface {
	Record(err error)
}

// Nop returns a Sink that discards everything.
func Nop() Sink { return nopSink{} }

type nopSink struct{}

func (nopSink) Record(error) {}

type entry struct {
	at  time.Time
	err error
}

// FileSink appends errors to one file per day inside a directory.
type FileSink struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	closed  bool
	entries chan entry
	done    chan struct{}
	dropped int
}

// NewFileSink creates the directory if needed and starts the writer goroutine.
func NewFileSink(dir string, logger *slog.Logger) (*FileSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("error log directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create error log directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &FileSink{
		dir:     dir,
		logger:  logger.With("component", "errlog"),
		now:     time.Now,
		entries: make(chan entry, defaultBufferSize),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

// Record queues err for writing. It never blocks; entries are dropped when the
// buffer is full or the sink is closed.
func (s *FileSink) Record(err error) {
	if err == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.entries <- entry{at: s.now(), err: err}:
	default:
		s.dropped++
	}
}

// Close flushes queued entries and stops the writer.
func (s *FileSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.entries)
	dropped := s.dropped
	s.mu.Unlock()

	<-s.done
	if dropped > 0 {
		s.logger.Warn("Error log dropped entries", "dropped", dropped)
	}
	return nil
}

func (s *FileSink) loop() {
	defer close(s.done)
	for e := range s.entries {
		if err := s.write(e); err != nil {
			s.logger.Debug("Failed to write error log entry", "error", err)
		}
	}
}

func (s *FileSink) write(e entry) error {
	name := filepath.Join(s.dir, "error_"+e.at.Format("2006-01-02")+".log")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, werr := fmt.Fprintf(f, "=== %s ===\n%v\n\n", e.at.Format(time.RFC3339), e.err)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
