package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// SinkKind identifies the kind of destination a Sink writes to.
type SinkKind string

const (
	ConsoleSink SinkKind = "console"
	FileSink    SinkKind = "file"
)

// Sink is a destination that receives formatted lines at or above its level.
type Sink interface {
	Kind() SinkKind
	Destination() string
	Level() slog.Level
	SetLevel(level slog.Level)
	// Write appends one complete line. Implementations serialise writers.
	Write(line []byte) error
	Close() error
}

// SinkInfo describes an attached sink.
type SinkInfo struct {
	Kind        SinkKind
	Destination string
	Level       slog.Level
}

func (i SinkInfo) String() string {
	return string(i.Kind) + ":" + i.Destination
}

type sinkKey struct {
	kind SinkKind
	dest string
}

func keyOf(s Sink) sinkKey {
	return sinkKey{kind: s.Kind(), dest: s.Destination()}
}

type writerSink struct {
	mu     sync.Mutex
	kind   SinkKind
	dest   string
	level  slog.LevelVar
	w      io.Writer
	closer io.Closer
}

func newConsoleSink(w io.Writer, level slog.Level) *writerSink {
	s := &writerSink{kind: ConsoleSink, dest: consoleName(w), w: w}
	s.level.Set(level)
	return s
}

func newFileSink(wc io.WriteCloser, path string, level slog.Level) *writerSink {
	s := &writerSink{kind: FileSink, dest: path, w: wc, closer: wc}
	s.level.Set(level)
	return s
}

func consoleName(w io.Writer) string {
	switch w {
	case os.Stderr:
		return "stderr"
	case os.Stdout:
		return "stdout"
	default:
		return "writer"
	}
}

func (s *writerSink) Kind() SinkKind { return s.kind }
func (s *writerSink) Destination() string { return s.dest }
func (s *writerSink) Level() slog.Level { return s.level.Level() }
func (s *writerSink) SetLevel(level slog.Level) { s.level.Set(level) }

func (s *writerSink) Write(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return os.ErrClosed
	}
	_, err := s.w.Write(line)
	return err
}

func (s *writerSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w = nil
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
