package logger

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Name is the name of the application logger.
const Name = "app_tracer"

// Observer is notified of every line a sink accepts or fails to write.
// Calls happen on the logging goroutine and must not block.
type Observer interface {
	LineWritten(level, sink string)
	WriteFailed(sink string, err error)
}

type noopObserver struct{}

func (noopObserver) LineWritten(string, string) {}
func (noopObserver) WriteFailed(string, error) {}

// core is the state shared by a Logger and every handler derived from it.
type core struct {
	name     string
	level    slog.LevelVar
	observer Observer

	mu    sync.RWMutex
	sinks []Sink
	index map[sinkKey]Sink
}

func (c *core) has(key sinkKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[key]
	return ok
}

// add attaches s unless a sink with the same kind and destination exists.
func (c *core) add(s Sink) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := keyOf(s)
	if _, ok := c.index[key]; ok {
		return false
	}
	c.index[key] = s
	c.sinks = append(c.sinks, s)
	return true
}

func (c *core) snapshot() []Sink {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Sink(nil), c.sinks...)
}

// Logger is the named application logger. The embedded *slog.Logger
// provides Debug, Info, Warn and Error.
type Logger struct {
	*slog.Logger
	core *core
}

func newLogger(name string, level slog.Level, observer Observer) *Logger {
	if observer == nil {
		observer = noopObserver{}
	}
	c := &core{
		name:     name,
		observer: observer,
		index:    make(map[sinkKey]Sink),
	}
	c.level.Set(level)

	return &Logger{
		Logger: slog.New(&lineHandler{core: c}),
		core:   c,
	}
}

func (l *Logger) Name() string {
	return l.core.name
}

// Level returns the logger threshold.
func (l *Logger) Level() slog.Level {
	return l.core.level.Level()
}

// SetLevel updates the logger threshold and every attached sink.
func (l *Logger) SetLevel(level slog.Level) {
	l.core.mu.RLock()
	defer l.core.mu.RUnlock()

	l.core.level.Set(level)
	for _, s := range l.core.sinks {
		s.SetLevel(level)
	}
}

// Sinks lists the attached sinks in attachment order.
func (l *Logger) Sinks() []SinkInfo {
	sinks := l.core.snapshot()
	infos := make([]SinkInfo, 0, len(sinks))
	for _, s := range sinks {
		infos = append(infos, SinkInfo{Kind: s.Kind(), Destination: s.Destination(), Level: s.Level()})
	}
	return infos
}

// With returns a Logger that adds args to every line and shares sinks and
// threshold with l.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), core: l.core}
}

// WithGroup returns a Logger that qualifies subsequent attribute keys with name.
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{Logger: l.Logger.WithGroup(name), core: l.core}
}

// Warning logs at LevelWarning.
func (l *Logger) Warning(msg string, args ...any) {
	l.log(LevelWarning, msg, args...)
}

// Critical logs at LevelCritical.
func (l *Logger) Critical(msg string, args ...any) {
	l.log(LevelCritical, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.Handler().Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip runtime.Callers, log and the exported wrapper
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}

// Close closes and detaches every file sink. The console sink stays attached.
func (l *Logger) Close() error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	var errs []error
	kept := l.core.sinks[:0]
	for _, s := range l.core.sinks {
		if s.Kind() != FileSink {
			kept = append(kept, s)
			continue
		}
		delete(l.core.index, keyOf(s))
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	clear(l.core.sinks[len(kept):])
	l.core.sinks = kept
	return errors.Join(errs...)
}
