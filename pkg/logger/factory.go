package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const (
	DefaultLevel    = "INFO"
	DefaultDir      = "./logs"
	DefaultFileName = "application.log"

	uniqueLayout = "20060102150405"
)

// Config is a snapshot of the logger options. Level is kept raw and
// resolved by the Factory so that invalid names can be reported.
type Config struct {
	Level      string
	ToFile     bool
	Dir        string
	UniqueFile bool
	FileName   string
}

// DefaultConfig returns INFO, console only, ./logs/application.log.
func DefaultConfig() Config {
	return Config{
		Level:    DefaultLevel,
		Dir:      DefaultDir,
		FileName: DefaultFileName,
	}
}

// ResolveFileName returns the log file name for cfg. Unique names are
// prefixed with now at second precision, so two configurations within the
// same second share a file.
func ResolveFileName(cfg Config, now time.Time) string {
	name := cfg.FileName
	if name == "" {
		name = DefaultFileName
	}
	if cfg.UniqueFile {
		return now.Format(uniqueLayout) + "_" + name
	}
	return name
}

// Option configures a Factory.
type Option func(*Factory)

// WithFs sets the filesystem used for log directories and files.
func WithFs(fs afero.Fs) Option {
	return func(f *Factory) { f.fs = fs }
}

// WithConsole sets the console sink destination. Defaults to os.Stderr.
func WithConsole(w io.Writer) Option {
	return func(f *Factory) { f.console = w }
}

// WithNoticeWriter sets where configuration notices are printed. Defaults to os.Stdout.
func WithNoticeWriter(w io.Writer) Option {
	return func(f *Factory) { f.notices = w }
}

// WithClock sets the clock used for unique file names.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) { f.now = now }
}

// WithObserver registers o to be notified of every sink write.
func WithObserver(o Observer) Option {
	return func(f *Factory) { f.observer = o }
}

// Factory owns the application logger. It is safe for concurrent use.
type Factory struct {
	once   sync.Once
	mu     sync.Mutex
	logger *Logger

	fs       afero.Fs
	console  io.Writer
	notices  io.Writer
	now      func() time.Time
	observer Observer

	// reported holds notice and warning keys already surfaced.
	reported map[string]struct{}
}

// NewFactory returns a Factory writing to stderr and the OS filesystem
// unless overridden by opts.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		fs:       afero.NewOsFs(),
		console:  os.Stderr,
		notices:  os.Stdout,
		now:      time.Now,
		reported: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetLogger returns the application logger configured from cfg. The first
// call creates it; later calls return the same instance after re-applying
// the threshold to it and every sink, and attaching a file sink only if no
// sink already writes to the resolved path. GetLogger never fails: problems
// are reported once and the logger degrades to console only.
func (f *Factory) GetLogger(cfg Config) *Logger {
	f.once.Do(func() {
		f.logger = newLogger(Name, LevelInfo, f.observer)
	})

	f.mu.Lock()
	defer f.mu.Unlock()

	level := f.resolveLevel(cfg.Level)
	f.logger.SetLevel(level)

	console := newConsoleSink(f.console, level)
	if !f.logger.core.has(keyOf(console)) {
		f.logger.core.add(console)
	}

	if cfg.ToFile {
		f.attachFile(cfg, level)
	}
	return f.logger
}

func (f *Factory) resolveLevel(raw string) slog.Level {
	level, err := ResolveSeverity(raw)
	if err != nil && f.firstReport("level:"+raw) {
		fmt.Fprintf(f.notices, "Invalid log level %q, using INFO by default.\n", raw)
	}
	return level
}

func (f *Factory) attachFile(cfg Config, level slog.Level) {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		if f.warningEnabled() && f.firstReport("dir:"+dir) {
			f.logger.Warning("cannot create log directory, logging to console only",
				slog.String("dir", dir), slog.String("error", err.Error()))
		}
		return
	}

	path := filepath.Join(dir, ResolveFileName(cfg, f.now()))
	if f.logger.core.has(sinkKey{kind: FileSink, dest: path}) {
		return
	}

	file, err := f.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if f.warningEnabled() && f.firstReport("file:"+path) {
			f.logger.Warning("cannot open log file, logging to console only",
				slog.String("file", path), slog.String("error", err.Error()))
		}
		return
	}
	f.logger.core.add(newFileSink(file, path, level))
}

// warningEnabled reports whether a resource warning would reach a sink.
// Suppressed warnings are not marked as reported so that a later, more
// verbose configuration still surfaces them.
func (f *Factory) warningEnabled() bool {
	return f.logger.Enabled(context.Background(), LevelWarning)
}

// firstReport reports whether key has not been surfaced yet and marks it.
func (f *Factory) firstReport(key string) bool {
	if _, ok := f.reported[key]; ok {
		return false
	}
	f.reported[key] = struct{}{}
	return true
}
