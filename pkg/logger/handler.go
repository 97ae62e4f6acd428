package logger

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// lineHandler renders records in the fixed text format and fans them out to
// the sinks of the owning logger.
type lineHandler struct {
	core   *core
	attrs  []byte
	prefix string
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.core.level.Level()
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	line := h.format(r)

	var errs []error
	for _, s := range h.core.snapshot() {
		if r.Level < s.Level() {
			continue
		}
		info := SinkInfo{Kind: s.Kind(), Destination: s.Destination()}
		if err := s.Write(line); err != nil {
			h.core.observer.WriteFailed(info.String(), err)
			errs = append(errs, err)
			continue
		}
		h.core.observer.LineWritten(LevelName(r.Level), info.String())
	}
	return errors.Join(errs...)
}

func (h *lineHandler) format(r slog.Record) []byte {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	pkg, fn := callerOf(r.PC)

	buf := make([]byte, 0, 128)
	buf = ts.AppendFormat(buf, timeLayout)
	buf = append(buf, " ["...)
	buf = append(buf, LevelName(r.Level)...)
	buf = append(buf, "] ["...)
	buf = append(buf, pkg...)
	buf = append(buf, ':')
	buf = append(buf, fn...)
	buf = append(buf, "] - "...)
	buf = append(buf, r.Message...)
	buf = append(buf, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		buf = appendAttr(buf, h.prefix, a)
		return true
	})
	return append(buf, '\n')
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]byte(nil), h.attrs...)
	for _, a := range attrs {
		clone.attrs = appendAttr(clone.attrs, h.prefix, a)
	}
	return &clone
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			buf = appendAttr(buf, group, ga)
		}
		return buf
	}

	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')

	val := a.Value.String()
	if a.Value.Kind() == slog.KindTime {
		val = a.Value.Time().Format(timeLayout)
	}
	if val == "" || strings.ContainsAny(val, " =\"\n\t") {
		return strconv.AppendQuote(buf, val)
	}
	return append(buf, val...)
}

// callerOf returns the package and function name for a program counter.
func callerOf(pc uintptr) (string, string) {
	if pc == 0 {
		return "?", "?"
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	return splitFunction(frame.Function)
}

// splitFunction turns "example.com/app/pkg.(*T).Method" into "pkg" and "(*T).Method".
func splitFunction(full string) (string, string) {
	if full == "" {
		return "?", "?"
	}
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	pkg, fn, ok := strings.Cut(full, ".")
	if !ok {
		return pkg, "?"
	}
	return pkg, fn
}
