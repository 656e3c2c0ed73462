// Package logutil configures structured logging for gptok.
package logutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"
)

// LevelTrace is below Debug and is used for per-call encode/decode logging.
const LevelTrace slog.Level = -8

// NewLogger returns a text logger writing to w at level, labelling
// LevelTrace records as TRACE.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if level, ok := attr.Value.Any().(slog.Level); ok && level == LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}

// Level maps a verbosity flag to a level: 0 is Info, 1 is Debug and anything
// higher is Trace.
func Level(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelInfo
	case verbosity == 1:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// Trace logs at LevelTrace on the default logger.
func Trace(msg string, args ...any) {
	trace(context.Background(), msg, args...)
}

// TraceContext logs at LevelTrace on the default logger.
func TraceContext(ctx context.Context, msg string, args ...any) {
	trace(ctx, msg, args...)
}

// trace must be called directly by an exported function so the source
// attribution skips exactly one wrapper frame.
func trace(ctx context.Context, msg string, args ...any) {
	logger := slog.Default()
	if !logger.Enabled(ctx, LevelTrace) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), LevelTrace, msg, pcs[0])
	record.Add(args...)
	_ = logger.Handler().Handle(ctx, record)
}

// Ids defers formatting a token id slice until a record is actually written.
type Ids []int

// LogValue implements slog.LogValuer.
func (ids Ids) LogValue() slog.Value {
	return slog.StringValue(fmt.Sprint([]int(ids)))
}
