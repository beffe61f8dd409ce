// Package logger provides the process-wide structured logger.
//
// Every record is one JSON line {level, message, meta, timestamp}. Error
// records go to the error stream, everything else to the output stream.
package logger

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Meta is the free-form context attached to a record. Values only need to be
// JSON-serializable; anything else is rendered as text.
type Meta map[string]any

type Format string

const (
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

type Options struct {
	Level  slog.Leveler
	Format Format
}

type Logger struct {
	sl *slog.Logger
}

func New(out io.Writer, errOut io.Writer, opts Options) *Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	if opts.Format == FormatPretty {
		handler = NewPrettyHandler(out, errOut, handlerOpts)
	} else {
		handler = NewJSONHandler(out, errOut, handlerOpts)
	}

	return &Logger{sl: slog.New(handler)}
}

// Slog exposes the underlying logger, e.g. for slog.SetDefault.
func (l *Logger) Slog() *slog.Logger {
	return l.sl
}

func (l *Logger) Log(level Level, message string, meta Meta) {
	if l == nil {
		return
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, meta[k]))
	}

	l.sl.LogAttrs(context.Background(), level.slogLevel(), message, attrs...)
}

func (l *Logger) Debug(message string, meta ...Meta) { l.Log(LevelDebug, message, merge(meta)) }
func (l *Logger) Info(message string, meta ...Meta)  { l.Log(LevelInfo, message, merge(meta)) }
func (l *Logger) Warn(message string, meta ...Meta)  { l.Log(LevelWarn, message, merge(meta)) }
func (l *Logger) Error(message string, meta ...Meta) { l.Log(LevelError, message, merge(meta)) }

func merge(metas []Meta) Meta {
	switch len(metas) {
	case 0:
		return nil
	case 1:
		return metas[0]
	}

	out := Meta{}
	for _, m := range metas {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// ParseLevel accepts debug, info, warn/warning and error. Anything else is info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
