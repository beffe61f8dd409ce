package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// streams routes error records to one writer and everything else to another.
// Both handlers derived via WithAttrs/WithGroup share the same streams.
type streams struct {
	out    io.Writer
	errOut io.Writer
	outMu  *sync.Mutex
	errMu  *sync.Mutex
}

func newStreams(out io.Writer, errOut io.Writer) *streams {
	s := &streams{out: out, errOut: errOut, outMu: &sync.Mutex{}, errMu: &sync.Mutex{}}
	if out == errOut {
		s.errMu = s.outMu
	}
	return s
}

func (s *streams) write(level slog.Level, line []byte) error {
	w, mu := s.out, s.outMu
	if level >= slog.LevelError {
		w, mu = s.errOut, s.errMu
	}

	mu.Lock()
	defer mu.Unlock()

	_, err := w.Write(line)
	return err
}

type scopedAttr struct {
	groups []string
	attr   slog.Attr
}

// scope is the WithAttrs/WithGroup state shared by both handlers.
type scope struct {
	attrs  []scopedAttr
	groups []string
}

func (sc scope) withAttrs(attrs []slog.Attr) scope {
	next := make([]scopedAttr, len(sc.attrs), len(sc.attrs)+len(attrs))
	copy(next, sc.attrs)
	for _, a := range attrs {
		next = append(next, scopedAttr{groups: sc.groups, attr: a})
	}
	return scope{attrs: next, groups: sc.groups}
}

func (sc scope) withGroup(name string) scope {
	if name == "" {
		return sc
	}
	groups := make([]string, len(sc.groups), len(sc.groups)+1)
	copy(groups, sc.groups)
	return scope{attrs: sc.attrs, groups: append(groups, name)}
}

// meta flattens handler and record attributes into a JSON-safe map.
func (sc scope) meta(r slog.Record) map[string]any {
	out := map[string]any{}
	for _, sa := range sc.attrs {
		insert(out, sa.groups, sa.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		insert(out, sc.groups, a)
		return true
	})
	return out
}

func insert(root map[string]any, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	target := root
	for _, g := range groups {
		child, ok := target[g].(map[string]any)
		if !ok {
			child = map[string]any{}
			target[g] = child
		}
		target = child
	}

	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		if len(members) == 0 {
			return
		}
		if a.Key == "" {
			for _, m := range members {
				insert(target, nil, m)
			}
			return
		}
		for _, m := range members {
			insert(target, []string{a.Key}, m)
		}
		return
	}

	target[a.Key] = safeValue(a.Value)
}

// safeValue never fails: anything encoding/json rejects is rendered with %v.
func safeValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		f := v.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Sprintf("%v", f)
		}
		return f
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano)
	}

	raw := v.Any()
	switch typed := raw.(type) {
	case nil:
		return nil
	case error:
		return typed.Error()
	case fmt.Stringer:
		if _, ok := raw.(json.Marshaler); !ok {
			return safeString(typed)
		}
	}

	encoded, err := safeMarshal(raw)
	if err != nil {
		return safeString(raw)
	}
	return json.RawMessage(encoded)
}

func safeMarshal(v any) (out []byte, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			out, err = nil, fmt.Errorf("marshal panicked: %v", recovered)
		}
	}()
	return json.Marshal(v)
}

func safeString(v any) (out string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			out = fmt.Sprintf("%T", v)
		}
	}()
	return fmt.Sprintf("%v", v)
}

func levelName(level slog.Level) Level {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarn
	case level >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// JSONHandler writes one {level, message, meta, timestamp} object per line.
type JSONHandler struct {
	opts    slog.HandlerOptions
	streams *streams
	scope   scope
}

func NewJSONHandler(out io.Writer, errOut io.Writer, opts *slog.HandlerOptions) *JSONHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &JSONHandler{opts: *opts, streams: newStreams(out, errOut)}
}

type record struct {
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Meta      map[string]any `json:"meta"`
	Timestamp string         `json:"timestamp"`
}

func (h *JSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= minLevel(h.opts.Level)
}

func (h *JSONHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	rec := record{
		Level:     levelName(r.Level),
		Message:   r.Message,
		Meta:      h.scope.meta(r),
		Timestamp: ts.UTC().Format(timestampLayout),
	}

	line, err := json.Marshal(rec)
	if err != nil {
		rec.Meta = map[string]any{"meta_error": err.Error()}
		line, _ = json.Marshal(rec)
	}

	return h.streams.write(r.Level, append(line, '\n'))
}

func (h *JSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &JSONHandler{opts: h.opts, streams: h.streams, scope: h.scope.withAttrs(attrs)}
}

func (h *JSONHandler) WithGroup(name string) slog.Handler {
	return &JSONHandler{opts: h.opts, streams: h.streams, scope: h.scope.withGroup(name)}
}

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	purple = "\033[35m"
	cyan   = "\033[36m"
	gray   = "\033[37m"
	white  = "\033[97m"
)

// PrettyHandler is the colorized development format. It keeps the same
// stream split as JSONHandler.
type PrettyHandler struct {
	opts    slog.HandlerOptions
	streams *streams
	scope   scope
}

func NewPrettyHandler(out io.Writer, errOut io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &PrettyHandler{opts: *opts, streams: newStreams(out, errOut)}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= minLevel(h.opts.Level)
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s%s%s ", gray, r.Time.Format("15:04:05.000"), reset)

	var levelColor string
	switch levelName(r.Level) {
	case LevelDebug:
		levelColor = purple
	case LevelInfo:
		levelColor = green
	case LevelWarn:
		levelColor = yellow
	default:
		levelColor = red
	}
	fmt.Fprintf(&b, "%s%-5s%s ", levelColor, strings.ToUpper(string(levelName(r.Level))), reset)
	fmt.Fprintf(&b, "%s%s%s", white, r.Message, reset)

	meta := h.scope.meta(r)
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		val := meta[k]
		switch typed := val.(type) {
		case json.RawMessage:
			val = string(typed)
		case map[string]any:
			encoded, _ := safeMarshal(typed)
			val = string(encoded)
		}
		fmt.Fprintf(&b, " %s%s%s=%v", cyan, k, reset, val)
	}
	b.WriteByte('\n')

	return h.streams.write(r.Level, []byte(b.String()))
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyHandler{opts: h.opts, streams: h.streams, scope: h.scope.withAttrs(attrs)}
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{opts: h.opts, streams: h.streams, scope: h.scope.withGroup(name)}
}

func minLevel(l slog.Leveler) slog.Level {
	if l == nil {
		return slog.LevelInfo
	}
	return l.Level()
}
