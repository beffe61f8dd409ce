package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level slog.Level) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(&out, &errOut, Options{Level: level}), &out, &errOut
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &parsed))
	return parsed
}

func TestLogRoutesLevelsToStreams(t *testing.T) {
	t.Parallel()

	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn} {
		log, out, errOut := newTestLogger(slog.LevelDebug)

		log.Log(level, "hello", Meta{"user": "sam"})

		assert.Empty(t, errOut.String(), string(level))
		parsed := decodeLine(t, out)
		assert.Equal(t, string(level), parsed["level"])
	}

	log, out, errOut := newTestLogger(slog.LevelDebug)
	log.Error("send failed", Meta{"attempt": 1})

	assert.Empty(t, out.String())
	parsed := decodeLine(t, errOut)
	assert.Equal(t, "error", parsed["level"])
	assert.Equal(t, "send failed", parsed["message"])
}

func TestLogRecordShape(t *testing.T) {
	t.Parallel()

	log, out, _ := newTestLogger(slog.LevelInfo)
	log.Info("email sent", Meta{
		"to":     "a@b.com",
		"count":  3,
		"nested": map[string]any{"ok": true},
	})

	parsed := decodeLine(t, out)
	assert.Equal(t, "info", parsed["level"])
	assert.Equal(t, "email sent", parsed["message"])
	assert.Equal(t, map[string]any{
		"to":     "a@b.com",
		"count":  float64(3),
		"nested": map[string]any{"ok": true},
	}, parsed["meta"])

	ts, ok := parsed["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339Nano, ts)
	assert.NoError(t, err)
}

func TestLogWithoutMetaWritesEmptyObject(t *testing.T) {
	t.Parallel()

	log, out, _ := newTestLogger(slog.LevelInfo)
	log.Info("ready")

	parsed := decodeLine(t, out)
	assert.Equal(t, map[string]any{}, parsed["meta"])
}

func TestLogCoercesUnserializableMeta(t *testing.T) {
	t.Parallel()

	log, out, _ := newTestLogger(slog.LevelInfo)

	require.NotPanics(t, func() {
		log.Info("odd values", Meta{
			"ch":    make(chan int),
			"fn":    func() {},
			"nan":   math.NaN(),
			"err":   errors.New("boom"),
			"delay": 1500 * time.Millisecond,
		})
	})

	parsed := decodeLine(t, out)
	meta := parsed["meta"].(map[string]any)
	assert.IsType(t, "", meta["ch"])
	assert.IsType(t, "", meta["fn"])
	assert.Equal(t, "NaN", meta["nan"])
	assert.Equal(t, "boom", meta["err"])
	assert.Equal(t, "1.5s", meta["delay"])
}

func TestLevelThreshold(t *testing.T) {
	t.Parallel()

	log, out, _ := newTestLogger(slog.LevelInfo)
	log.Debug("hidden")

	assert.Empty(t, out.String())
}

func TestSlogAttrsAndGroupsBecomeMeta(t *testing.T) {
	t.Parallel()

	log, out, _ := newTestLogger(slog.LevelInfo)
	log.Slog().With("request_id", "r-1").WithGroup("http").Info("request", "status", 200)

	parsed := decodeLine(t, out)
	assert.Equal(t, map[string]any{
		"request_id": "r-1",
		"http":       map[string]any{"status": float64(200)},
	}, parsed["meta"])
}

func TestPrettyFormatKeepsStreamSplit(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	log := New(&out, &errOut, Options{Level: slog.LevelInfo, Format: FormatPretty})

	log.Info("ready", Meta{"port": "8080"})
	log.Error("failed")

	assert.Contains(t, out.String(), "ready")
	assert.Contains(t, out.String(), "port")
	assert.NotContains(t, out.String(), "failed")
	assert.Contains(t, errOut.String(), "failed")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
