package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubConfig struct{ level string }

func (s stubConfig) GetLogLevel() string { return s.level }

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarning, ParseLevel("WARN"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestNewLogger_ReadsLevelFromConfig(t *testing.T) {
	l := NewLogger(stubConfig{level: "ERROR"}, "test")
	assert.Equal(t, LevelError, l.level)

	l = NewLogger(nil, "test")
	assert.Equal(t, LevelInfo, l.level)
}

func TestLogger_LevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "scraper", LevelWarning)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	assert.Empty(t, buf.String())

	l.Warning("shown %d", 3)
	assert.Contains(t, buf.String(), "[scraper] WARNING: shown 3")

	buf.Reset()
	l.Named("enrich").Error("boom")
	assert.Contains(t, buf.String(), "[scraper.enrich] ERROR: boom")
}

func TestLogger_CriticalCallsExit(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "main", LevelInfo)
	code := -1
	l.exit = func(c int) { code = c }

	l.Critical("fatal")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "CRITICAL: fatal")
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("nothing") })
}
