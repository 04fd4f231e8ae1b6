package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(DEBUG, &buf)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	output := buf.String()
	assert.Contains(t, output, "[DEBUG] debug message")
	assert.Contains(t, output, "[INFO] info message")
	assert.Contains(t, output, "[WARN] warn message")
	assert.Contains(t, output, "[ERROR] error message")
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(ERROR, &buf)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "[DEBUG]")
	assert.NotContains(t, output, "[INFO]")
	assert.NotContains(t, output, "[WARN]")
	assert.Contains(t, output, "[ERROR] error message")
}

func TestNamedLogger(t *testing.T) {
	var buf bytes.Buffer
	root := NewWithOutput(INFO, &buf)
	child := root.Named("auth").Named("probe")

	child.Info("probe finished")
	assert.Contains(t, buf.String(), "[INFO] auth.probe: probe finished")

	// Уровень общий для родителя и потомков
	root.SetLevel(ERROR)
	buf.Reset()
	child.Warn("hidden")
	assert.Empty(t, buf.String())
	assert.False(t, child.Enabled(WARN))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"info", INFO},
		{"INFO", INFO},
		{"warn", WARN},
		{"warning", WARN},
		{"WARNING", WARN},
		{"error", ERROR},
		{" error ", ERROR},
		{"invalid", INFO}, // по умолчанию INFO
		{"", INFO},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, ParseLogLevel(test.input), "ParseLogLevel(%q)", test.input)
	}
}

func TestIsValidLogLevel(t *testing.T) {
	assert.True(t, IsValidLogLevel("debug"))
	assert.True(t, IsValidLogLevel("WARN"))
	assert.False(t, IsValidLogLevel("trace"))
	assert.False(t, IsValidLogLevel(""))
}

func TestGlobalLogger(t *testing.T) {
	prevLogger := globalLogger
	defer func() {
		globalLogger = prevLogger
	}()

	var buf bytes.Buffer
	globalLogger = NewWithOutput(WARN, &buf)

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "[DEBUG]")
	assert.NotContains(t, output, "[INFO]")
	assert.Contains(t, output, "[WARN] warn message")
	assert.Contains(t, output, "[ERROR] error message")
	assert.Equal(t, WARN, GetGlobalLevel())
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.level.String())
	}
}
