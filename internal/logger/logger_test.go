package logger_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/zerr"

	"stencil/internal/logger"
)

func TestPrettyHandler_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		want  string
	}{
		{name: "info", level: slog.LevelInfo, want: "Built site\n"},
		{name: "warn", level: slog.LevelWarn, want: "! Built site\n"},
		{name: "error", level: slog.LevelError, want: "✗ Built site\n"},
		{name: "debug filtered", level: slog.LevelDebug, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")
			buf := &bytes.Buffer{}
			lg := logger.New(buf, slog.LevelInfo)

			lg.Log(t.Context(), tt.level, "Built site")
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_LevelVar(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	buf := &bytes.Buffer{}
	level := &slog.LevelVar{}
	level.Set(slog.LevelWarn)
	lg := logger.New(buf, level)

	lg.Debug("hidden")
	level.Set(slog.LevelDebug)
	lg.Debug("shown")

	assert.Equal(t, "· shown\n", buf.String())
}

func TestPrettyHandler_Attrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	buf := &bytes.Buffer{}
	lg := logger.New(buf, slog.LevelInfo).With("builder", "pages").WithGroup("artefact")

	lg.Info("Built artefact", "source", "content/a.md", "title", "Hello world")
	assert.Equal(t, "Built artefact builder=pages artefact.source=content/a.md artefact.title=\"Hello world\"\n", buf.String())
}

func TestNewJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.NewJSON(buf, slog.LevelInfo).Info("Registered content", "artefacts", 3)

	assert.Contains(t, buf.String(), `"msg":"Registered content"`)
	assert.Contains(t, buf.String(), `"artefacts":3`)
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "standard error", err: errors.New("boom"), want: "Error: boom"},
		{
			name: "zerr chain",
			err:  zerr.Wrap(zerr.Wrap(errors.New("no such file"), "failed to enumerate content"), "failed to register content"),
			want: "Error: failed to register content\n\n  Caused by:\n    → failed to enumerate content\n    → no such file",
		},
		{
			name: "multiline cause",
			err:  zerr.Wrap(fmt.Errorf("line one\nline two"), "outer"),
			want: "Error: outer\n\n  Caused by:\n    → line one\n      line two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatError(tt.err))
		})
	}
}
