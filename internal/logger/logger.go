package logger

import (
	"errors"
	"io"
	"log/slog"
	"strings"
)

// messager is implemented by zerr errors, whose Message excludes the wrapped
// chain.
type messager interface {
	Message() string
}

// New returns a logger writing pretty lines to w at the given level.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(NewPrettyHandler(w, level))
}

// NewJSON returns a logger writing JSON lines to w at the given level.
func NewJSON(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// FormatError renders an error chain as a headline followed by its causes:
//
//	Error: failed to register content
//
//	  Caused by:
//	    → could not extract metadata from header: ...
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var messages []string
	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			messages = append(messages, current.Error())
			break
		}
		messages = append(messages, m.Message())
		current = errors.Unwrap(current)
	}

	var lines []string
	for i, msg := range messages {
		msgLines := strings.Split(msg, "\n")
		if i == 0 {
			lines = append(lines, "Error: "+msgLines[0])
			for _, line := range msgLines[1:] {
				lines = append(lines, "       "+line)
			}
			continue
		}
		if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, "    → "+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, "      "+line)
		}
	}
	return strings.Join(lines, "\n")
}
