// Package logger provides the slog handler used by the stencil CLI.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

const (
	warnMark  = "!"
	errorMark = "✗"
	debugMark = "·"
)

// PrettyHandler is a slog.Handler producing one colored, human-readable line
// per record.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []string // formatted when added, under the group open at the time
	group string
}

// NewPrettyHandler creates a handler writing to w. The level is read on every
// record, so passing a *slog.LevelVar allows changing it later.
func NewPrettyHandler(w io.Writer, level slog.Leveler) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &PrettyHandler{
		out:   newOutput(w),
		level: level,
	}
}

// newOutput honours NO_COLOR and otherwise detects the terminal profile.
func newOutput(w io.Writer) *termenv.Output {
	profile := termenv.EnvColorProfile()
	if os.Getenv("NO_COLOR") != "" {
		profile = termenv.Ascii
	}
	return termenv.NewOutput(w, termenv.WithProfile(profile), termenv.WithTTY(true))
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

//nolint:gocritic // slog.Handler requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		msg   string
		color termenv.Color
	)
	switch {
	case r.Level >= slog.LevelError:
		msg = errorMark + " " + r.Message
		color = termenv.ANSIRed
	case r.Level >= slog.LevelWarn:
		msg = warnMark + " " + r.Message
		color = termenv.ANSIYellow
	case r.Level < slog.LevelInfo:
		msg = debugMark + " " + r.Message
		color = termenv.ANSIBrightBlack
	default:
		msg = r.Message
		color = termenv.ANSIWhite
	}

	parts := make([]string, 0, len(h.attrs)+r.NumAttrs())
	parts = append(parts, h.attrs...)
	r.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, formatAttr(h.group, attr))
		return true
	})
	if len(parts) > 0 {
		msg += " " + strings.Join(parts, " ")
	}

	_, err := h.out.WriteString(h.out.String(msg).Foreground(color).String() + "\n")
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]string, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, attr := range attrs {
		merged = append(merged, formatAttr(h.group, attr))
	}
	return &PrettyHandler{out: h.out, level: h.level, attrs: merged, group: h.group}
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &PrettyHandler{out: h.out, level: h.level, attrs: h.attrs, group: group}
}

func formatAttr(group string, attr slog.Attr) string {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	value := attr.Value.Resolve().String()
	if strings.ContainsAny(value, " \t\n\"") {
		value = `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
	}
	return key + "=" + value
}
