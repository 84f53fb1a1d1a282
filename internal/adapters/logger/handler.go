package logger

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/keel/internal/ui/output"
	"go.trai.ch/keel/internal/ui/style"
)

// PrettyHandler is a slog.Handler printing one coloured line per record:
// a level marker, the message and key=value attributes.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// NewPrettyHandler creates a PrettyHandler writing to w, or stderr when w is nil.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &PrettyHandler{out: output.New(w), level: level}
}

// Enabled reports whether records at level are written.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes r.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	color := style.Slate
	switch {
	case r.Level >= slog.LevelError:
		b.WriteString(style.Cross + " ")
		color = style.Red
	case r.Level >= slog.LevelWarn:
		b.WriteString(style.Warning + " ")
		color = style.Yellow
	}
	b.WriteString(r.Message)

	write := func(a slog.Attr) bool {
		b.WriteByte(' ')
		b.WriteString(h.attrString(a))
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)

	line := h.out.String(b.String()).Foreground(termenv.RGBColor(string(color)))
	_, err := h.out.WriteString(line.String() + "\n")
	return err
}

// WithAttrs returns a handler that appends attrs to every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

// WithGroup returns a handler that qualifies attribute keys with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *PrettyHandler) attrString(a slog.Attr) string {
	v := a.Value.Resolve().String()
	if strings.ContainsAny(v, " \t\n\"") {
		v = strconv.Quote(v)
	}
	return h.prefix + a.Key + "=" + v
}
