package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Logger is the logging surface the driver needs. scenic.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// UpstreamHandler is a slog.Handler that forwards records to the host as
// debug, info, warn and error messages. Attributes are rendered as
// space-separated key=value pairs after the message.
type UpstreamHandler struct {
	up     *Upstream
	level  slog.Leveler
	prefix string
	attrs  string
}

var _ slog.Handler = (*UpstreamHandler)(nil)

// NewUpstreamHandler returns a handler writing to up. A nil level means
// slog.LevelInfo.
func NewUpstreamHandler(up *Upstream, level slog.Leveler) *UpstreamHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &UpstreamHandler{up: up, level: level}
}

func (h *UpstreamHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *UpstreamHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	return h.up.Text(levelMsg(r.Level), b.String())
}

func (h *UpstreamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&b, h.prefix, a)
	}
	h2 := *h
	h2.attrs = b.String()
	return &h2
}

func (h *UpstreamHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, p, ga)
		}
		return
	}
	v := a.Value.String()
	if strings.ContainsAny(v, " =\"") {
		v = fmt.Sprintf("%q", v)
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(v)
}

func levelMsg(l slog.Level) Msg {
	switch {
	case l < slog.LevelInfo:
		return MsgDebug
	case l < slog.LevelWarn:
		return MsgInfo
	case l < slog.LevelError:
		return MsgWarn
	default:
		return MsgError
	}
}
