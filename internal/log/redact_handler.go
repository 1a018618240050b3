package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// MaskValue replaces the value of a redacted attribute.
const MaskValue = "***REDACTED***"

// redactedKeys are attribute keys whose values are always masked.
// Keys are compared case-insensitively.
var redactedKeys = map[string]bool{
	"cookie":              true,
	"set-cookie":          true,
	"authorization":       true,
	"proxy-authorization": true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"password":            true,
	"token":               true,
}

// redactedKeywords mask any key that contains one of them.
var redactedKeywords = []string{"secret", "token", "password", "session"}

// RedactingHandler wraps an slog.Handler and scrubs sensitive attributes
// before they reach it.
//
// Two things are scrubbed: values whose key names a credential-bearing header
// (see redactedKeys), and the userinfo part of string values that parse as
// absolute URLs.
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler wraps handler. A nil handler falls back to the
// handler of slog.Default().
func NewRedactingHandler(handler slog.Handler) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactingHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle scrubs the record's attributes and forwards it.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	scrubbed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		scrubbed.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, scrubbed)
}

// WithAttrs scrubs attrs and returns a handler that carries them.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		scrubbed[i] = redactAttr(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(scrubbed)}
}

// WithGroup returns a handler that nests later attributes under name.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

// redactAttr scrubs a single attribute, descending into groups.
func redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		scrubbed := make([]slog.Attr, len(members))
		for i, m := range members {
			scrubbed[i] = redactAttr(m)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(scrubbed...)}
	}

	if isRedactedKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		if s, ok := stripUserinfo(a.Value.String()); ok {
			return slog.String(a.Key, s)
		}
	}

	return a
}

// isRedactedKey reports whether values under key must be masked.
func isRedactedKey(key string) bool {
	lower := strings.ToLower(key)
	if redactedKeys[lower] {
		return true
	}
	for _, kw := range redactedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// stripUserinfo removes "user:password@" from an absolute URL.
// The second result is false when s is not a URL with userinfo.
func stripUserinfo(s string) (string, bool) {
	if !strings.Contains(s, "@") || !strings.Contains(s, "://") {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return "", false
	}
	u.User = nil
	return u.String(), true
}

// NewLogger returns a text logger writing to w at the given level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactingHandler(h))
}

// NewJSONLogger returns a JSON logger writing to w at the given level.
// Useful when the crawl runs under a log collector.
func NewJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactingHandler(h))
}

// Level maps the CLI verbosity flags to a slog level.
// quiet wins over verbose.
func Level(verbose, quiet bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelWarn
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
