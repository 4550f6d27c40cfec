// Package security keeps vendor API keys out of log output.
package security

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces any secret found in a log record.
const RedactedPlaceholder = "[REDACTED]"

// secretPatterns match vendor key formats.
var secretPatterns = []*regexp.Regexp{
	// Google AI keys: AIza + 35 chars
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{30,}`),
	// Bearer tokens, as sent to Cohere
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_.-]{20,}`),
	// Keys in query parameters
	regexp.MustCompile(`key=[a-zA-Z0-9_-]{20,}`),
	// Cohere keys are 40 alphanumerics; also covers other long opaque tokens
	regexp.MustCompile(`\b[a-zA-Z0-9]{40,}\b`),
}

// secretAttrKeys are attribute names whose values are always redacted.
var secretAttrKeys = []string{
	"authorization",
	"api_key",
	"apikey",
	"api-key",
	"secret",
	"password",
	"bearer",
	"credential",
}

// Redact replaces every secret-looking substring of s.
func Redact(s string) string {
	for _, pattern := range secretPatterns {
		s = pattern.ReplaceAllString(s, RedactedPlaceholder)
	}
	return s
}

// RedactedHandler wraps an slog.Handler and redacts secrets from each record.
type RedactedHandler struct {
	inner slog.Handler
}

// NewRedactedHandler wraps inner.
func NewRedactedHandler(inner slog.Handler) *RedactedHandler {
	return &RedactedHandler{inner: inner}
}

func (h *RedactedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactedHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *RedactedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactedHandler{inner: h.inner.WithAttrs(redacted)}
}

func (h *RedactedHandler) WithGroup(name string) slog.Handler {
	return &RedactedHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if isSecretKey(a.Key) {
		return slog.String(a.Key, RedactedPlaceholder)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, Redact(a.Value.String()))
	case slog.KindGroup:
		group := a.Value.Group()
		redacted := make([]any, len(group))
		for i, ga := range group {
			redacted[i] = redactAttr(ga)
		}
		return slog.Group(a.Key, redacted...)
	}

	if v, ok := a.Value.Any().([]string); ok {
		redacted := make([]string, len(v))
		for i, s := range v {
			redacted[i] = Redact(s)
		}
		return slog.Any(a.Key, redacted)
	}
	return a
}

// isSecretKey reports whether an attribute name denotes a credential.
// Token counts such as input_tokens are not credentials.
func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	if key == "token" || strings.HasSuffix(key, "_token") || strings.HasSuffix(key, "-token") {
		return true
	}
	for _, k := range secretAttrKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}
