package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// Log formats accepted by NewLogger.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned by NewLogger for an unsupported format.
var ErrUnknownFormat = errors.New("unknown log format")

// sensitiveKeys contains attribute, header and query keys that are always
// masked.
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"x-csrf-token":        true,
	"x-xsrf-token":        true,
	"x-access-token":      true,

	// Tokens
	"token":         true,
	"access_token":  true,
	"refresh_token": true,
	"id_token":      true,
	"csrf":          true,
	"_csrf":         true,
	"api_key":       true,
	"apikey":        true,
	"key":           true,

	// Google service account
	"private_key":          true,
	"private_key_id":       true,
	"credentials":          true,
	"credentials_json":     true,
	"service_account_json": true,

	// Session
	"session":    true,
	"session_id": true,
	"sessionid":  true,
}

// sensitiveKeywords mark a key as sensitive when contained in it. The bare
// "key" is only matched exactly, since it is part of names like "tab_key".
var sensitiveKeywords = []string{
	"password", "secret", "token", "credential", "private", "cookie", "authorization",
}

// sensitivePatterns match values that are secrets whatever key carries
// them.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}$`), // Google API key
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`),
	regexp.MustCompile(`"type"\s*:\s*"service_account"`),
}

// MaskValue replaces every masked value in the output.
const MaskValue = "***REDACTED***"

// SecureHandler masks credentials before records reach the wrapped handler.
// The API token, the anti-forgery header, session cookies and the Google
// service account key all pass through request logging, so every attribute
// is checked by key and by value.
//
// Design decision:
//  1. Wrapping slog.Handler keeps every layer on a plain *slog.Logger
//  2. Text and JSON output share the same masking
type SecureHandler struct {
	next slog.Handler
}

// NewSecureHandler wraps next. A nil next wraps slog.Default().Handler().
func NewSecureHandler(next slog.Handler) *SecureHandler {
	if next == nil {
		next = slog.Default().Handler()
	}
	return &SecureHandler{next: next}
}

// Enabled defers to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle rebuilds r with masked attributes.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

// WithAttrs masks attrs once, when the child logger is built.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SecureHandler{next: h.next.WithAttrs(sanitizeAttrs(attrs))}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{next: h.next.WithGroup(name)}
}

func sanitizeAttrs(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = sanitizeAttr(a)
	}
	return out
}

// sanitizeAttr masks a by key, then by value. Groups are walked.
func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizeAttrs(a.Value.Group())...)}
	}

	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, sanitizeString(a.Value.String()))
	case slog.KindAny:
		return sanitizeAny(a)
	default:
		return a
	}
}

// sanitizeAny masks the sensitive entries of header maps and URLs.
func sanitizeAny(a slog.Attr) slog.Attr {
	switch v := a.Value.Any().(type) {
	case http.Header:
		masked := make(map[string]string, len(v))
		for k := range v {
			masked[k] = maskIfSensitive(k, v.Get(k))
		}
		return slog.Any(a.Key, masked)
	case map[string]string:
		masked := make(map[string]string, len(v))
		for k, val := range v {
			masked[k] = maskIfSensitive(k, val)
		}
		return slog.Any(a.Key, masked)
	case *url.URL:
		if v == nil {
			return a
		}
		return slog.String(a.Key, sanitizeURL(v))
	default:
		return a
	}
}

// sanitizeString masks secret-looking values and token query parameters of
// URLs.
func sanitizeString(s string) string {
	if isSensitiveValue(s) {
		return MaskValue
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if u, err := url.Parse(s); err == nil && u.RawQuery != "" {
			return sanitizeURL(u)
		}
	}
	return s
}

// sanitizeURL returns u with sensitive query parameters masked.
func sanitizeURL(u *url.URL) string {
	q := u.Query()
	changed := false
	for k, vals := range q {
		for i, val := range vals {
			if masked := maskIfSensitive(k, val); masked != val {
				vals[i] = masked
				changed = true
			}
		}
	}
	if !changed {
		return u.String()
	}
	out := *u
	out.RawQuery = q.Encode()
	return out.String()
}

func maskIfSensitive(key, value string) string {
	if IsSensitiveKey(key) || isSensitiveValue(value) {
		return MaskValue
	}
	return value
}

// IsSensitiveKey reports whether values stored under key are masked.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if sensitiveKeys[k] {
		return true
	}
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(k, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches sensitive patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// NewLogger creates a secure logger writing format ("text" or "json") to w.
// Verbose sets the level to Debug; otherwise Warn.
func NewLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return NewSecureLogger(w, verbose), nil
	case FormatJSON:
		return NewSecureJSONLogger(w, verbose), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// NewSecureLogger returns a masking logger with text output.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger returns a masking logger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
