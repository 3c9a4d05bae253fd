package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nao1215/leakwatch/internal/extract"
)

// MaskValue replaces values that must not be logged at all.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"password":            true,
	"passwd":              true,
	"secret":              true,
	"token":               true,
	"api_key":             true,
	"session":             true,
	"session_id":          true,
	"credential":          true,
	"credentials":         true,
	"auth":                true,
}

// sensitiveKeywords mask any key containing them. The bare word "key" is
// left out so that names like cache_key or sort_key stay readable.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "private",
}

// secretPatterns match whole values that are credentials.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// identifierPatterns match leaked identifiers embedded in free text.
var identifierPatterns = []struct {
	re   *regexp.Regexp
	mask func(string) string
}{
	{regexp.MustCompile(extract.EmailPattern), maskEmail},
	{regexp.MustCompile(extract.CreditCardPattern), maskDigits},
	{regexp.MustCompile(extract.PhonePattern), maskDigits},
}

// SecureHandler wraps an slog.Handler and redacts attributes before
// delegating to it.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler falls back to the default
// logger's handler.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record's message and attributes.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, RedactString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs redacts attrs once and attaches them to the wrapped handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(clean)}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		clean := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			clean[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, sanitizeString(a.Value.String()))
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case error:
			return slog.String(a.Key, sanitizeString(v.Error()))
		case []string:
			clean := make([]string, len(v))
			for i, s := range v {
				clean[i] = sanitizeString(s)
			}
			return slog.Any(a.Key, clean)
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if sensitiveKeys[key] {
		return true
	}
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

func sanitizeString(s string) string {
	if isSecretValue(s) {
		return MaskValue
	}
	return RedactString(s)
}

func isSecretValue(s string) bool {
	for _, re := range secretPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// RedactString masks every email address, phone number and card number in s.
// Emails keep their first character and domain; numbers keep their last four
// digits.
func RedactString(s string) string {
	for _, p := range identifierPatterns {
		s = p.re.ReplaceAllStringFunc(s, p.mask)
	}
	return s
}

func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return MaskValue
	}
	return local[:1] + "***@" + domain
}

func maskDigits(number string) string {
	var digits []byte
	for i := 0; i < len(number); i++ {
		if number[i] >= '0' && number[i] <= '9' {
			digits = append(digits, number[i])
		}
	}
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return "***" + string(digits[len(digits)-4:])
}

// NewSecureLogger returns a text logger on w. verbose lowers the level from
// Info to Debug.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
