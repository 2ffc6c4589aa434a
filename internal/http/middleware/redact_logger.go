package middleware

import (
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RedactOptions extends the built-in masks of RedactingLogger. Names are
// matched case-insensitively.
type RedactOptions struct {
	// MaskHeaders are logged as "[REDACTED]" in addition to Authorization,
	// Cookie and Set-Cookie.
	MaskHeaders []string
	// MaskParams are query parameters logged as "[REDACTED]" in addition to
	// the payment credentials (paymentKey, payment_key, secret, token).
	MaskParams []string
}

const (
	masked            = "[REDACTED]"
	maxQueryLogLength = 2048
)

var (
	defaultMaskedHeaders = []string{"Authorization", "Cookie", "Set-Cookie"}
	defaultMaskedParams  = []string{"paymentKey", "payment_key", "secret", "token"}

	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// scrub replaces ids, emails, and phone numbers with placeholders. UUIDs go
// first so the phone pattern cannot match their digit groups.
func scrub(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

type redactor struct {
	headers map[string]struct{}
	params  map[string]struct{}
}

func newRedactor(opts RedactOptions) *redactor {
	r := &redactor{headers: map[string]struct{}{}, params: map[string]struct{}{}}
	for _, h := range append(defaultMaskedHeaders, opts.MaskHeaders...) {
		if h = strings.TrimSpace(h); h != "" {
			r.headers[strings.ToLower(h)] = struct{}{}
		}
	}
	for _, p := range append(defaultMaskedParams, opts.MaskParams...) {
		if p = strings.TrimSpace(p); p != "" {
			r.params[strings.ToLower(p)] = struct{}{}
		}
	}
	return r
}

func (r *redactor) header(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, hide := r.headers[strings.ToLower(k)]; hide {
			out[k] = masked
			continue
		}
		out[k] = scrub(strings.Join(vv, ", "))
	}
	return out
}

// query rewrites raw with credential parameters masked and every other value
// scrubbed. Keys are emitted sorted; unparsable queries are scrubbed whole.
func (r *redactor) query(raw string) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return truncate(scrub(raw), maxQueryLogLength)
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		_, hide := r.params[strings.ToLower(k)]
		for _, v := range vals[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			if hide {
				b.WriteString(masked)
			} else {
				b.WriteString(scrub(v))
			}
		}
	}
	return truncate(b.String(), maxQueryLogLength)
}

// RedactingLogger writes one access line per request through the
// request-scoped logger. Bodies are never logged. Credential headers and
// query parameters are masked and remaining values are scrubbed of ids and
// contact data. 4xx responses log at warn; 5xx responses and requests that
// recorded Gin errors log at error.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	red := newRedactor(opts)
	return func(c *gin.Context) {
		start := time.Now()
		query := red.query(c.Request.URL.RawQuery)
		headers := red.header(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		lg := LoggerFrom(c)
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError || len(c.Errors) > 0:
			ev = lg.Error()
		case status >= http.StatusBadRequest:
			ev = lg.Warn()
		default:
			ev = lg.Info()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		if c.Writer.Header().Get(HeaderIdempotencyReplayed) == "true" {
			ev = ev.Bool("replayed", true)
		}
		ev.Str("query", query).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// truncate cuts s to max bytes plus an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
