package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests. Enable
	// only when traffic is HTTPS end-to-end, proxy hop included.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days.
	HSTSMaxAge time.Duration
	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
	// NoStorePaths are path prefixes whose responses must never be cached,
	// such as the payment endpoints that carry order ids and amounts.
	NoStorePaths []string
	// VaryOnCaller adds "Vary: X-User-ID" to responses of identified callers,
	// since listings like GET /transactions differ per caller.
	VaryOnCaller bool
}

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityHeaders attaches hardening headers suited to a JSON API. The static
// set is computed once; per-request work is limited to the path and scheme
// checks.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	static := [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
	}
	if opt.EnablePolicy {
		static = append(static,
			[2]string{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			[2]string{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range static {
			h.Set(kv[0], kv[1])
		}
		if hasAnyPrefix(c.Request.URL.Path, opt.NoStorePaths) {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		} else if opt.VaryOnCaller && c.GetHeader(HeaderUserID) != "" {
			h.Add("Vary", HeaderUserID)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

// isHTTPS reports whether the request arrived over TLS, directly or behind a
// proxy that set X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
