package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityEngine(opt SecurityOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(opt))
	r.GET("/api/v1/payments/:orderId", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/transactions", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serveSecured(r *gin.Engine, path string, mutate func(*http.Request)) http.Header {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serveSecured(securityEngine(SecurityOptions{}), "/api/v1/transactions", nil)

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	}
	for k, v := range want {
		if h.Get(k) != v {
			t.Fatalf("%s = %q; want %q", k, h.Get(k), v)
		}
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security", "Vary"} {
		if h.Get(k) != "" {
			t.Fatalf("unexpected %s = %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_PaymentsNeverCached(t *testing.T) {
	r := securityEngine(SecurityOptions{NoStorePaths: []string{"/api/v1/payments"}, VaryOnCaller: true})
	withCaller := func(req *http.Request) { req.Header.Set(HeaderUserID, "renter-1") }

	h := serveSecured(r, "/api/v1/payments/order-1", withCaller)
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("payment response cacheable: %#v", h)
	}
	if h.Get("Vary") != "" {
		t.Fatalf("no-store response should not vary: %q", h.Get("Vary"))
	}

	h = serveSecured(r, "/api/v1/transactions", withCaller)
	if h.Get("Cache-Control") != "" {
		t.Fatalf("transactions Cache-Control = %q", h.Get("Cache-Control"))
	}
	if h.Get("Vary") != HeaderUserID {
		t.Fatalf("Vary = %q; want %s", h.Get("Vary"), HeaderUserID)
	}

	// Anonymous requests are not caller-specific.
	if v := serveSecured(r, "/api/v1/transactions", nil).Get("Vary"); v != "" {
		t.Fatalf("anonymous Vary = %q", v)
	}
}

func TestSecurityHeaders_PolicyAndHSTS(t *testing.T) {
	r := securityEngine(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour, EnablePolicy: true})

	h := serveSecured(r, "/api/v1/transactions", func(req *http.Request) { req.TLS = &tls.ConnectionState{} })
	if h.Get("X-Permitted-Cross-Domain-Policies") != "none" || h.Get("Permissions-Policy") == "" {
		t.Fatalf("policy headers missing: %#v", h)
	}
	if got := h.Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Fatalf("HSTS = %q", got)
	}

	h = serveSecured(r, "/api/v1/transactions", func(req *http.Request) { req.Header.Set("X-Forwarded-Proto", "HTTPS") })
	if h.Get("Strict-Transport-Security") == "" {
		t.Fatalf("HSTS missing behind TLS-terminating proxy")
	}

	if got := serveSecured(r, "/api/v1/transactions", nil).Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS on plain HTTP: %q", got)
	}
}

func TestSecurityHeaders_DefaultHSTSMaxAge(t *testing.T) {
	r := securityEngine(SecurityOptions{EnableHSTS: true})
	h := serveSecured(r, "/api/v1/transactions", func(req *http.Request) { req.TLS = &tls.ConnectionState{} })
	if got := h.Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains; preload" {
		t.Fatalf("default HSTS = %q", got)
	}
}
