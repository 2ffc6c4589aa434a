// Package middleware holds the Gin middleware of the rental API: request
// correlation, caller identity, access logging with redaction, Prometheus
// instrumentation, idempotency keys, rate limiting, and security headers.
package middleware

import "github.com/gin-gonic/gin"

// errorBody mirrors the handlers' ErrorResponse so middleware rejections
// look like every other API error.
type errorBody struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// ctxKeyRejected holds the code of a middleware rejection for Metrics.
const ctxKeyRejected = "rejected"

func abortJSON(c *gin.Context, status int, code, msg string) {
	c.Set(ctxKeyRejected, code)
	c.AbortWithStatusJSON(status, errorBody{
		RequestID: RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	})
}

// routeOf returns the registered route pattern, or the raw path when no
// route matched.
func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}
