package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HeaderRequestID carries the correlation id on requests and responses.
const HeaderRequestID = "X-Request-ID"

const (
	requestIDKey = "requestID"
	loggerKey    = "logger"

	maxRequestIDLen = 128
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:\-]+$`)

// RequestID reuses a well-formed inbound X-Request-ID or mints a UUIDv4, and
// echoes it on the response. Malformed ids are replaced rather than rejected
// so a misbehaving proxy cannot break payments.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if len(rid) > maxRequestIDLen || !requestIDPattern.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation id of the current request.
func RequestIDFrom(c *gin.Context) string {
	if v, found := c.Get(requestIDKey); found {
		if s, isStr := v.(string); isStr {
			return s
		}
	}
	return c.Writer.Header().Get(HeaderRequestID)
}

// paramFields names the log field for a route parameter, keyed by the
// collection segment it follows.
var paramFields = map[string]string{
	"/transactions/:id":  "transaction_id",
	"/products/:id":      "product_id",
	"/users/:id":         "subject_id",
	"/payments/:orderId": "order_id",
}

// RequestLogger attaches a zerolog.Logger tagged with the request id, caller,
// route, and the rental resource the route addresses. The logger lives in the
// Gin context and in the request context, so services log through
// zerolog.Ctx(ctx). Access lines are written by RedactingLogger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := routeOf(c)
		uid, _ := CallerID(c)
		lc := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("user_id", uid).
			Str("method", c.Request.Method).
			Str("route", route)
		for pattern, field := range paramFields {
			if strings.Contains(route, pattern) {
				name := pattern[strings.LastIndexByte(pattern, ':')+1:]
				lc = lc.Str(field, c.Param(name))
			}
		}
		l := lc.Logger()

		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// RequestLogger did not run.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, found := c.Get(loggerKey); found {
		if lg, isLogger := v.(*zerolog.Logger); isLogger {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// Recovery turns a panic into a 500 envelope and logs the stack. A response
// already partially written is only aborted.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			abortJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		}()
		c.Next()
	}
}
