package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderIdempotencyKey lets clients retry an unsafe request, such as
	// requesting a rental or preparing a payment, without a duplicate.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotencyReplayed is "true" on responses served from a stored
	// result.
	HeaderIdempotencyReplayed = "Idempotency-Replayed"

	defaultIdempotencyKeyLen = 200
)

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var idempotencyKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~:\-]+$`)

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the key length; defaults to 200.
	MaxLen int
}

// IdempotencyLookup reports whether an unexpired result is stored for
// (userID, scope, key). Expiry is the lookup's concern.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error)

// IdempotencyValidator validates Idempotency-Key on unsafe methods and stashes
// it for handlers. When lookup finds a stored result for the caller the
// request is flagged as a replay, which also exempts it from rate limiting.
// Handlers still serve the replay themselves. Lookup failures are logged and
// the request proceeds as new.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdempotencyKeyLen
	}
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxLen || !idempotencyKeyPattern.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_idempotency_key", "invalid "+HeaderIdempotencyKey)
			return
		}
		c.Set(ctxKeyIdemKey, key)

		uid, identified := CallerID(c)
		if lookup != nil && identified {
			found, err := lookup(c.Request.Context(), uid, IdempotencyScope(c), key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

// GetIdempotencyKey returns the key accepted by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, found := c.Get(ctxKeyIdemKey)
	if !found {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyScope binds a key to one operation, such as
// "POST /api/v1/transactions", so a key reused on another endpoint never
// replays the wrong resource.
func IdempotencyScope(c *gin.Context) string {
	return c.Request.Method + " " + routeOf(c)
}

// IsReplay reports whether a stored result exists for this request.
func IsReplay(c *gin.Context) bool {
	v, found := c.Get(ctxKeyIdemReplay)
	if !found {
		return false
	}
	b, _ := v.(bool)
	return b
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}
