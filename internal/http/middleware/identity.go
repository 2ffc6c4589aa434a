package middleware

// Authentication is delegated to an upstream gateway which forwards the
// authenticated user id in X-User-ID. CallerIdentity only validates its shape.

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the authenticated caller id.
const HeaderUserID = "X-User-ID"

// ctxKeyUserID is the Gin context key holding the caller id.
const ctxKeyUserID = "userID"

// maxUserIDLen bounds the accepted header value.
const maxUserIDLen = 64

// CallerIdentity stashes a trimmed X-User-ID in the Gin context. Requests
// without the header pass through anonymously; handlers that need a caller
// reject them. Oversized or multi-line values are rejected with 400.
func CallerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if uid == "" {
			c.Next()
			return
		}
		if len(uid) > maxUserIDLen || strings.ContainsAny(uid, "\r\n\t ") {
			abortJSON(c, http.StatusBadRequest, "bad_user_id", "invalid "+HeaderUserID)
			return
		}
		c.Set(ctxKeyUserID, uid)
		c.Next()
	}
}

// CallerID returns the caller id stored by CallerIdentity.
func CallerID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}
