package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc selects the bucket a request draws from.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP keys identified callers by user id and anonymous traffic by
// client IP, in separate namespaces.
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if uid, found := CallerID(c); found {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

const (
	bucketIdleTTL  = 10 * time.Minute
	sweepEveryHits = 5000
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter is a process-local token-bucket limiter with one bucket per
// key. Routes may cost more than one token, so gateway-backed payment calls
// drain a bucket faster than catalog reads. Idle buckets are swept
// opportunistically. Safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	keyFn KeyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	hits    int

	exempt map[string]struct{}
	costs  map[string]int
	now    func() time.Time
}

// NewRateLimiter refills rps tokens per second up to burst (at least 1).
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		exempt:  make(map[string]struct{}),
		costs:   make(map[string]int),
		now:     time.Now,
	}
}

// Exempt never limits the given route patterns (c.FullPath values).
func (rl *RateLimiter) Exempt(routes ...string) *RateLimiter {
	for _, r := range routes {
		rl.exempt[r] = struct{}{}
	}
	return rl
}

// Cost charges tokens per request on route. Costs are capped at the burst
// so a request can always eventually pass.
func (rl *RateLimiter) Cost(route string, tokens int) *RateLimiter {
	if tokens > rl.burst {
		tokens = rl.burst
	}
	if tokens > 1 {
		rl.costs[route] = tokens
	}
	return rl
}

func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Sweep before the lookup so a stale bucket for key is replaced too.
	if rl.hits++; rl.hits >= sweepEveryHits {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) >= bucketIdleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.hits = 0
	}
	b, found := rl.buckets[key]
	if !found {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	return b.lim
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay, which is served without spending tokens.
func IsRateBypass(c *gin.Context) bool {
	v, found := c.Get(ctxKeyRateBypass)
	if !found {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limits. Rejected requests get 429 with a Retry-After
// rounded up to whole seconds from the bucket's actual refill time.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, skip := rl.exempt[route]; skip || IsRateBypass(c) {
			c.Next()
			return
		}
		cost := 1
		if n, found := rl.costs[route]; found {
			cost = n
		}

		now := rl.now()
		res := rl.limiter(rl.keyFn(c), now).ReserveN(now, cost)
		wait := res.DelayFrom(now)
		if res.OK() && wait == 0 {
			c.Next()
			return
		}
		res.CancelAt(now)

		retry := 1
		if wait > 0 && wait != rate.InfDuration {
			retry = int(math.Ceil(wait.Seconds()))
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		abortJSON(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
	}
}
