// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/templates/registration-api/internal/core"
)

type RateLimitConfig struct {
	Limit   redis_rate.Limit
	Prefix  string
	KeyFunc func(*http.Request) string
	// FailOpen lets requests through while Redis is unreachable instead
	// of counting them in the per-instance buckets.
	FailOpen bool
}

// RateLimiter counts in Redis when a client is given, so every instance
// shares one budget per key. Without Redis it keeps token buckets in
// process memory.
type RateLimiter struct {
	shared *redis_rate.Limiter
	local  *bucketSet
	cfg    RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	rl := &RateLimiter{
		local: newBucketSet(cfg.Limit),
		cfg:   cfg,
	}
	if rdb != nil {
		rl.shared = redis_rate.NewLimiter(rdb)
	}
	return rl
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.cfg.KeyFunc(r)
		if rl.cfg.Prefix != "" {
			key = rl.cfg.Prefix + ":" + key
		}

		res, ok := rl.check(r.Context(), key)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Limit.Rate))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed > 0 {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := int(res.RetryAfter.Round(time.Second) / time.Second)
		if retryAfter < 1 {
			retryAfter = 1
		}
		h.Set("Retry-After", strconv.Itoa(retryAfter))
		core.JSONError(w, core.RateLimitedError(fmt.Sprintf(
			"Too many requests. Retry after %d seconds.",
			retryAfter,
		)))
	})
}

// check reports the limiter decision for key. ok is false when the
// request should skip limiting entirely.
func (rl *RateLimiter) check(
	ctx context.Context,
	key string,
) (res *redis_rate.Result, ok bool) {
	if rl.shared == nil {
		return rl.local.take(key, time.Now()), true
	}

	res, err := rl.shared.Allow(ctx, key, rl.cfg.Limit)
	if err == nil {
		return res, true
	}

	if rl.cfg.FailOpen {
		slog.WarnContext(ctx, "rate limit store unavailable, failing open",
			"key", key,
			"error", err,
		)
		return nil, false
	}

	slog.WarnContext(ctx, "rate limit store unavailable, counting locally",
		"key", key,
		"error", err,
	)
	return rl.local.take(key, time.Now()), true
}

func KeyByIP(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// ClientIP is the peer address of the connection. Forwarding headers are
// only honored after TrustProxy has rewritten RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Per builds a limit of requests per period. Burst is clamped to
// [1, requests].
func Per(requests, burst int, period time.Duration) redis_rate.Limit {
	if burst <= 0 || burst > requests {
		burst = requests
	}
	return redis_rate.Limit{
		Rate:   requests,
		Burst:  burst,
		Period: period,
	}
}

const bucketIdleTTL = 2 * time.Hour

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type bucketSet struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     redis_rate.Limit
	every     rate.Limit
	lastSweep time.Time
}

func newBucketSet(limit redis_rate.Limit) *bucketSet {
	return &bucketSet{
		buckets:   make(map[string]*bucket),
		limit:     limit,
		every:     rate.Every(limit.Period / time.Duration(limit.Rate)),
		lastSweep: time.Now(),
	}
}

func (s *bucketSet) take(key string, now time.Time) *redis_rate.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now)

	b, found := s.buckets[key]
	if !found {
		b = &bucket{limiter: rate.NewLimiter(s.every, s.limit.Burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{Limit: s.limit, RetryAfter: -1}

	reservation := b.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		res.RetryAfter = delay
	} else {
		res.Allowed = 1
	}

	if tokens := int(b.limiter.TokensAt(now)); tokens > 0 {
		res.Remaining = tokens
	}
	return res
}

// sweep drops idle buckets at most once per idle TTL.
func (s *bucketSet) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < bucketIdleTTL {
		return
	}
	for key, b := range s.buckets {
		if now.Sub(b.lastSeen) > bucketIdleTTL {
			delete(s.buckets, key)
		}
	}
	s.lastSweep = now
}
