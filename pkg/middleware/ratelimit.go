package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/linernotes/linernotes/pkg/errors"
	"github.com/linernotes/linernotes/pkg/httputil"
)

// RateLimitConfig bounds how fast a single caller may write.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
	// IdleTTL is how long an unused bucket is kept.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig allows 5 writes per second with bursts of 20.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{PerSecond: 5, Burst: 20, IdleTTL: 10 * time.Minute}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type buckets struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	entries map[string]*bucket
	swept   time.Time
	now     func() time.Time
}

func newBuckets(cfg RateLimitConfig) *buckets {
	return &buckets{cfg: cfg, entries: make(map[string]*bucket), now: time.Now}
}

// reserve takes a token for key. It returns zero when the request may proceed,
// otherwise how long the caller should wait.
func (b *buckets) reserve(key string) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if b.cfg.IdleTTL > 0 && now.Sub(b.swept) >= b.cfg.IdleTTL {
		for k, e := range b.entries {
			if now.Sub(e.lastSeen) >= b.cfg.IdleTTL {
				delete(b.entries, k)
			}
		}
		b.swept = now
	}

	e, ok := b.entries[key]
	if !ok {
		e = &bucket{limiter: rate.NewLimiter(rate.Limit(b.cfg.PerSecond), b.cfg.Burst)}
		b.entries[key] = e
	}
	e.lastSeen = now

	if e.limiter.AllowN(now, 1) {
		return 0
	}
	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return time.Second
	}
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return wait
}

// RateLimit throttles unsafe methods per caller. Authenticated callers are
// keyed by user id, anonymous ones by remote address. Reads pass untouched.
func RateLimit(cfg RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if cfg.PerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	store := newBuckets(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			key := callerKey(r)
			if wait := store.reserve(key); wait > 0 {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("caller", key),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				httputil.WriteError(w, r, apperrors.RateLimited("too many requests, slow down"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if id := UserIDFromContext(r.Context()); id != "" {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
