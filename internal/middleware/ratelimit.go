// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/portfolio-api/internal/core"
)

type RateLimitConfig struct {
	Limit    redis_rate.Limit
	KeyFunc  func(*http.Request) string
	Prefix   string
	FailOpen bool
}

// RateLimiter enforces a distributed limit via redis_rate with an
// in-process token-bucket fallback when redis is unreachable and FailOpen
// is false.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "rl"
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(cfg.Limit),
		config:   cfg,
	}
}

func PerMinute(requests, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   requests,
		Period: time.Minute,
		Burst:  burst,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.config.Prefix + ":" + rl.config.KeyFunc(r)

		res, err := rl.limiter.Allow(r.Context(), key, rl.config.Limit)
		if err != nil {
			if rl.config.FailOpen {
				slog.Warn("rate limiter error, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}

			if !rl.fallback.allow(key) {
				writeRateLimitExceeded(w, 0)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res.RetryAfter)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func KeyByIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
}

func writeRateLimitExceeded(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set(
			"Retry-After",
			strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())),
		)
	}
	core.JSON(w, http.StatusTooManyRequests, core.ErrorResponse{
		Message: "too many requests",
	})
}

// localLimiter keeps a per-key token bucket in memory. Only consulted when
// redis is down, so the map is bounded by the small number of keys seen
// during an outage; entries idle past localLimiterTTL are evicted.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	limit   rate.Limit
	burst   int
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const localLimiterTTL = 10 * time.Minute

func newLocalLimiter(l redis_rate.Limit) *localLimiter {
	perSecond := float64(l.Rate) / l.Period.Seconds()

	return &localLimiter{
		buckets: make(map[string]*localBucket),
		limit:   rate.Limit(perSecond),
		burst:   l.Burst,
	}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	for k, bucket := range l.buckets {
		if now.Sub(bucket.lastSeen) > localLimiterTTL {
			delete(l.buckets, k)
		}
	}

	return b.limiter.Allow()
}
