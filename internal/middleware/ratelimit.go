package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// PlanLimits holds the per-minute request budget for each plan tier.
type PlanLimits struct {
	FreePerMin  int
	BasicPerMin int
	ProPerMin   int
}

// RateLimiter throttles requests per user with a budget chosen by plan tier.
// Redis backs the counters when available so limits hold across instances;
// without Redis, or when Redis fails, a per-process token bucket takes over.
type RateLimiter struct {
	limiter *redis_rate.Limiter
	limits  PlanLimits
	logger  zerolog.Logger

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter. rdb may be nil.
func NewRateLimiter(rdb *redis.Client, limits PlanLimits, logger zerolog.Logger) *RateLimiter {
	rl := &RateLimiter{
		limits: limits,
		logger: logger,
		local:  map[string]*rate.Limiter{},
	}
	if rdb != nil {
		rl.limiter = redis_rate.NewLimiter(rdb)
	}
	return rl
}

// Middleware enforces the per-user budget. Unauthenticated requests are keyed
// by client IP at the free tier.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := UserIDFromContext(r.Context())
		if key == "" {
			key = clientIP(r)
		}
		perMin := rl.limitFor(PlanFromContext(r.Context()))

		allowed, retryAfter := rl.allow(r, key, perMin)
		if !allowed {
			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limitFor(plan string) int {
	switch plan {
	case "pro":
		return rl.limits.ProPerMin
	case "basic":
		return rl.limits.BasicPerMin
	default:
		return rl.limits.FreePerMin
	}
}

func (rl *RateLimiter) allow(r *http.Request, key string, perMin int) (bool, int) {
	if perMin <= 0 {
		return true, 0
	}
	if rl.limiter != nil {
		res, err := rl.limiter.Allow(r.Context(), "ratelimit:"+key, redis_rate.PerMinute(perMin))
		if err == nil {
			return res.Allowed > 0, int(res.RetryAfter.Seconds()) + 1
		}
		rl.logger.Warn().Err(err).Msg("redis rate limit check failed, using local limiter")
	}
	return rl.allowLocal(key, perMin), 1
}

func (rl *RateLimiter) allowLocal(key string, perMin int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	lim, ok := rl.local[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin)
		rl.local[key] = lim
	}
	return lim.Allow()
}
