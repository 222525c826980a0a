package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/symptrack/pkg/logger"
	"github.com/wonny/symptrack/pkg/redis"
)

// Limiter decides whether a user may perform another mutation
type Limiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
}

// LocalLimiter is a per-process token bucket per user
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewLocalLimiter allows perSecond mutations per user with the given burst
func NewLocalLimiter(perSecond float64, burst int) *LocalLimiter {
	return &LocalLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow implements Limiter
func (l *LocalLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	l.mu.Lock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = lim
	}
	l.mu.Unlock()

	return lim.Allow(), nil
}

// SharedLimiter limits mutations across instances through Redis
type SharedLimiter struct {
	limiter   *redis.RateLimiter
	perSecond float64
	burst     int
}

// NewSharedLimiter creates a Redis-backed limiter
func NewSharedLimiter(limiter *redis.RateLimiter, perSecond float64, burst int) *SharedLimiter {
	return &SharedLimiter{limiter: limiter, perSecond: perSecond, burst: burst}
}

// Allow implements Limiter
func (l *SharedLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, redis.MutationRateLimit(userID, l.perSecond, l.burst))
	return allowed, err
}

// rateLimitMiddleware rejects mutations above the user's limit with 429.
// A limiter error lets the request through.
func rateLimitMiddleware(limiter Limiter, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := mux.Vars(r)["user"]

			allowed, err := limiter.Allow(r.Context(), userID)
			if err != nil {
				log.WithError(err).WithField("user_id", userID).Warn("Rate limiter unavailable")
				allowed = true
			}
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
