package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/pkg/clientip"
)

const (
	rateLimitWindow      = 60 * time.Second
	rateLimitMaxRequests = 120
	rateLimitKeyPrefix   = "ratelimit:"
)

// RateLimit enforces a fixed-window per-IP limit backed by Redis. Requests
// are allowed through when Redis is unreachable.
func RateLimit(rdb *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientip.RealClientIP(r)
			key := rateLimitKeyPrefix + ip

			count, err := rdb.Incr(r.Context(), key).Result()
			if err != nil {
				// fail open
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				rdb.Expire(r.Context(), key, rateLimitWindow)
			}

			if count > rateLimitMaxRequests {
				w.Header().Set("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
				api.Error(w, http.StatusTooManyRequests, "Too many requests. Please slow down.", nil)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rateLimitMaxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(rateLimitMaxRequests-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}
