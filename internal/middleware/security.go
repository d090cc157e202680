package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/pkg/clientip"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// --- Login route rate limiting (1 req/5s, burst 2, in-process) ---

const (
	loginRateLimitEvery  = 5 * time.Second
	loginRateLimitBurst  = 2
	loginCleanupInterval = 5 * time.Minute
	loginLimiterTTL      = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

type loginLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	paths   map[string]bool
}

func newLoginLimiter(paths []string) *loginLimiter {
	l := &loginLimiter{
		entries: make(map[string]*limiterEntry),
		paths:   make(map[string]bool, len(paths)),
	}
	for _, p := range paths {
		l.paths[p] = true
	}
	go l.cleanupLoop()
	return l
}

func (l *loginLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(loginRateLimitEvery), loginRateLimitBurst),
		}
		l.entries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func (l *loginLimiter) cleanupLoop() {
	ticker := time.NewTicker(loginCleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for ip, e := range l.entries {
			if now.Sub(e.lastUse) > loginLimiterTTL {
				delete(l.entries, ip)
			}
		}
		l.mu.Unlock()
	}
}

// LoginRateLimit applies a stricter per-IP limit to credential routes only.
func LoginRateLimit(paths ...string) func(http.Handler) http.Handler {
	limiter := newLoginLimiter(paths)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.paths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			ip := clientip.RealClientIP(r)
			if !limiter.get(ip).Allow() {
				api.Error(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
