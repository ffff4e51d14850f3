package api

import (
	"net/http"
	"strings"

	"github.com/marginalia-app/marginalia-server/internal/ratelimit"
)

// Inbound request budget per client. Generous enough for interactive reading
// sessions while stopping runaway clients from hammering the catalog upstream.
const (
	requestsPerSecond = 10
	requestBurst      = 30
)

// rateLimitMiddleware limits requests per client, keyed by the asserted user
// identity when present and the client IP otherwise.
// Returns 429 Too Many Requests when the limit is exceeded.
func rateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger interface{ Warn(msg string, args ...any) }) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded",
					"client", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"code":"RATE_LIMITED","message":"Too many requests. Please try again later."}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey picks the rate-limit key for a request. Authenticated traffic is
// limited per user so clients behind one NAT do not share a bucket.
func clientKey(r *http.Request) string {
	if userID := strings.TrimSpace(r.Header.Get("X-User-ID")); userID != "" {
		return "user:" + userID
	}
	// RemoteAddr was already rewritten by the RealIP middleware.
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i > 0 {
		ip = ip[:i]
	}
	return "ip:" + ip
}
