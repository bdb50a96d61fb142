package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count int
	start time.Time
}

// NewRateLimiter allows max requests per key in each window.
func NewRateLimiter(max int, per time.Duration) *RateLimiter {
	return &RateLimiter{
		max:     max,
		window:  per,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Allow records one request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.windows[key] = &window{count: 1, start: now}
		return true
	}
	if w.count >= rl.max {
		return false
	}
	w.count++
	return true
}

// RetryAfter returns how long until key's window resets.
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok {
		return 0
	}
	left := rl.window - rl.now().Sub(w.start)
	if left < 0 {
		return 0
	}
	return left
}

// Sweep drops expired windows and returns how many were removed.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.window {
			delete(rl.windows, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired windows once per window until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// =============================================================================
// Middleware
// =============================================================================

// RateLimitMiddleware throttles requests by client IP.
type RateLimitMiddleware struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewRateLimitMiddleware wraps limiter for use on HTTP routes.
func NewRateLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
	}
}

// Limit answers 429 with a JSON body and Retry-After once a client exceeds
// the limit.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if m.limiter.Allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		m.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)

		secs := int(m.limiter.RetryAfter(ip).Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "Too many requests. Please try again later.",
		})
	})
}

// =============================================================================
// Helpers
// =============================================================================

// clientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
