package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/dsplugin/internal/server/response"
)

// RateLimiter is a fixed-window limiter keyed by client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	logger   *zerolog.Logger
	now      func() time.Time
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter allows limit requests per minute per IP. Stale visitors
// are purged until ctx is done.
func NewRateLimiter(ctx context.Context, limit int, logger *zerolog.Logger) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   time.Minute,
		logger:   logger,
		now:      time.Now,
	}
	go rl.cleanup(ctx, 5*time.Minute)
	return rl
}

func (rl *RateLimiter) cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.purge(10 * time.Minute)
		}
	}
}

func (rl *RateLimiter) purge(olderThan time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if rl.now().Sub(v.lastReset) > olderThan {
			delete(rl.visitors, ip)
		}
	}
}

// Allow consumes a token for ip and reports whether the request may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok || now.Sub(v.lastReset) > rl.window {
		v = &visitor{tokens: rl.limit, lastReset: now}
		rl.visitors[ip] = v
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// RateLimit rejects requests over the limit with 429.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.Allow(ip) {
				rl.logger.Warn().
					Str("ip", ip).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")
				response.RateLimited(w, "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For entry, then the remote host.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
