package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, limit int) *RateLimiter {
	t.Helper()
	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRateLimiter(ctx, limit, &logger)
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newTestLimiter(t, 2)
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))
}

func TestRateLimiter_WindowReset(t *testing.T) {
	rl := newTestLimiter(t, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("ip"))
	assert.False(t, rl.Allow("ip"))

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("ip"))
}

func TestRateLimiter_Purge(t *testing.T) {
	rl := newTestLimiter(t, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.Allow("old")

	now = now.Add(time.Hour)
	rl.purge(10 * time.Minute)
	assert.Empty(t, rl.visitors)
}

func TestRateLimit_Middleware(t *testing.T) {
	h := RateLimit(newTestLimiter(t, 1))(okHandler())

	send := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/query", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234", ""))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5678", ""))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234", "203.0.113.7, 10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.2:1", "203.0.113.7"))
}
