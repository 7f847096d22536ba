package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time      { return c.t }
func (c *fakeClock) set(d time.Duration) { c.t = clockBase.Add(d) }

var clockBase = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newClockedLimiter(cfg RateLimitConfig) (*limiter, *fakeClock) {
	clock := &fakeClock{t: clockBase}
	l := newLimiter(cfg)
	l.now = clock.now
	return l, clock
}

func hitFrom(h http.Handler, ip, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BudgetAndRetryAfter(t *testing.T) {
	l, _ := newClockedLimiter(RateLimitConfig{Max: 3, Window: time.Minute})
	h := l.middleware(okHandler())

	for _, want := range []string{"2", "1", "0"} {
		w := hitFrom(h, "10.1.0.7", "/api/products")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, want, w.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "1748772060", w.Header().Get("X-RateLimit-Reset"))
	}

	w := hitFrom(h, "10.1.0.7", "/api/cart/u1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, w.Body.String())
}

func TestRateLimit_SlidingWindow(t *testing.T) {
	l, clock := newClockedLimiter(RateLimitConfig{Max: 2, Window: time.Minute})

	steps := []struct {
		at      time.Duration
		allowed bool
	}{
		{at: 10 * time.Second, allowed: true},
		{at: 20 * time.Second, allowed: true},
		{at: 50 * time.Second, allowed: false},
		// Half of the previous window still counts: 2*0.5 = 1 of 2 used.
		{at: 90 * time.Second, allowed: true},
		{at: 90 * time.Second, allowed: false},
		// Two windows later nothing is carried over.
		{at: 3 * time.Minute, allowed: true},
	}
	for _, s := range steps {
		clock.set(s.at)
		assert.Equal(t, s.allowed, l.hit("u").allowed, "at %s", s.at)
	}
}

func TestRateLimit_SkipsHealthChecks(t *testing.T) {
	l, _ := newClockedLimiter(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		Skip: func(r *http.Request) bool {
			return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
		},
	})
	h := l.middleware(okHandler())

	for range 3 {
		w := hitFrom(h, "10.0.0.9", "/livez")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, http.StatusOK, hitFrom(h, "10.0.0.9", "/api/orders/u1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(h, "10.0.0.9", "/api/orders/u1").Code)
	assert.Equal(t, http.StatusOK, hitFrom(h, "10.0.0.9", "/readyz").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	for _, cfg := range []RateLimitConfig{
		{Max: 0, Window: time.Minute},
		{Max: 5, Window: 0},
	} {
		h := RateLimitWithCleanup(t.Context(), cfg)(okHandler())
		for range 10 {
			w := hitFrom(h, "10.0.0.1", "/")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
		}
	}
}

func TestRateLimit_ClientsAreIndependent(t *testing.T) {
	h := RateLimitWithCleanup(t.Context(), RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, hitFrom(h, "10.0.0.1", "/").Code)
	assert.Equal(t, http.StatusOK, hitFrom(h, "10.0.0.2", "/").Code)
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(h, "10.0.0.1", "/").Code)

	// Behind a proxy the forwarded client decides, not the proxy address.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:40000"
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 10.0.0.1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLimiter_SweepForgetsIdleClients(t *testing.T) {
	l, clock := newClockedLimiter(RateLimitConfig{Max: 1, Window: time.Minute})

	l.hit("idle")
	clock.set(90 * time.Second)
	l.hit("active")

	clock.set(2 * time.Minute)
	l.sweep()
	require.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "active")

	// A forgotten client starts with a full budget.
	assert.True(t, l.hit("idle").allowed)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		remote string
		want   string
	}{
		{name: "remote addr", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "forwarded first hop", header: http.Header{"X-Forwarded-For": {" 198.51.100.4 , 10.0.0.1"}}, remote: "10.0.0.1:1", want: "198.51.100.4"},
		{name: "real ip", header: http.Header{"X-Real-Ip": {"198.51.100.9"}}, remote: "10.0.0.1:1", want: "198.51.100.9"},
		{name: "bare remote", remote: "unix", want: "unix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header[k] = v
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
