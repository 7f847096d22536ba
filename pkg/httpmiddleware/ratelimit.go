package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window. Zero disables
	// limiting.
	Max    int
	Window time.Duration
	// KeyFunc identifies the client; ClientIP when nil.
	KeyFunc func(*http.Request) string
	// Skip exempts matching requests, e.g. health checks.
	Skip func(*http.Request) bool
}

func (c RateLimitConfig) enabled() bool {
	return c.Max > 0 && c.Window > 0
}

// counter holds the hits of the fixed window starting at start and of the
// window before it.
type counter struct {
	start      time.Time
	hits, prev float64
}

// advance moves the counter to the fixed window containing now.
func (c *counter) advance(now time.Time, size time.Duration) {
	start := now.Truncate(size)
	switch {
	case !start.After(c.start):
	case start.Sub(c.start) == size:
		c.prev, c.hits, c.start = c.hits, 0, start
	default:
		c.prev, c.hits, c.start = 0, 0, start
	}
}

// estimate weights the previous window by the share of it still inside the
// sliding window ending at now.
func (c *counter) estimate(now time.Time, size time.Duration) float64 {
	elapsed := now.Sub(c.start).Seconds() / size.Seconds()
	return c.prev*max(0, 1-elapsed) + c.hits
}

type verdict struct {
	allowed   bool
	remaining int
	reset     time.Time
}

type limiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu      sync.Mutex
	clients map[string]*counter
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	return &limiter{cfg: cfg, now: time.Now, clients: make(map[string]*counter)}
}

func (l *limiter) hit(key string) verdict {
	now := l.now()
	size := l.cfg.Window

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		c = &counter{start: now.Truncate(size)}
		l.clients[key] = c
	}
	c.advance(now, size)

	v := verdict{reset: c.start.Add(size)}
	used := c.estimate(now, size)
	if used >= float64(l.cfg.Max) {
		return v
	}
	c.hits++
	v.allowed = true
	v.remaining = max(0, l.cfg.Max-int(math.Ceil(used+1)))
	return v
}

// sweep forgets clients with no hits in the last two windows.
func (l *limiter) sweep() {
	cutoff := l.now().Add(-2 * l.cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.clients {
		if !c.start.After(cutoff) {
			delete(l.clients, key)
		}
	}
}

func (l *limiter) sweepEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// RateLimit limits each client to cfg.Max requests per sliding window and
// answers 429 beyond it. Clients are never forgotten; servers should use
// RateLimitWithCleanup.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware
}

// RateLimitWithCleanup is RateLimit plus a goroutine, bound to ctx, that
// forgets idle clients.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	if cfg.enabled() {
		go l.sweepEvery(ctx, 2*cfg.Window)
	}
	return l.middleware
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	if !l.cfg.enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.cfg.Skip != nil && l.cfg.Skip(r) {
			next.ServeHTTP(w, r)
			return
		}
		v := l.hit(l.cfg.KeyFunc(r))

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(v.reset.Unix(), 10))

		if !v.allowed {
			wait := max(0, v.reset.Sub(l.now()))
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the first X-Forwarded-For address, then X-Real-IP, then
// the host of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
