package handlers

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type fixedWindow struct {
	count       int
	windowStart time.Time
}

// RateLimiter is an in-process fixed-window per-client limiter. Keys are
// client IPs (chi's RealIP middleware normalizes RemoteAddr upstream).
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	limit   int
	window  time.Duration
	cleanup time.Time
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		windows: make(map[string]*fixedWindow),
		limit:   limit,
		window:  window,
		cleanup: now.Add(window),
		now:     time.Now,
	}
}

// Middleware enforces the limit, answering 429 with a Retry-After header
// once a client exhausts its window.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := rl.allow(clientIP(r))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				writeError(w, http.StatusTooManyRequests, "Too many requests received from this IP, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.After(rl.cleanup) {
		for k, win := range rl.windows {
			if now.Sub(win.windowStart) >= rl.window {
				delete(rl.windows, k)
			}
		}
		rl.cleanup = now.Add(rl.window)
	}

	win, ok := rl.windows[key]
	if !ok || now.Sub(win.windowStart) >= rl.window {
		rl.windows[key] = &fixedWindow{count: 1, windowStart: now}
		return true, 0
	}

	if win.count >= rl.limit {
		return false, win.windowStart.Add(rl.window).Sub(now)
	}
	win.count++
	return true, 0
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
