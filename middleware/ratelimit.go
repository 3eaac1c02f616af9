package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// Limiter allows at most max requests per client IP within a sliding window.
type Limiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	done   chan struct{}
	once   sync.Once
}

// NewLimiter starts a limiter and its cleanup loop; call Close to stop it.
func NewLimiter(max int, window time.Duration) *Limiter {
	l := &Limiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		done:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *Limiter) Close() {
	l.once.Do(func() { close(l.done) })
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for ip, hits := range l.hits {
			kept := prune(hits, cutoff)
			if len(kept) == 0 {
				delete(l.hits, ip)
			} else {
				l.hits[ip] = kept
			}
		}
		l.mu.Unlock()
	}
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Allow records a request from ip and reports whether it is within the limit.
// Rejected requests are not recorded.
func (l *Limiter) Allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.hits[ip], now.Add(-l.window))
	if len(kept) >= l.max {
		l.hits[ip] = kept
		return false
	}
	l.hits[ip] = append(kept, now)
	return true
}

// Handler rejects requests over the limit with 429. A non-positive max
// disables limiting.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.max <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if !l.Allow(ip) {
			logrus.WithFields(logrus.Fields{
				"ip":   ip,
				"path": r.URL.Path,
			}).Warn("Rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, map[string]any{"error": "too many requests", "retryable": true})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
