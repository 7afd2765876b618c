package server

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/apperr"
)

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; img-src 'self'")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *httpServer) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

func (h *httpServer) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				h.writeError(w, apperr.Internal("internal server error", fmt.Errorf("panic: %v", err)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *httpServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.allow(clientIP(r)) {
			h.writeError(w, apperr.RateLimited("too many requests, please try again shortly"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Idle client buckets are dropped after limiterIdle; the map is swept at
// most once per limiterSweep, from within allow.
const (
	limiterIdle  = 10 * time.Minute
	limiterSweep = time.Minute
)

// keyedLimiter gives every client its own token bucket.
type keyedLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyedLimiter(rps float64, burst int) *keyedLimiter {
	return &keyedLimiter{
		limiters:  make(map[string]*clientLimiter),
		limit:     rate.Limit(rps),
		burst:     burst,
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

func (k *keyedLimiter) allow(key string) bool {
	k.mu.Lock()
	now := k.now()
	if now.Sub(k.lastSweep) >= limiterSweep {
		k.sweep(now)
	}
	c, ok := k.limiters[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = c
	}
	c.lastSeen = now
	k.mu.Unlock()
	return c.limiter.AllowN(now, 1)
}

// sweep must be called with k.mu held.
func (k *keyedLimiter) sweep(now time.Time) {
	for key, c := range k.limiters {
		if now.Sub(c.lastSeen) > limiterIdle {
			delete(k.limiters, key)
		}
	}
	k.lastSweep = now
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
