package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/rpupo63/portfolio-cms-backend/errs"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than idleTTL are swept on a later call.
type ipRateLimiter struct {
	name      string
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// newIPRateLimiter allows burst requests at once and one more every interval.
func newIPRateLimiter(name string, interval time.Duration, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		name:     name,
		visitors: make(map[string]*visitor),
		every:    rate.Every(interval),
		burst:    burst,
		idleTTL:  interval * time.Duration(burst+1),
		now:      time.Now,
	}
}

// allow takes a token for key. When none is left it returns the time until
// the next one.
func (l *ipRateLimiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.idleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	if v.limiter.AllowN(now, 1) {
		return true, 0
	}
	r := v.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return false, delay
}

func (l *ipRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// middleware rejects requests over the limit with 429 and a Retry-After header.
func (l *ipRateLimiter) middleware(m *metrics) func(http.Handler) http.Handler {
	responder := NewResponder(log.With().Str("handlerName", "rateLimiter").Str("limiter", l.name).Logger())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryAfter := l.allow(clientIP(r))
			if !ok {
				if m != nil {
					m.rateLimited.WithLabelValues(l.name).Inc()
				}
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				responder.WriteError(w, errs.NewRateLimitError(l.name, retryAfter))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr, which middleware.RealIP has
// already replaced with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
