package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimit caps requests per client IP inside a fixed window. It guards the
// endpoints that submit billable generation work; limited requests get a 429
// with a Retry-After hint.
func RateLimit(limit int, per time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	var mu sync.Mutex
	windows := make(map[string]*rateWindow)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIPForRateLimit(r)
			now := time.Now()

			mu.Lock()
			win, ok := windows[ip]
			if !ok || now.After(win.resetAt) {
				win = &rateWindow{resetAt: now.Add(per)}
				windows[ip] = win
			}
			if win.count >= limit {
				resetAt := win.resetAt
				mu.Unlock()
				logger.Warn().
					Str("ip", ip).
					Str("path", r.URL.Path).
					Int("limit", limit).
					Msg("middleware: rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(secondsUntil(now, resetAt)))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			win.count++
			mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

func secondsUntil(now, t time.Time) int {
	s := int(t.Sub(now).Round(time.Second) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// clientIPForRateLimit prefers the first valid X-Forwarded-For hop and falls
// back to the connection's remote address.
func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
