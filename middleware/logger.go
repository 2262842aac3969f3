package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ts4z/homegame/metrics"
)

type Clock interface {
	Now() time.Time
}

// RequestLogger logs each request and records it in the HTTP metrics.
type RequestLogger struct {
	next  http.Handler
	clock Clock
}

func NewRequestLogger(next http.Handler, clock Clock) *RequestLogger {
	return &RequestLogger{next: next, clock: clock}
}

func remoteAddr(r *http.Request) string {
	if r.Header.Get("X-Forwarded-For") != "" {
		return r.Header.Get("X-Forwarded-For")
	}
	return r.RemoteAddr
}

// pattern is the mux pattern that matched, which keeps ids out of the
// metric labels.
func pattern(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

func (rl *RequestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := rl.clock.Now()
	ww := &codeWatcher{w: w}
	rl.next.ServeHTTP(ww, r)
	code := ww.Code()
	duration := rl.clock.Now().Sub(start)

	metrics.HTTPRequestsTotal.WithLabelValues(r.Method, pattern(r), strconv.Itoa(code)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(r.Method, pattern(r)).Observe(duration.Seconds())
	log.Printf("[access log] %d %v %s %v (%v)", code, remoteAddr(r), r.Method, r.URL.Path, duration)
}
