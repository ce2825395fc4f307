package middleware

import (
	"net/http"
	"time"
)

// LatencyObserver records request latency and outcome. Satisfied by the
// platform metrics struct; an interface keeps this package free of a
// prometheus dependency.
type LatencyObserver interface {
	ObserveRequest(method, path string, status int, duration time.Duration)
}

// Latency records request duration and status for each handled request.
func Latency(observer LatencyObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			observer.ObserveRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}
