package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// statusRecorder remembers the first status code and counts body bytes.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	size    int
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.status, sr.written = code, true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.written = true
	n, err := sr.ResponseWriter.Write(b)
	sr.size += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter { return sr.ResponseWriter }

// routeLabel is the matched mux pattern without its method. Requests that
// match nothing share the "unmatched" label.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}

// Middleware records request count, latency and response size per route.
// It wraps the mux from the outside; r.Pattern is only set once the mux
// has routed the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sr, r)
		elapsed := time.Since(start)

		route := routeLabel(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sr.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		HTTPResponseSize.WithLabelValues(route).Observe(float64(sr.size))
	})
}
