package providers

import (
	"net/http"
	"time"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// The route table is fixed, so anything outside it is folded into a single
// label: path scanners must not grow the metric cardinality.
var routeLabels = map[string]struct{}{
	"/api/live":            {},
	"/api/history":         {},
	"/api/history/archive": {},
	"/api/achievements":    {},
	"/api/goals":           {},
	"/api/insights":        {},
	"/trigger":             {},
	"/clear":               {},
	"/backup":              {},
}

func endpointLabel(path string) string {
	if _, ok := routeLabels[path]; ok {
		return path
	}
	return "other"
}

func MetricsMiddleware(metrics MetricsProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		endpoint := endpointLabel(r.URL.Path)
		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, duration)
	})
}
