// Package middleware wraps route handlers with request
// instrumentation: one counter increment and one latency observation
// per completed request.
package middleware

import (
	"net/http"
	"time"

	"github.com/aanand-mishra/student-records-api/internal/metrics"
)

// statusRecorder captures the status code a handler writes so it can
// be attached as a metric label after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument wraps next so every request is recorded against endpoint.
// The endpoint label is the route pattern (e.g. "/students/{id}"), not
// the raw URL, to keep metric cardinality bounded.
func Instrument(m *metrics.Metrics, endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Handlers that never call WriteHeader implicitly answer 200.
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		m.ObserveRequest(endpoint, r.Method, rec.status, time.Since(start))
	}
}
