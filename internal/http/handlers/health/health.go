// Package health implements the liveness and readiness probes polled
// by load balancers and orchestrators.
//
// Liveness (/healthcheck) answers 200 whenever the process can respond
// at all. Readiness (/ready) round-trips to the database and the cache
// on every call — it is deliberately not cached, so a dependency
// outage flips the probe on the next poll.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/aanand-mishra/student-records-api/internal/utils/response"
)

// Pinger is the slice of a dependency the probes need: a bounded
// round-trip. Both storage.Storage and cache.Cache satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// readiness is the JSON body of GET /ready.
type readiness struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Cache  string `json:"cache"`
}

// Healthcheck handles GET /healthcheck. Always 200; the body shape
// matches what the deployment probes already expect.
func Healthcheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// Ready handles GET /ready. It pings the store and the cache, each
// bounded by timeout, and answers 200 only when both succeed —
// otherwise 503 with per-dependency detail so an operator can see
// which side is down.
func Ready(store, cache Pinger, timeout time.Duration) http.HandlerFunc {
	check := func(ctx context.Context, p Pinger) string {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := p.Ping(pctx); err != nil {
			return "unreachable"
		}
		return "ok"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		body := readiness{
			Store: check(r.Context(), store),
			Cache: check(r.Context(), cache),
		}

		if body.Store != "ok" || body.Cache != "ok" {
			body.Status = "not ready"
			response.WriteJSON(w, http.StatusServiceUnavailable, body)
			return
		}

		body.Status = "ready"
		response.WriteJSON(w, http.StatusOK, body)
	}
}
