// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/registration-api/internal/core"
)

const probeTimeout = 5 * time.Second

type Checker interface {
	Ping(ctx context.Context) error
}

// Dependency is one readiness probe. Optional dependencies (Redis) are
// simply not registered when absent.
type Dependency struct {
	Name    string
	Checker Checker
}

type phase int32

const (
	phaseServing phase = iota
	phaseNotReady
	phaseDraining
)

type Handler struct {
	deps  []Dependency
	phase atomic.Int32
}

func NewHandler(deps ...Dependency) *Handler {
	return &Handler{deps: deps}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

// Health always answers while the process runs.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, StatusResponse{Status: "healthy"})
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.current() == phaseDraining {
		respond(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	}
	respond(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	switch h.current() {
	case phaseDraining:
		respond(w, http.StatusServiceUnavailable, StatusResponse{Status: "shutting_down"})
		return
	case phaseNotReady:
		respond(w, http.StatusServiceUnavailable, StatusResponse{Status: "not_ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	checks := h.probe(ctx)

	resp := ReadinessResponse{Status: "ok", Checks: checks}
	code := http.StatusOK
	for _, c := range checks {
		if !c.Healthy {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}
	respond(w, code, resp)
}

// probe pings every dependency concurrently; results keep registration
// order.
func (h *Handler) probe(ctx context.Context) []HealthCheck {
	results := make([]HealthCheck, len(h.deps))

	var wg sync.WaitGroup
	for i, dep := range h.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			err := dep.Checker.Ping(ctx)
			results[i] = HealthCheck{
				Name:    dep.Name,
				Healthy: err == nil,
				Latency: time.Since(start).String(),
			}
			if err != nil {
				results[i].Message = "ping failed"
			}
		}()
	}
	wg.Wait()

	return results
}

// SetReady toggles readiness. It has no effect once draining started.
func (h *Handler) SetReady(ready bool) {
	from, to := phaseNotReady, phaseServing
	if !ready {
		from, to = phaseServing, phaseNotReady
	}
	h.phase.CompareAndSwap(int32(from), int32(to))
}

// Drain fails both probes from now on.
func (h *Handler) Drain() {
	h.phase.Store(int32(phaseDraining))
}

func (h *Handler) current() phase {
	return phase(h.phase.Load())
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	core.JSON(w, status, data)
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}
