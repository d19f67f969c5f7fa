// Package health provides the HTTP liveness and readiness handlers for
// the soupbot ops listener.
//
// The package exposes two endpoints:
//
//   - /healthz — liveness probe; always returns 200 OK, optionally with a
//     snapshot of the current interrogation round.
//   - /readyz  — readiness probe; returns 200 only when all registered
//     [Checker] functions pass.
//
// Responses are JSON objects with a top-level "status" field ("ok" or
// "fail"), a "checks" map with the result of each named checker, and an
// optional "round" object describing the live round.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// checkTimeout is the maximum time a single readiness check may take
// before the context is cancelled.
const checkTimeout = 5 * time.Second

// Checker is a named health check function. The Check function should
// return nil when the dependency is healthy and a non-nil error
// describing the failure otherwise.
type Checker struct {
	// Name is a short label for this check (e.g. "deck", "state"). It
	// appears as a key in the JSON response.
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error
}

// FileChecker returns a [Checker] that passes while the file at path
// exists and is readable. Used for the puzzle deck and the state file.
func FileChecker(name, path string) Checker {
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %q: %w", path, err)
			}
			return f.Close()
		},
	}
}

// SnapshotFunc supplies the live-round snapshot rendered on /healthz.
// It must be safe to call concurrently with the dialogue engine.
type SnapshotFunc func() map[string]any

// result is the JSON response body for health endpoints.
type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Round  map[string]any    `json:"round,omitempty"`
}

// Handler serves the /healthz and /readyz endpoints. It is safe for
// concurrent use; the checker list is fixed at construction time.
type Handler struct {
	checkers []Checker
	snapshot SnapshotFunc
}

// New creates a [Handler] that evaluates the given checkers on each
// /readyz request. The checkers are evaluated sequentially in order.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// WithSnapshot sets the live-round snapshot rendered on /healthz and
// returns the handler for chaining.
func (h *Handler) WithSnapshot(fn SnapshotFunc) *Handler {
	h.snapshot = fn
	return h
}

// Healthz is a liveness probe that always returns 200 OK. A running
// process that can serve HTTP is considered alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	res := result{Status: "ok"}
	if h.snapshot != nil {
		res.Round = h.snapshot()
	}
	writeJSON(w, http.StatusOK, res)
}

// Readyz is a readiness probe that returns 200 only when every
// registered [Checker] passes. Each checker is given a context with a
// checkTimeout deadline derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checkers))
	allOK := true

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	res := result{
		Status: "ok",
		Checks: checks,
	}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v as JSON and writes it with the given status code.
// On encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
