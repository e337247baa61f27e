// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"net/http"
	"net/url"
	"slices"

	"go.astrophena.name/chartwatch/internal/syncx"
)

// Health returns the [HealthHandler] mounted at /health on mux, mounting a new
// one on first use.
func Health(mux *http.ServeMux) *HealthHandler {
	h, pat := mux.Handler(&http.Request{Method: http.MethodGet, URL: &url.URL{Path: "/health"}})
	if hh, ok := h.(*HealthHandler); ok && pat == "/health" {
		return hh
	}
	hh := &HealthHandler{checks: syncx.Protect(make(checksMap))}
	mux.Handle("/health", hh)
	return hh
}

// HealthHandler reports the state of named subsystems. It answers 200 when
// every check passes and 503 otherwise.
type HealthHandler struct{ checks *syncx.Protected[checksMap] }

type checksMap = map[string]HealthFunc

// HealthFunc reports the state of one subsystem. It must be safe for
// concurrent use.
type HealthFunc func() (status string, ok bool)

// RegisterFunc adds a check named name. It panics on a duplicate name.
func (h *HealthHandler) RegisterFunc(name string, f HealthFunc) {
	h.checks.Access(func(checks checksMap) {
		if _, dup := checks[name]; dup {
			panic("health: duplicate check " + name)
		}
		checks[name] = f
	})
}

// HealthResponse is the body of a /health response.
type HealthResponse struct {
	OK     bool                     `json:"ok"`
	Checks map[string]CheckResponse `json:"checks"`
}

// CheckResponse is the result of one check.
type CheckResponse struct {
	Status string `json:"status"`
	OK     bool   `json:"ok"`
}

// Check runs all checks in name order.
func (h *HealthHandler) Check() HealthResponse {
	hr := HealthResponse{OK: true, Checks: make(map[string]CheckResponse)}
	h.checks.RAccess(func(checks checksMap) {
		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			status, ok := checks[name]()
			hr.OK = hr.OK && ok
			hr.Checks[name] = CheckResponse{Status: status, OK: ok}
		}
	})
	return hr
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hr := h.Check()
	w.Header().Set("Content-Type", "application/json")
	if hr.OK {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	respondJSON(w, hr, true)
}
