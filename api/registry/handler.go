// Package registry exposes the lookup registries over JSON HTTP: the selector
// vocabularies are readable by anyone, appends require the edit passcode and
// are published like any other board change.
package registry

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/forestryvehicleadmin/motorpool/auth"
	"github.com/forestryvehicleadmin/motorpool/core/registry"
	"github.com/forestryvehicleadmin/motorpool/core/schedule"
)

// PasscodeHeader carries the edit passcode on mutating requests.
const PasscodeHeader = "X-Passcode"

type publishStatus struct {
	OpID   string `json:"op_id,omitempty"`
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

type addRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type addResponse struct {
	Kind    string        `json:"kind"`
	Value   string        `json:"value"`
	Publish publishStatus `json:"publish"`
}

// NewRegistryHandler serves the registries. GET without a kind parameter
// returns every registry keyed by name, GET with one returns that registry's
// values, POST appends a value to the named registry.
func NewRegistryHandler(mgr *schedule.Manager, gate *auth.Gate) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			kind := r.URL.Query().Get("kind")
			if kind == "" {
				all := make(map[string][]string, 3)
				for _, reg := range mgr.Registries().All() {
					all[reg.Name()] = reg.Values()
				}
				writeJSON(w, http.StatusOK, all)
				return
			}
			reg, ok := mgr.Registries().ByName(kind)
			if !ok {
				http.Error(w, "unknown registry", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, reg.Values())
		case http.MethodPost:
			if err := gate.Verify(r.Header.Get(PasscodeHeader)); err != nil {
				http.Error(w, "invalid passcode", http.StatusUnauthorized)
				return
			}
			var req addRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if _, ok := mgr.Registries().ByName(req.Kind); !ok {
				http.Error(w, "unknown registry", http.StatusNotFound)
				return
			}
			value := strings.TrimSpace(req.Value)
			out, err := mgr.AddRegistryValue(r.Context(), req.Kind, value)
			if err != nil {
				if errors.Is(err, registry.ErrAlreadyExists) {
					http.Error(w, err.Error(), http.StatusConflict)
					return
				}
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusCreated, addResponse{
				Kind:  req.Kind,
				Value: value,
				Publish: publishStatus{
					OpID:   out.OpID,
					State:  out.State.String(),
					Reason: out.Reason(),
				},
			})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
