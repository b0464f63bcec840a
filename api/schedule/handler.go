// Package schedule exposes the reservation board over JSON HTTP. Reads are
// open; every mutation checks the edit passcode and reports how the publish
// to the shared remote went alongside the applied change.
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/forestryvehicleadmin/motorpool/auth"
	"github.com/forestryvehicleadmin/motorpool/core/model"
	"github.com/forestryvehicleadmin/motorpool/core/publish"
	"github.com/forestryvehicleadmin/motorpool/core/registry"
	"github.com/forestryvehicleadmin/motorpool/core/schedule"
)

// PasscodeHeader carries the edit passcode on mutating requests.
const PasscodeHeader = "X-Passcode"

const dayLayout = "2006-01-02"

type publishStatus struct {
	OpID   string `json:"op_id,omitempty"`
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

func publishStatusOf(out publish.Outcome) publishStatus {
	return publishStatus{OpID: out.OpID, State: out.State.String(), Reason: out.Reason()}
}

type entryResponse struct {
	Entry   model.Reservation `json:"entry"`
	Publish publishStatus     `json:"publish"`
}

type entryRequest struct {
	VehicleType       string   `json:"vehicle_type"`
	AssignedTo        string   `json:"assigned_to"`
	Status            string   `json:"status"`
	CheckoutDate      string   `json:"checkout_date"`
	ReturnDate        string   `json:"return_date"`
	AuthorizedDrivers []string `json:"authorized_drivers"`
	Notes             string   `json:"notes"`
}

func (req entryRequest) fields() (schedule.Fields, error) {
	checkout, err := parseDay(req.CheckoutDate)
	if err != nil {
		return schedule.Fields{}, fmt.Errorf("checkout_date: %w", err)
	}
	ret, err := parseDay(req.ReturnDate)
	if err != nil {
		return schedule.Fields{}, fmt.Errorf("return_date: %w", err)
	}
	return schedule.Fields{
		VehicleType:       req.VehicleType,
		AssignedTo:        req.AssignedTo,
		Status:            model.Status(req.Status),
		CheckoutDate:      checkout,
		ReturnDate:        ret,
		AuthorizedDrivers: req.AuthorizedDrivers,
		Notes:             req.Notes,
	}, nil
}

// NewScheduleHandler serves the collection: GET lists entries filtered by
// type, assignee and status parameters, POST creates one entry.
func NewScheduleHandler(mgr *schedule.Manager, gate *auth.Gate) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			q := r.URL.Query()
			spec := schedule.FilterSpec{
				Types:     q["type"],
				Assignees: q["assignee"],
				Statuses:  q["status"],
			}
			writeJSON(w, http.StatusOK, mgr.Filter(spec))
		case http.MethodPost:
			if !authorized(w, r, gate) {
				return
			}
			var req entryRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f, err := req.fields()
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec, out, err := mgr.Create(r.Context(), f)
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, entryResponse{Entry: rec, Publish: publishStatusOf(out)})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// NewEntryHandler serves one entry addressed by the id parameter: GET returns
// it, PUT replaces it, DELETE removes it.
func NewEntryHandler(mgr *schedule.Manager, gate *auth.Gate) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.URL.Query().Get("id"))
		if err != nil {
			http.Error(w, "id parameter required", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			rec, err := mgr.Get(id)
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, http.StatusOK, rec)
		case http.MethodPut:
			if !authorized(w, r, gate) {
				return
			}
			var req entryRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f, err := req.fields()
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec, out, err := mgr.Update(r.Context(), id, f)
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, http.StatusOK, entryResponse{Entry: rec, Publish: publishStatusOf(out)})
		case http.MethodDelete:
			if !authorized(w, r, gate) {
				return
			}
			rec, out, err := mgr.Delete(r.Context(), id)
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, http.StatusOK, entryResponse{Entry: rec, Publish: publishStatusOf(out)})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

type bulkRequest struct {
	VehicleType       string   `json:"vehicle_type"`
	AssignedTo        string   `json:"assigned_to"`
	Status            string   `json:"status"`
	From              string   `json:"from"`
	To                string   `json:"to"`
	Weekdays          []string `json:"weekdays"`
	AuthorizedDrivers []string `json:"authorized_drivers"`
	Notes             string   `json:"notes"`
}

type bulkResponse struct {
	Entries []model.Reservation `json:"entries"`
	Publish publishStatus       `json:"publish"`
}

// NewBulkHandler creates one entry per consecutive run of selected weekdays
// between from and to, all under a single publish.
func NewBulkHandler(mgr *schedule.Manager, gate *auth.Gate) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(w, r, gate) {
			return
		}
		var req bulkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		from, err := parseDay(req.From)
		if err != nil {
			http.Error(w, fmt.Sprintf("from: %v", err), http.StatusBadRequest)
			return
		}
		to, err := parseDay(req.To)
		if err != nil {
			http.Error(w, fmt.Sprintf("to: %v", err), http.StatusBadRequest)
			return
		}
		weekdays, err := schedule.ParseWeekdays(req.Weekdays)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		spans := schedule.WeekdaySpans(from, to, weekdays)
		if len(spans) == 0 {
			http.Error(w, "no days match the selection", http.StatusUnprocessableEntity)
			return
		}
		f := schedule.Fields{
			VehicleType:       req.VehicleType,
			AssignedTo:        req.AssignedTo,
			Status:            model.Status(req.Status),
			AuthorizedDrivers: req.AuthorizedDrivers,
			Notes:             req.Notes,
		}
		recs, out, err := mgr.CreateBulk(r.Context(), f, spans)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, bulkResponse{Entries: recs, Publish: publishStatusOf(out)})
	})
}

type purgeResponse struct {
	Removed int           `json:"removed"`
	Publish publishStatus `json:"publish"`
}

// NewPurgeHandler bulk-deletes entries returned on or before the day in the
// before parameter.
func NewPurgeHandler(mgr *schedule.Manager, gate *auth.Gate) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(w, r, gate) {
			return
		}
		cutoff, err := parseDay(r.URL.Query().Get("before"))
		if err != nil {
			http.Error(w, fmt.Sprintf("before: %v", err), http.StatusBadRequest)
			return
		}
		n, out, err := mgr.DeleteBefore(r.Context(), cutoff)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, purgeResponse{Removed: n, Publish: publishStatusOf(out)})
	})
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date required")
	}
	if t, err := time.Parse(dayLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func authorized(w http.ResponseWriter, r *http.Request, gate *auth.Gate) bool {
	if err := gate.Verify(r.Header.Get(PasscodeHeader)); err != nil {
		http.Error(w, "invalid passcode", http.StatusUnauthorized)
		return false
	}
	return true
}

// fail maps domain errors onto HTTP status codes: refused input is the
// caller's fault, a missing id is 404, anything else is on us.
func fail(w http.ResponseWriter, err error) {
	var verr *schedule.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, schedule.ErrNotFound):
		http.Error(w, "entry not found", http.StatusNotFound)
	case errors.Is(err, registry.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
