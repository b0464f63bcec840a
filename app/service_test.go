package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forestryvehicleadmin/motorpool/config"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Storage.Dir = t.TempDir()

	seed := map[string]string{
		cfg.Storage.TypesFile:     "12 - Crew Cab\n14 - Flatbed\n",
		cfg.Storage.AssigneesFile: "Alice\nBob\n",
		cfg.Storage.DriversFile:   "Dan\nEve\n",
	}
	for name, body := range seed {
		if err := os.WriteFile(filepath.Join(cfg.Storage.Dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	if err := svc.Boot(context.Background()); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	return svc
}

func TestServiceBootCreatesScheduleFile(t *testing.T) {
	svc := newTestService(t)
	if _, err := os.Stat(svc.cfg.Storage.SchedulePath()); err != nil {
		t.Fatalf("schedule file after boot: %v", err)
	}
	if svc.Manager.Records() != 0 {
		t.Fatalf("fresh board has %d records", svc.Manager.Records())
	}
}

func TestServiceServesEntryLifecycle(t *testing.T) {
	svc := newTestService(t)

	body := `{
		"vehicle_type": "12 - Crew Cab",
		"assigned_to": "Alice",
		"status": "Confirmed",
		"checkout_date": "2024-06-03",
		"return_date": "2024-06-07",
		"authorized_drivers": ["Dan"],
		"notes": "field survey"
	}`
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/schedule", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}
	var listed []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("list body: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d entries, want 1", len(listed))
	}

	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/registry", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("registry status %d", rec.Code)
	}
	var regs map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &regs); err != nil {
		t.Fatalf("registry body: %v", err)
	}
	if len(regs) != 3 {
		t.Fatalf("registry kinds: %v", regs)
	}
}

func TestServiceTimelineRoute(t *testing.T) {
	svc := newTestService(t)
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule/timeline?view=mobile", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("timeline status %d: %s", rec.Code, rec.Body.String())
	}
}
