package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forestryvehicleadmin/motorpool/auth"
	"github.com/forestryvehicleadmin/motorpool/core/publish"
	"github.com/forestryvehicleadmin/motorpool/core/registry"
	"github.com/forestryvehicleadmin/motorpool/core/schedule"
	"github.com/forestryvehicleadmin/motorpool/infra/logger"
)

type stubPublisher struct{ calls int }

func (s *stubPublisher) Publish(context.Context, string) publish.Outcome {
	s.calls++
	return publish.Outcome{OpID: "op-1", State: publish.StatePublished}
}

func newTestHandler(t *testing.T) (http.Handler, *schedule.Manager, *stubPublisher) {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}
	regs := registry.NewSet(
		write("type_list.txt", "12 - Crew Cab\n"),
		write("assigned_to_list.txt", "Alice\n"),
		write("authorized_drivers_list.txt", "Dan\n"),
		nil,
	)
	if err := regs.Load(); err != nil {
		t.Fatalf("load registries: %v", err)
	}
	pub := &stubPublisher{}
	mgr, err := schedule.NewManager(schedule.NewStore(), regs, filepath.Join(dir, "table.csv"), pub, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	gate, err := auth.NewGate(auth.Conf{Passcode: "pine"})
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	return NewRegistryHandler(mgr, gate), mgr, pub
}

func TestRegistryHandlerListAll(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/registry", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var all map[string][]string
	if err := json.Unmarshal(rr.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all) != 3 || all["types"][0] != "12 - Crew Cab" || all["assignees"][0] != "Alice" {
		t.Fatalf("unexpected registries: %v", all)
	}
}

func TestRegistryHandlerListOne(t *testing.T) {
	h, _, _ := newTestHandler(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/registry?kind=drivers", nil))
	var values []string
	if err := json.Unmarshal(rr.Body.Bytes(), &values); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(values) != 1 || values[0] != "Dan" {
		t.Fatalf("unexpected values: %v", values)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/registry?kind=colors", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown kind, got %d", rr.Code)
	}
}

func TestRegistryHandlerAdd(t *testing.T) {
	h, mgr, pub := newTestHandler(t)
	body := `{"kind":"assignees","value":" Carol "}`
	req := httptest.NewRequest("POST", "/api/registry", strings.NewReader(body))
	req.Header.Set(PasscodeHeader, "pine")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var resp addResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Value != "Carol" || resp.Publish.State != "published" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !mgr.Registries().AssigneeExists("Carol") {
		t.Fatalf("value not appended")
	}
	if pub.calls != 1 {
		t.Fatalf("expected one publish, got %d", pub.calls)
	}
}

func TestRegistryHandlerAddDuplicate(t *testing.T) {
	h, _, _ := newTestHandler(t)
	body := `{"kind":"assignees","value":"alice"}`
	req := httptest.NewRequest("POST", "/api/registry", strings.NewReader(body))
	req.Header.Set(PasscodeHeader, "pine")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRegistryHandlerAddRequiresPasscode(t *testing.T) {
	h, mgr, _ := newTestHandler(t)
	body := `{"kind":"types","value":"7 - Utility"}`
	req := httptest.NewRequest("POST", "/api/registry", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if mgr.Registries().TypeExists("7 - Utility") {
		t.Fatalf("value appended without passcode")
	}
}

func TestRegistryHandlerAddUnknownKind(t *testing.T) {
	h, _, _ := newTestHandler(t)
	body := `{"kind":"colors","value":"Red"}`
	req := httptest.NewRequest("POST", "/api/registry", strings.NewReader(body))
	req.Header.Set(PasscodeHeader, "pine")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
