package registry

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadSortsAndSkipsBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "type_list.txt")
	writeFile(t, path, "14 - Flatbed\n\n  12 - Crew Cab  \n\n7 - Utility\n")
	r := New("types", path, nil)
	if err := r.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"12 - Crew Cab", "14 - Flatbed", "7 - Utility"}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	r := New("types", filepath.Join(t.TempDir(), "absent.txt"), nil)
	if err := r.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %v", r.Values())
	}
}

func TestAppendPersistsSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assigned_to_list.txt")
	writeFile(t, path, "Miller\nAdams\n")
	r := New("assignees", path, nil)
	if err := r.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.Append("baker"); err != nil {
		t.Fatalf("append: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(raw) != "Adams\nbaker\nMiller\n" {
		t.Fatalf("unexpected file content: %q", raw)
	}
	if !r.Contains("baker") {
		t.Fatalf("appended value not visible in memory")
	}
	if !r.Contains("BAKER") {
		t.Fatalf("contains must match case-insensitively")
	}
}

func TestAppendRejectsCaseInsensitiveDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drivers.txt")
	writeFile(t, path, "Dana\n")
	r := New("drivers", path, nil)
	if err := r.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	err := r.Append("  dana ")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists got %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("duplicate append must not grow the registry")
	}
}

func TestAppendRejectsEmpty(t *testing.T) {
	r := New("drivers", filepath.Join(t.TempDir(), "drivers.txt"), nil)
	if err := r.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.Append("   "); err == nil {
		t.Fatalf("expected error for blank value")
	}
}

func TestLoadSkipsUnchangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "type_list.txt")
	writeFile(t, path, "12 - Crew Cab\n")
	r := New("types", path, nil)
	if err := r.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	writeFile(t, path, "12 - Crew Cab\n14 - Flatbed\n")
	if err := r.Load(); err != nil {
		t.Fatalf("reload after change: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("changed file not picked up: %v", r.Values())
	}
}

func TestSetEnsureFilesAndByName(t *testing.T) {
	dir := t.TempDir()
	s := NewSet(
		filepath.Join(dir, "type_list.txt"),
		filepath.Join(dir, "assigned_to_list.txt"),
		filepath.Join(dir, "authorized_drivers_list.txt"),
		nil,
	)
	created, err := s.EnsureFiles()
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !created {
		t.Fatalf("expected files to be created")
	}
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, name := range []string{KindTypes, KindAssignees, KindDrivers} {
		if _, ok := s.ByName(name); !ok {
			t.Fatalf("registry %s not found", name)
		}
	}
	if _, ok := s.ByName("other"); ok {
		t.Fatalf("unknown registry name must not resolve")
	}
	created, err = s.EnsureFiles()
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if created {
		t.Fatalf("ensure must be idempotent")
	}
}
