package schedule

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/events"
	"github.com/forestryvehicleadmin/motorpool/core/model"
	"github.com/forestryvehicleadmin/motorpool/core/publish"
	"github.com/forestryvehicleadmin/motorpool/core/registry"
	"github.com/forestryvehicleadmin/motorpool/infra/logger"
	"github.com/forestryvehicleadmin/motorpool/internal/eventbus"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []string
	outcome  publish.Outcome
}

func (f *fakePublisher) Publish(_ context.Context, msg string) publish.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	out := f.outcome
	out.Message = msg
	if out.OpID == "" {
		out.OpID = fmt.Sprintf("op-%d", len(f.messages))
	}
	return out
}

func (f *fakePublisher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type managerEnv struct {
	mgr  *Manager
	pub  *fakePublisher
	bus  *eventbus.Bus[any]
	path string
}

func newManagerEnv(t *testing.T) *managerEnv {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}
	types := write("type_list.txt", "12 - Crew Cab\n14 - Flatbed\n")
	assignees := write("assigned_to_list.txt", "Alice\nBob\n")
	drivers := write("driver_list.txt", "Dan\nEve\n")
	regs := registry.NewSet(types, assignees, drivers, nil)
	if err := regs.Load(); err != nil {
		t.Fatalf("load registries: %v", err)
	}
	pub := &fakePublisher{outcome: publish.Outcome{State: publish.StatePublished}}
	bus := eventbus.New[any]()
	t.Cleanup(bus.Close)
	mgr, err := NewManager(NewStore(), regs, filepath.Join(dir, "vehicle_schedule.csv"), pub, bus, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	mgr.SetClock(func() time.Time {
		return time.Date(2024, 6, 3, 10, 30, 0, 0, time.UTC)
	})
	return &managerEnv{mgr: mgr, pub: pub, bus: bus, path: mgr.path}
}

func confirmedFields(from, to time.Time) Fields {
	return Fields{
		VehicleType:  "12 - Crew Cab",
		AssignedTo:   "Alice",
		Status:       model.StatusConfirmed,
		CheckoutDate: from,
		ReturnDate:   to,
	}
}

func TestManagerCreatePersistsAndPublishes(t *testing.T) {
	env := newManagerEnv(t)
	ch := env.bus.Subscribe()

	rec, out, err := env.mgr.Create(context.Background(),
		confirmedFields(time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC), time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID != 0 || rec.VehicleNumber != 12 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if out.State != publish.StatePublished {
		t.Fatalf("expected published outcome, got %v", out.State)
	}

	msgs := env.pub.calls()
	if len(msgs) != 1 || msgs[0] != "Added new entry via board app at 2024-06-03 10:30:00" {
		t.Fatalf("unexpected commit messages: %v", msgs)
	}

	recs, err := ReadTableFile(env.path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(recs) != 1 || recs[0].AssignedTo != "Alice" {
		t.Fatalf("table file not persisted: %+v", recs)
	}

	var sawMutation, sawSync bool
	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			switch e := ev.(type) {
			case events.MutationEvent:
				sawMutation = true
				if e.Op != events.OpCreate || e.Records != 1 {
					t.Fatalf("unexpected mutation event: %+v", e)
				}
			case events.SyncEvent:
				sawSync = true
				if e.State != "published" {
					t.Fatalf("unexpected sync event: %+v", e)
				}
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for events")
		}
	}
	if !sawMutation || !sawSync {
		t.Fatalf("expected mutation and sync events, got mutation=%v sync=%v", sawMutation, sawSync)
	}
}

func TestManagerCreateRejectsUnknownAssignee(t *testing.T) {
	env := newManagerEnv(t)
	f := confirmedFields(time.Now(), time.Now())
	f.AssignedTo = "Mallory"
	_, _, err := env.mgr.Create(context.Background(), f)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(env.pub.calls()) != 0 {
		t.Fatalf("publisher called on refused mutation")
	}
	if _, err := os.Stat(env.path); !os.IsNotExist(err) {
		t.Fatalf("table file written on refused mutation")
	}
	if env.mgr.Records() != 0 {
		t.Fatalf("store changed on refused mutation")
	}
}

func TestManagerCreateBulkSingleCommit(t *testing.T) {
	env := newManagerEnv(t)
	spans := []DateSpan{
		{From: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)},
		{From: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)},
	}
	recs, out, err := env.mgr.CreateBulk(context.Background(), confirmedFields(time.Time{}, time.Time{}), spans)
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != 0 || recs[1].ID != 1 {
		t.Fatalf("unexpected records: %+v", recs)
	}
	if out.State != publish.StatePublished {
		t.Fatalf("expected published outcome, got %v", out.State)
	}
	msgs := env.pub.calls()
	if len(msgs) != 1 || msgs[0] != "Added 2 new entries via board app at 2024-06-03 10:30:00" {
		t.Fatalf("unexpected commit messages: %v", msgs)
	}
}

func TestManagerCreateBulkEmptySpansIsNoop(t *testing.T) {
	env := newManagerEnv(t)
	recs, out, err := env.mgr.CreateBulk(context.Background(), confirmedFields(time.Now(), time.Now()), nil)
	if err != nil || recs != nil {
		t.Fatalf("expected no-op, got recs=%v err=%v", recs, err)
	}
	if out.State != publish.StateNoChange {
		t.Fatalf("expected no-change outcome, got %v", out.State)
	}
	if len(env.pub.calls()) != 0 {
		t.Fatalf("publisher called for empty span list")
	}
}

func TestManagerUpdateKeepsID(t *testing.T) {
	env := newManagerEnv(t)
	ctx := context.Background()
	if _, _, err := env.mgr.Create(ctx, confirmedFields(day(2024, 6, 3), day(2024, 6, 4))); err != nil {
		t.Fatalf("create: %v", err)
	}
	f := confirmedFields(day(2024, 6, 3), day(2024, 6, 6))
	f.AssignedTo = "Bob"
	rec, _, err := env.mgr.Update(ctx, 0, f)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.ID != 0 || rec.AssignedTo != "Bob" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	msgs := env.pub.calls()
	want := fmt.Sprintf("Updated entry: %s", rec.Summary())
	if msgs[len(msgs)-1] != want {
		t.Fatalf("expected %q, got %q", want, msgs[len(msgs)-1])
	}
}

func TestManagerUpdateUnknownID(t *testing.T) {
	env := newManagerEnv(t)
	_, _, err := env.mgr.Update(context.Background(), 7, confirmedFields(day(2024, 6, 3), day(2024, 6, 4)))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestManagerDeleteRenumbersAndDescribes(t *testing.T) {
	env := newManagerEnv(t)
	ctx := context.Background()
	if _, _, err := env.mgr.Create(ctx, confirmedFields(day(2024, 6, 3), day(2024, 6, 4))); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := confirmedFields(day(2024, 6, 10), day(2024, 6, 11))
	second.AssignedTo = "Bob"
	if _, _, err := env.mgr.Create(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}

	removed, _, err := env.mgr.Delete(ctx, 0)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.AssignedTo != "Alice" {
		t.Fatalf("removed wrong record: %+v", removed)
	}
	msgs := env.pub.calls()
	want := fmt.Sprintf("Deleted single entry: %s", removed.Summary())
	if msgs[len(msgs)-1] != want {
		t.Fatalf("expected %q, got %q", want, msgs[len(msgs)-1])
	}

	rest := env.mgr.Snapshot()
	if len(rest) != 1 || rest[0].ID != 0 || rest[0].AssignedTo != "Bob" {
		t.Fatalf("ids not renumbered: %+v", rest)
	}
	recs, err := ReadTableFile(env.path)
	if err != nil || len(recs) != 1 {
		t.Fatalf("table file out of sync: recs=%v err=%v", recs, err)
	}
}

func TestManagerDeleteBefore(t *testing.T) {
	env := newManagerEnv(t)
	ctx := context.Background()
	for _, span := range []DateSpan{
		{From: day(2024, 5, 1), To: day(2024, 5, 3)},
		{From: day(2024, 5, 10), To: day(2024, 6, 5)},
		{From: day(2024, 7, 1), To: day(2024, 7, 2)},
	} {
		if _, _, err := env.mgr.Create(ctx, confirmedFields(span.From, span.To)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	n, out, err := env.mgr.DeleteBefore(ctx, day(2024, 6, 5))
	if err != nil {
		t.Fatalf("delete before: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if out.State != publish.StatePublished {
		t.Fatalf("expected published outcome, got %v", out.State)
	}
	msgs := env.pub.calls()
	if msgs[len(msgs)-1] != "Bulk deleted 2 entries before 2024-06-05" {
		t.Fatalf("unexpected commit message: %q", msgs[len(msgs)-1])
	}
	if env.mgr.Records() != 1 {
		t.Fatalf("expected 1 surviving record, got %d", env.mgr.Records())
	}
}

func TestManagerDeleteBeforeNothingMatching(t *testing.T) {
	env := newManagerEnv(t)
	ctx := context.Background()
	if _, _, err := env.mgr.Create(ctx, confirmedFields(day(2024, 7, 1), day(2024, 7, 2))); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := len(env.pub.calls())

	n, out, err := env.mgr.DeleteBefore(ctx, day(2024, 6, 1))
	if err != nil {
		t.Fatalf("delete before: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 removed, got %d", n)
	}
	if out.State != publish.StateNoChange {
		t.Fatalf("expected no-change outcome, got %v", out.State)
	}
	if len(env.pub.calls()) != before {
		t.Fatalf("publisher called for empty purge")
	}
}

func TestManagerAddRegistryValue(t *testing.T) {
	env := newManagerEnv(t)
	out, err := env.mgr.AddRegistryValue(context.Background(), registry.KindTypes, "  7 - Utility ")
	if err != nil {
		t.Fatalf("add registry value: %v", err)
	}
	if out.State != publish.StatePublished {
		t.Fatalf("expected published outcome, got %v", out.State)
	}
	msgs := env.pub.calls()
	if msgs[len(msgs)-1] != "Added '7 - Utility' to type_list.txt" {
		t.Fatalf("unexpected commit message: %q", msgs[len(msgs)-1])
	}
	if !env.mgr.Registries().TypeExists("7 - Utility") {
		t.Fatalf("value not visible after append")
	}
}

func TestManagerAddRegistryValueUnknownKind(t *testing.T) {
	env := newManagerEnv(t)
	_, err := env.mgr.AddRegistryValue(context.Background(), "colors", "Red")
	if err == nil || !strings.Contains(err.Error(), "colors") {
		t.Fatalf("expected unknown registry error, got %v", err)
	}
}

func TestManagerAddRegistryValueDuplicate(t *testing.T) {
	env := newManagerEnv(t)
	_, err := env.mgr.AddRegistryValue(context.Background(), registry.KindAssignees, "alice")
	if !errors.Is(err, registry.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if len(env.pub.calls()) != 0 {
		t.Fatalf("publisher called on refused append")
	}
}

func TestManagerEnsureInitialized(t *testing.T) {
	dir := t.TempDir()
	regs := registry.NewSet(
		filepath.Join(dir, "type_list.txt"),
		filepath.Join(dir, "assigned_to_list.txt"),
		filepath.Join(dir, "driver_list.txt"),
		nil,
	)
	pub := &fakePublisher{outcome: publish.Outcome{State: publish.StatePublished}}
	mgr, err := NewManager(NewStore(), regs, filepath.Join(dir, "vehicle_schedule.csv"), pub, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	out, err := mgr.EnsureInitialized(context.Background())
	if err != nil {
		t.Fatalf("ensure initialized: %v", err)
	}
	if out.State != publish.StatePublished {
		t.Fatalf("expected published outcome, got %v", out.State)
	}
	msgs := pub.calls()
	if len(msgs) != 1 || msgs[0] != "Initialize data files" {
		t.Fatalf("unexpected commit messages: %v", msgs)
	}
	for _, name := range []string{"type_list.txt", "assigned_to_list.txt", "driver_list.txt", "vehicle_schedule.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing data file %s: %v", name, err)
		}
	}

	out, err = mgr.EnsureInitialized(context.Background())
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if out.State != publish.StateNoChange {
		t.Fatalf("expected no-change on second call, got %v", out.State)
	}
	if len(pub.calls()) != 1 {
		t.Fatalf("publisher called again for existing files")
	}
}

func TestManagerLoadRoundTrip(t *testing.T) {
	env := newManagerEnv(t)
	ctx := context.Background()
	if _, _, err := env.mgr.Create(ctx, confirmedFields(day(2024, 6, 3), day(2024, 6, 5))); err != nil {
		t.Fatalf("create: %v", err)
	}

	fresh, err := NewManager(NewStore(), env.mgr.Registries(), env.path, env.pub, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if err := fresh.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if fresh.Records() != 1 {
		t.Fatalf("expected 1 record after load, got %d", fresh.Records())
	}
	rec, err := fresh.Get(0)
	if err != nil || rec.AssignedTo != "Alice" {
		t.Fatalf("unexpected record after load: %+v err=%v", rec, err)
	}
}

func TestManagerLocalOnlyOutcomeDoesNotFailMutation(t *testing.T) {
	env := newManagerEnv(t)
	env.pub.outcome = publish.Outcome{State: publish.StateLocalOnly, Err: publish.ErrUnreachable}

	rec, out, err := env.mgr.Create(context.Background(), confirmedFields(day(2024, 6, 3), day(2024, 6, 4)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.State != publish.StateLocalOnly || !errors.Is(out.Err, publish.ErrUnreachable) {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if rec.ID != 0 {
		t.Fatalf("record not applied: %+v", rec)
	}
	recs, err := ReadTableFile(env.path)
	if err != nil || len(recs) != 1 {
		t.Fatalf("local write missing: recs=%v err=%v", recs, err)
	}
}

func TestNewManagerValidatesArguments(t *testing.T) {
	regs := registry.NewSet("a", "b", "c", nil)
	if _, err := NewManager(nil, regs, "t.csv", nil, nil, logger.NopLogger{}); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewManager(NewStore(), nil, "t.csv", nil, nil, logger.NopLogger{}); err == nil {
		t.Fatal("expected error for nil registries")
	}
	if _, err := NewManager(NewStore(), regs, "", nil, nil, logger.NopLogger{}); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := NewManager(NewStore(), regs, "t.csv", nil, nil, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
	mgr, err := NewManager(NewStore(), regs, "t.csv", nil, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager with nil publisher: %v", err)
	}
	if _, ok := mgr.pub.(publish.NopPublisher); !ok {
		t.Fatalf("nil publisher not defaulted, got %T", mgr.pub)
	}
}
