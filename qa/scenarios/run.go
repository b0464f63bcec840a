package scenarios

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forestryvehicleadmin/motorpool/core/publish"
	"github.com/forestryvehicleadmin/motorpool/core/registry"
	"github.com/forestryvehicleadmin/motorpool/core/schedule"
	"github.com/forestryvehicleadmin/motorpool/infra/logger"
)

// CountingPublisher records how many times the board pushed.
type CountingPublisher struct {
	Calls int
}

func (p *CountingPublisher) Publish(context.Context, string) publish.Outcome {
	p.Calls++
	return publish.Outcome{OpID: "scenario", State: publish.StatePublished}
}

// RunScenario executes every step of sc against a fresh board in a temp
// directory and checks the expected end state.
func RunScenario(t *testing.T, sc *Scenario) {
	dir := t.TempDir()
	seed := map[string][]string{
		"type_list.txt":               sc.Registries.Types,
		"assigned_to_list.txt":        sc.Registries.Assignees,
		"authorized_drivers_list.txt": sc.Registries.Drivers,
	}
	for name, values := range seed {
		body := ""
		if len(values) > 0 {
			body = strings.Join(values, "\n") + "\n"
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	pub := &CountingPublisher{}
	regs := registry.NewSet(
		filepath.Join(dir, "type_list.txt"),
		filepath.Join(dir, "assigned_to_list.txt"),
		filepath.Join(dir, "authorized_drivers_list.txt"),
		logger.NopLogger{},
	)
	mgr, err := schedule.NewManager(schedule.NewStore(), regs, filepath.Join(dir, "Vehicle_Checkout_List.csv"), pub, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if err := mgr.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	ctx := context.Background()
	for i, step := range sc.Steps {
		err := runStep(ctx, t, mgr, i, step)
		if step.WantError && err == nil {
			t.Errorf("step %d (%s): expected an error", i, step.Op)
		}
		if !step.WantError && err != nil {
			t.Errorf("step %d (%s): %v", i, step.Op, err)
		}
	}

	if got := mgr.Records(); got != sc.Expected.Records {
		t.Errorf("scenario %s expected %d records, got %d", sc.Name, sc.Expected.Records, got)
	}
	if pub.Calls != sc.Expected.Published {
		t.Errorf("scenario %s expected %d publishes, got %d", sc.Name, sc.Expected.Published, pub.Calls)
	}
}

func runStep(ctx context.Context, t *testing.T, mgr *schedule.Manager, i int, step StepDef) error {
	switch step.Op {
	case "create":
		_, _, err := mgr.Create(ctx, stepFields(t, i, step))
		return err
	case "bulk":
		days, err := schedule.ParseWeekdays(step.Weekdays)
		if err != nil {
			return err
		}
		spans := schedule.WeekdaySpans(stepDay(t, i, step.From), stepDay(t, i, step.To), days)
		_, _, err = mgr.CreateBulk(ctx, stepFields(t, i, step), spans)
		return err
	case "update":
		_, _, err := mgr.Update(ctx, step.ID, stepFields(t, i, step))
		return err
	case "delete":
		_, _, err := mgr.Delete(ctx, step.ID)
		return err
	case "purge":
		_, _, err := mgr.DeleteBefore(ctx, stepDay(t, i, step.Before))
		return err
	case "add_value":
		_, err := mgr.AddRegistryValue(ctx, step.Registry, step.Value)
		return err
	default:
		t.Fatalf("step %d: unknown op %q", i, step.Op)
		return nil
	}
}

func stepFields(t *testing.T, i int, step StepDef) schedule.Fields {
	f := schedule.Fields{
		VehicleType:       step.VehicleType,
		AssignedTo:        step.AssignedTo,
		Status:            parseStatus(step.Status),
		AuthorizedDrivers: step.AuthorizedDrivers,
		Notes:             step.Notes,
	}
	if step.Checkout != "" {
		f.CheckoutDate = stepDay(t, i, step.Checkout)
	}
	if step.Return != "" {
		f.ReturnDate = stepDay(t, i, step.Return)
	}
	return f
}

func stepDay(t *testing.T, i int, s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("step %d: bad date %q: %v", i, s, err)
	}
	return d
}
