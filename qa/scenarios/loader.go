// Package scenarios runs declarative board exercises described in yaml
// files, one file per scenario. The suite picks up every *.yaml next to it,
// so adding a regression case means adding a file, not writing Go.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/forestryvehicleadmin/motorpool/core/model"
)

// RegistrySeed lists the values each registry starts with.
type RegistrySeed struct {
	Types     []string `yaml:"types"`
	Assignees []string `yaml:"assignees"`
	Drivers   []string `yaml:"drivers"`
}

// StepDef is one board operation. Op selects which fields apply: create and
// update use the entry fields, bulk adds from/to/weekdays, delete uses id,
// purge uses before, add_value uses registry and value.
type StepDef struct {
	Op string `yaml:"op"`

	VehicleType       string   `yaml:"vehicle_type,omitempty"`
	AssignedTo        string   `yaml:"assigned_to,omitempty"`
	Status            string   `yaml:"status,omitempty"`
	Checkout          string   `yaml:"checkout,omitempty"`
	Return            string   `yaml:"return,omitempty"`
	AuthorizedDrivers []string `yaml:"authorized_drivers,omitempty"`
	Notes             string   `yaml:"notes,omitempty"`

	From     string   `yaml:"from,omitempty"`
	To       string   `yaml:"to,omitempty"`
	Weekdays []string `yaml:"weekdays,omitempty"`

	ID     int    `yaml:"id,omitempty"`
	Before string `yaml:"before,omitempty"`

	Registry string `yaml:"registry,omitempty"`
	Value    string `yaml:"value,omitempty"`

	WantError bool `yaml:"want_error,omitempty"`
}

// Expected is the end state the scenario must reach.
type Expected struct {
	Records   int `yaml:"records"`
	Published int `yaml:"published"`
}

// Scenario is one yaml file.
type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Registries  RegistrySeed `yaml:"registries"`
	Steps       []StepDef    `yaml:"steps"`
	Expected    Expected     `yaml:"expected"`
}

// Load reads and parses the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func parseStatus(s string) model.Status {
	switch s {
	case "Reserved":
		return model.StatusReserved
	case "Confirmed":
		return model.StatusConfirmed
	default:
		return model.StatusConfirmed
	}
}
