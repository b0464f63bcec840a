package config

import "path/filepath"

// StorageConfig locates the data directory and the files inside it. The
// directory doubles as the git working tree when a remote is configured, so
// the file names here are the repo-relative paths the publish engine tracks.
type StorageConfig struct {
	// Dir is the data directory, created if missing.
	Dir string `json:"dir"`
	// ScheduleFile is the reservation table, CSV.
	ScheduleFile string `json:"schedule_file"`
	// TypesFile, AssigneesFile and DriversFile back the three registries.
	TypesFile     string `json:"types_file"`
	AssigneesFile string `json:"assignees_file"`
	DriversFile   string `json:"drivers_file"`
}

// SetDefaults applies the conventional repository layout.
func (c *StorageConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "data"
	}
	if c.ScheduleFile == "" {
		c.ScheduleFile = "Vehicle_Checkout_List.csv"
	}
	if c.TypesFile == "" {
		c.TypesFile = "type_list.txt"
	}
	if c.AssigneesFile == "" {
		c.AssigneesFile = "assigned_to_list.txt"
	}
	if c.DriversFile == "" {
		c.DriversFile = "authorized_drivers_list.txt"
	}
}

// SchedulePath returns the absolute (or cwd-relative) table file location.
func (c StorageConfig) SchedulePath() string { return filepath.Join(c.Dir, c.ScheduleFile) }

// TypesPath returns the vehicle type registry location.
func (c StorageConfig) TypesPath() string { return filepath.Join(c.Dir, c.TypesFile) }

// AssigneesPath returns the assignee registry location.
func (c StorageConfig) AssigneesPath() string { return filepath.Join(c.Dir, c.AssigneesFile) }

// DriversPath returns the driver registry location.
func (c StorageConfig) DriversPath() string { return filepath.Join(c.Dir, c.DriversFile) }

// DataFiles lists the repo-relative names the publish engine owns.
func (c StorageConfig) DataFiles() []string {
	return []string{c.ScheduleFile, c.TypesFile, c.AssigneesFile, c.DriversFile}
}
