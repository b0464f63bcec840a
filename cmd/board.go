package cmd

import (
	"fmt"

	"github.com/forestryvehicleadmin/motorpool/config"
	"github.com/forestryvehicleadmin/motorpool/core/registry"
	"github.com/forestryvehicleadmin/motorpool/core/schedule"
	"github.com/forestryvehicleadmin/motorpool/infra/logger"
)

// openBoard loads the configuration and the local working copy without
// touching any git remote. Subcommands that inspect or edit the data
// directory go through here; only the serving root command publishes.
func openBoard() (*schedule.Manager, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	regs := registry.NewSet(cfg.Storage.TypesPath(), cfg.Storage.AssigneesPath(), cfg.Storage.DriversPath(), logger.New("registry"))
	mgr, err := schedule.NewManager(schedule.NewStore(), regs, cfg.Storage.SchedulePath(), nil, nil, logger.New("schedule"))
	if err != nil {
		return nil, nil, err
	}
	if err := mgr.Load(); err != nil {
		return nil, nil, err
	}
	return mgr, cfg, nil
}
