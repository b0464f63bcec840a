package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forestryvehicleadmin/motorpool/core/model"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and edit the lookup registries",
}

var registryLsCmd = &cobra.Command{
	Use:   "ls [kind]",
	Short: "List registry values",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRegistryLs,
}

var registryAddCmd = &cobra.Command{
	Use:   "add <kind> <value>",
	Short: "Add a value to a registry",
	Args:  cobra.ExactArgs(2),
	RunE:  runRegistryAdd,
}

var registryLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check vehicle type codes for numeric prefixes",
	RunE:  runRegistryLint,
}

func init() {
	registryCmd.AddCommand(registryLsCmd, registryAddCmd, registryLintCmd)
	rootCmd.AddCommand(registryCmd)
}

func runRegistryLs(cmd *cobra.Command, args []string) error {
	mgr, _, err := openBoard()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		reg, ok := mgr.Registries().ByName(args[0])
		if !ok {
			return fmt.Errorf("unknown registry %q (types, assignees, drivers)", args[0])
		}
		for _, v := range reg.Values() {
			fmt.Fprintln(out, v)
		}
		return nil
	}
	for _, reg := range mgr.Registries().All() {
		fmt.Fprintf(out, "%s (%s):\n", reg.Name(), reg.Filename())
		for _, v := range reg.Values() {
			fmt.Fprintf(out, "  %s\n", v)
		}
	}
	return nil
}

func runRegistryAdd(cmd *cobra.Command, args []string) error {
	mgr, _, err := openBoard()
	if err != nil {
		return err
	}
	if _, err := mgr.AddRegistryValue(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %q to %s\n", args[1], args[0])
	return nil
}

func runRegistryLint(cmd *cobra.Command, args []string) error {
	mgr, _, err := openBoard()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	values := mgr.Registries().Types.Values()
	bad := 0
	for _, v := range values {
		if _, err := model.ParseVehicleNumber(v); err != nil {
			fmt.Fprintf(out, "%s: %v\n", v, err)
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d type codes are malformed", bad, len(values))
	}
	fmt.Fprintf(out, "all %d type codes parse cleanly\n", len(values))
	return nil
}
