package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/forestryvehicleadmin/motorpool/core/model"
	"github.com/forestryvehicleadmin/motorpool/pkg/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the board to csv, json or pdf",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format: csv, json or pdf")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (stdout when empty)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	mgr, _, err := openBoard()
	if err != nil {
		return err
	}
	entries := mgr.Snapshot()
	if exportOut == "" {
		return writeExport(cmd.OutOrStdout(), entries)
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return err
	}
	if err := writeExport(f, entries); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeExport(w io.Writer, entries []model.Reservation) error {
	switch exportFormat {
	case "csv":
		return export.WriteCSV(w, entries)
	case "json":
		return export.WriteJSON(w, entries)
	case "pdf":
		return export.WritePDF(w, entries)
	default:
		return fmt.Errorf("unknown format %q", exportFormat)
	}
}
