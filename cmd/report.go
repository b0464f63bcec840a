package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forestryvehicleadmin/motorpool/core/report"
)

var (
	reportFrom string
	reportTo   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a utilization summary for a date window",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "window start (2006-01-02), 30 days before the end when empty")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "window end (2006-01-02), today when empty")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	mgr, _, err := openBoard()
	if err != nil {
		return err
	}

	to := time.Now()
	if reportTo != "" {
		to, err = time.Parse("2006-01-02", reportTo)
		if err != nil {
			return fmt.Errorf("parse --to: %w", err)
		}
	}
	from := to.AddDate(0, 0, -30)
	if reportFrom != "" {
		from, err = time.Parse("2006-01-02", reportFrom)
		if err != nil {
			return fmt.Errorf("parse --from: %w", err)
		}
	}

	s := report.Build(mgr.Snapshot(), from, to)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s to %s: %d entries over %d days\n",
		s.From.Format("2006-01-02"), s.To.Format("2006-01-02"), s.Records, s.Days)
	for _, u := range s.ByType {
		fmt.Fprintf(out, "  %-32s %3d entries  %4d booked days  %5.1f%%\n",
			u.VehicleType, u.Records, u.BookedDays, u.Utilization*100)
	}
	fmt.Fprintf(out, "mean utilization %.1f%%, stddev %.1f\n", s.MeanUtilization*100, s.StdDevUtil*100)
	if s.PeakConcurrency > 0 {
		fmt.Fprintf(out, "peak: %d vehicles out on %s\n", s.PeakConcurrency, s.PeakDay.Format("2006-01-02"))
	}
	return nil
}
