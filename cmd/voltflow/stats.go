package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mhagberg/voltflow/internal/cli"
	"github.com/mhagberg/voltflow/internal/stats"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <files...>",
		Short: "Show driving statistics for a journey log",
		Long: `Aggregate a journey log into monthly and dataset-wide statistics.

The input must be clean: flagged rows abort the command unless --skip-bad
drops them. Run 'voltflow import' first to correct a messy export.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runStats,
	}

	cmd.Flags().String("format", "", "Force input format (csv, json, xlsx) instead of detecting by extension")
	cmd.Flags().Bool("skip-bad", false, "Drop flagged rows instead of failing")

	_ = viper.BindPFlag("stats.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("stats.skip_bad", cmd.Flags().Lookup("skip-bad"))

	return cmd
}

func runStats(_ *cobra.Command, args []string) error {
	records, err := loadCleanDataset(args, viper.GetString("stats.format"), viper.GetBool("stats.skip_bad"))
	if err != nil {
		return err
	}

	summary := stats.Compute(records)
	if summary.Trips == 0 {
		slog.Info(cli.FormatWarning("No trips in dataset"))
		return nil
	}

	fmt.Println(cli.RenderBox("Driving Statistics", formatSummary(summary, ratesFromConfig())))
	fmt.Println(cli.RenderBox("Monthly Breakdown", formatMonths(summary)))

	return nil
}

func formatMonths(summary stats.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %6s %12s %12s %10s\n", "Month", "Trips", "Distance", "Energy", "kWh/100km")
	for _, month := range summary.Months {
		fmt.Fprintf(&b, "%-8s %6d %9.1f km %8.1f kWh %10.1f\n",
			month.Month, month.Trips, month.DistanceKm, month.EnergyKWh, month.Efficiency())
	}
	return b.String()
}
