package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mhagberg/voltflow/internal/calc"
	"github.com/mhagberg/voltflow/internal/cli"
	"github.com/mhagberg/voltflow/internal/common"
	"github.com/mhagberg/voltflow/internal/stats"
)

func calcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc [files...]",
		Short: "Estimate charging cost and range",
		Long: `Estimate charging cost and driving range.

With journey log files the consumption baseline comes from your own driving
and a per-month cost breakdown is printed. Without files, pass --efficiency
to set the baseline yourself.`,
		RunE: runCalc,
	}

	cmd.Flags().Float64("distance", 0, "Estimate the cost of a single trip of this length in km")
	cmd.Flags().Float64("efficiency", 0, "Consumption baseline in kWh/100km (overrides the dataset mean)")
	cmd.Flags().Float64("price", 0, "Electricity price per kWh (overrides config)")
	cmd.Flags().Float64("battery", 0, "Usable battery capacity in kWh (overrides config)")
	cmd.Flags().String("format", "", "Force input format (csv, json, xlsx) instead of detecting by extension")
	cmd.Flags().Bool("skip-bad", false, "Drop flagged rows instead of failing")

	_ = viper.BindPFlag("calc.distance", cmd.Flags().Lookup("distance"))
	_ = viper.BindPFlag("calc.efficiency", cmd.Flags().Lookup("efficiency"))
	_ = viper.BindPFlag("calc.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("calc.skip_bad", cmd.Flags().Lookup("skip-bad"))

	return cmd
}

func runCalc(cmd *cobra.Command, args []string) error {
	rates := ratesFromConfig()
	if price, _ := cmd.Flags().GetFloat64("price"); price > 0 {
		rates.PricePerKWh = price
	}
	if battery, _ := cmd.Flags().GetFloat64("battery"); battery > 0 {
		rates.BatteryKWh = battery
	}

	efficiency := viper.GetFloat64("calc.efficiency")

	if len(args) > 0 {
		records, err := loadCleanDataset(args, viper.GetString("calc.format"), viper.GetBool("calc.skip_bad"))
		if err != nil {
			return err
		}

		summary := stats.Compute(records)
		if efficiency <= 0 {
			efficiency = summary.MeanEfficiency()
		}

		report := calc.Cost(summary, rates)
		fmt.Println(cli.RenderBox("Charging Cost", formatCostReport(report)))
	}

	if efficiency <= 0 {
		return fmt.Errorf("no consumption baseline: pass journey log files or --efficiency: %w", common.ErrMissingConfig)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Consumption:     %.1f kWh/100km\n", efficiency)
	fmt.Fprintf(&b, "Price:           %.2f %s/kWh\n", rates.PricePerKWh, rates.Currency)
	fmt.Fprintf(&b, "Estimated range: %.0f km (%.0f kWh battery)\n",
		calc.EstimateRange(rates.BatteryKWh, efficiency), rates.BatteryKWh)

	if distance := viper.GetFloat64("calc.distance"); distance > 0 {
		fmt.Fprintf(&b, "\nTrip of %.0f km:\n", distance)
		fmt.Fprintf(&b, "  Energy: %.1f kWh\n", calc.TripEnergy(distance, efficiency))
		fmt.Fprintf(&b, "  Cost:   %.2f %s\n", calc.TripCost(distance, efficiency, rates.PricePerKWh), rates.Currency)
	}

	fmt.Println(cli.RenderBox("Estimates", b.String()))
	return nil
}

func formatCostReport(report calc.CostReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total cost:  %.2f %s\n", report.TotalCost, report.Currency)
	fmt.Fprintf(&b, "Per 100 km:  %.2f %s\n\n", report.CostPer100Km, report.Currency)
	for _, month := range report.ByMonth {
		fmt.Fprintf(&b, "%-8s %10.2f %s\n", month.Month, month.Cost, report.Currency)
	}
	return b.String()
}
