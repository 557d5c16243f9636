package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mhagberg/voltflow/internal/cli"
	"github.com/mhagberg/voltflow/internal/common"
	"github.com/mhagberg/voltflow/internal/config"
	"github.com/mhagberg/voltflow/internal/geo"
	"github.com/mhagberg/voltflow/internal/service"
	"github.com/mhagberg/voltflow/internal/stats"
	"github.com/mhagberg/voltflow/internal/storage"
)

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <origin> <destination>",
		Short: "Plan a trip with energy and cost estimates",
		Long: `Geocode two addresses, compute the driving route between them, and
estimate the energy, charging cost, and charge stops the trip will take.

Uses the public Nominatim and OSRM instances; lookups are cached locally to
stay within their usage policies.`,
		Args: cobra.ExactArgs(2),
		RunE: runPlan,
	}

	cmd.Flags().Float64("efficiency", 0, "Consumption baseline in kWh/100km (defaults to the mean of --stats-from files)")
	cmd.Flags().StringSlice("stats-from", nil, "Journey log files to derive the consumption baseline from")
	cmd.Flags().Bool("no-cache", false, "Bypass the local geocoding cache")

	_ = viper.BindPFlag("plan.efficiency", cmd.Flags().Lookup("efficiency"))
	_ = viper.BindPFlag("plan.stats_from", cmd.Flags().Lookup("stats-from"))
	_ = viper.BindPFlag("plan.no_cache", cmd.Flags().Lookup("no-cache"))

	return cmd
}

// defaultEfficiencyKWh100 is used when no dataset or flag provides a baseline.
const defaultEfficiencyKWh100 = 18.0

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	origin, destination := args[0], args[1]

	if !viper.GetBool("geo.enabled") {
		return fmt.Errorf("trip planning needs geo.enabled in the config: %w", common.ErrGeoDisabled)
	}

	efficiency := viper.GetFloat64("plan.efficiency")
	if files := viper.GetStringSlice("plan.stats_from"); efficiency <= 0 && len(files) > 0 {
		records, err := loadCleanDataset(files, "", true)
		if err != nil {
			return err
		}
		efficiency = stats.Compute(records).MeanEfficiency()
	}
	if efficiency <= 0 {
		efficiency = defaultEfficiencyKWh100
		slog.Debug("Using default consumption baseline", "kwh_per_100km", efficiency)
	}

	var cache service.GeoCache
	if !viper.GetBool("plan.no_cache") {
		sqliteCache, err := storage.NewSQLiteCache(config.ExpandPath(viper.GetString("cache.path")))
		if err != nil {
			slog.Warn("Failed to open geo cache, continuing without", "error", err)
		} else {
			defer func() { _ = sqliteCache.Close() }()
			if err := sqliteCache.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate geo cache: %w", err)
			}
			cache = sqliteCache
		}
	}

	client := geo.NewClient(geoConfigFromViper(), cache)
	planner := geo.NewPlanner(client, client)

	slog.Info(cli.MapIcon+"  Planning trip", "from", origin, "to", destination)
	plan, err := planner.PlanTrip(ctx, origin, destination, efficiency, ratesFromConfig())
	if err != nil {
		return fmt.Errorf("failed to plan trip: %w", err)
	}

	fmt.Println(cli.RenderBox("Trip Plan", formatPlan(plan, efficiency)))
	return nil
}

func formatPlan(plan geo.Plan, efficiency float64) string {
	rates := ratesFromConfig()

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", plan.From.DisplayName)
	fmt.Fprintf(&b, "To:   %s\n\n", plan.To.DisplayName)
	fmt.Fprintf(&b, "Distance:     %.1f km\n", plan.Route.DistanceKm)
	fmt.Fprintf(&b, "Driving time: %s\n", plan.Route.Duration.Round(time.Minute))
	fmt.Fprintf(&b, "Energy:       %.1f kWh (at %.1f kWh/100km)\n", plan.EnergyKWh, efficiency)
	fmt.Fprintf(&b, "Cost:         %.2f %s\n", plan.Cost, rates.Currency)
	if plan.ChargeStops > 0 {
		fmt.Fprintf(&b, "Charge stops: %d\n", plan.ChargeStops)
	} else {
		fmt.Fprintf(&b, "Charge stops: none on a full battery\n")
	}
	return b.String()
}
