package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/viper"

	"github.com/mhagberg/voltflow/internal/calc"
	"github.com/mhagberg/voltflow/internal/common"
	"github.com/mhagberg/voltflow/internal/geo"
	"github.com/mhagberg/voltflow/internal/importer"
	"github.com/mhagberg/voltflow/internal/model"
	"github.com/mhagberg/voltflow/internal/stats"
	"github.com/mhagberg/voltflow/internal/validate"
)

func detectorOptions() validate.Options {
	return validate.Options{
		OdometerToleranceKm: viper.GetFloat64("validation.odometer_tolerance_km"),
		EfficiencyMinKWh100: viper.GetFloat64("validation.efficiency_min"),
		EfficiencyMaxKWh100: viper.GetFloat64("validation.efficiency_max"),
	}
}

func ratesFromConfig() calc.Rates {
	return calc.Rates{
		Currency:    viper.GetString("calc.currency"),
		PricePerKWh: viper.GetFloat64("calc.price_per_kwh"),
		BatteryKWh:  viper.GetFloat64("calc.battery_kwh"),
	}
}

func geoConfigFromViper() geo.Config {
	cfg := geo.DefaultConfig()
	if url := viper.GetString("geo.nominatim_url"); url != "" {
		cfg.NominatimURL = url
	}
	if url := viper.GetString("geo.osrm_url"); url != "" {
		cfg.OSRMURL = url
	}
	if ua := viper.GetString("geo.user_agent"); ua != "" {
		cfg.UserAgent = ua
	}
	if timeout := viper.GetDuration("geo.timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	return cfg
}

// expandPaths glob-expands each argument and returns the matched files.
// An argument without glob metacharacters is passed through untouched so a
// typo surfaces as a parse error rather than silently matching nothing.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[") {
			paths = append(paths, arg)
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			slog.Warn("Pattern matched no files", "pattern", arg)
			continue
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files: %w", common.ErrNoData)
	}

	return paths, nil
}

// parseFiles parses every input file into one combined dataset, in argument
// order so row indexes stay stable across runs.
func parseFiles(paths []string, format string) ([]model.TripRecord, error) {
	imp := importer.New()

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Parsing journey logs...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	var records []model.TripRecord
	for _, path := range paths {
		parsed, err := parseFile(imp, path, format)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		records = append(records, parsed...)
		_ = bar.Add(1)
	}

	return records, nil
}

func parseFile(imp *importer.Importer, path, format string) ([]model.TripRecord, error) {
	if format == "" {
		return imp.Import(path)
	}

	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	switch format {
	case "csv":
		return imp.ImportCSV(f)
	case "json":
		return imp.ImportJSON(f)
	case "xlsx":
		return imp.ImportXLSX(f)
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, format)
	}
}

// loadCleanDataset parses the given files and runs anomaly detection. Flagged
// rows are dropped when skipBad is set; otherwise any anomaly is an error
// directing the user to the correction workflow.
func loadCleanDataset(args []string, format string, skipBad bool) ([]model.TripRecord, error) {
	paths, err := expandPaths(args)
	if err != nil {
		return nil, err
	}

	records, err := parseFiles(paths, format)
	if err != nil {
		return nil, err
	}

	detector := validate.NewDetector(detectorOptions())
	anomalies := detector.Validate(records)
	if len(anomalies) == 0 {
		return records, nil
	}

	if !skipBad {
		return nil, common.NewUserError(
			fmt.Sprintf("%d rows are flagged; run 'voltflow import' to correct them or pass --skip-bad", flaggedRowCount(anomalies)),
			nil)
	}

	flagged := make(map[int]bool, len(anomalies))
	for _, anomaly := range anomalies {
		flagged[anomaly.TripIndex] = true
	}

	clean := make([]model.TripRecord, 0, len(records)-len(flagged))
	for i, rec := range records {
		if !flagged[i] {
			clean = append(clean, rec)
		}
	}

	slog.Warn("Dropped flagged rows", "dropped", len(flagged), "kept", len(clean))
	return clean, nil
}

func flaggedRowCount(anomalies []model.Anomaly) int {
	rows := make(map[int]bool, len(anomalies))
	for _, anomaly := range anomalies {
		rows[anomaly.TripIndex] = true
	}
	return len(rows)
}

func formatSummary(summary stats.Summary, rates calc.Rates) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trips:            %d\n", summary.Trips)
	fmt.Fprintf(&b, "Total distance:   %.1f km\n", summary.TotalDistanceKm)
	fmt.Fprintf(&b, "Total energy:     %.1f kWh\n", summary.TotalEnergyKWh)
	fmt.Fprintf(&b, "Mean consumption: %.1f kWh/100km\n", summary.MeanEfficiency())
	fmt.Fprintf(&b, "Driving time:     %s\n", summary.DrivingTime.Round(time.Minute))
	if summary.LongestTrip.DistanceKm > 0 {
		fmt.Fprintf(&b, "Longest trip:     %.1f km\n", summary.LongestTrip.DistanceKm)
	}
	if summary.BusiestMonth != "" {
		fmt.Fprintf(&b, "Busiest month:    %s\n", summary.BusiestMonth)
	}
	if estimated := calc.EstimateRange(rates.BatteryKWh, summary.MeanEfficiency()); estimated > 0 {
		fmt.Fprintf(&b, "Estimated range:  %.0f km\n", estimated)
	}
	return b.String()
}
