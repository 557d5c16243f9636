package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mhagberg/voltflow/internal/cli"
	"github.com/mhagberg/voltflow/internal/correction"
	"github.com/mhagberg/voltflow/internal/model"
	"github.com/mhagberg/voltflow/internal/service"
	"github.com/mhagberg/voltflow/internal/session"
	"github.com/mhagberg/voltflow/internal/stats"
	"github.com/mhagberg/voltflow/internal/tui"
	"github.com/mhagberg/voltflow/internal/validate"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <files...>",
		Short: "Import journey logs and correct flagged rows",
		Long: `Import journey logs from CSV, XLSX, or JSON exports.

Every row is checked for missing fields, implausible consumption, reversed
timestamps, and odometer/distance disagreement. Flagged rows go through an
interactive review where each one can be kept, corrected, or skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("format", "", "Force input format (csv, json, xlsx) instead of detecting by extension")
	cmd.Flags().Bool("dry-run", false, "List anomalies without starting the review")
	cmd.Flags().Bool("no-tui", false, "Use line-based prompts instead of the full-screen review")

	_ = viper.BindPFlag("import.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("import.dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("import.no_tui", cmd.Flags().Lookup("no-tui"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle("Importing journey logs"))
	records, err := parseFiles(paths, viper.GetString("import.format"))
	if err != nil {
		return err
	}
	slog.Info(cli.FormatSuccess(fmt.Sprintf("Parsed %d trips from %d files", len(records), len(paths))))

	sess := session.New(validate.NewDetector(detectorOptions()))
	anomalies, err := sess.Import(records)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	if len(anomalies) == 0 {
		slog.Info(cli.FormatSuccess("No anomalies found"))
		displayDataset(sess.Accepted())
		return nil
	}

	slog.Info(cli.FormatWarning(fmt.Sprintf("Found %d anomalies across %d rows", len(anomalies), flaggedRowCount(anomalies))))

	if viper.GetBool("import.dry_run") {
		displayAnomalies(anomalies)
		sess.Cancel()
		return nil
	}

	var reviewer service.Reviewer
	var prompter *cli.Prompter
	if viper.GetBool("import.no_tui") {
		prompter = cli.NewPrompter(os.Stdin, os.Stdout)
		reviewer = prompter
	} else {
		reviewer = tui.NewReviewer()
	}

	directives, err := reviewer.Review(ctx, sess.Pending(), anomalies)
	if err != nil {
		sess.Cancel()
		if errors.Is(err, cli.ErrReviewCancelled) {
			slog.Info(cli.FormatWarning("Review canceled, dataset discarded"))
			return nil
		}
		return fmt.Errorf("review failed: %w", err)
	}

	accepted, err := sess.Resolve(directives)
	if err != nil {
		return fmt.Errorf("failed to apply corrections: %w", err)
	}

	if prompter != nil {
		prompter.ShowCompletion()
	}

	skipped, corrected := correction.Stats(directives, len(records))
	slog.Info(cli.FormatSuccess("Import complete!"),
		"accepted", len(accepted),
		"corrected", corrected,
		"skipped", skipped)
	displayDataset(accepted)

	return nil
}

func displayDataset(records []model.TripRecord) {
	if len(records) == 0 {
		slog.Info(cli.FormatWarning("Dataset is empty"))
		return
	}
	summary := stats.Compute(records)
	fmt.Println(cli.RenderBox("Dataset Summary", formatSummary(summary, ratesFromConfig())))
}

func displayAnomalies(anomalies []model.Anomaly) {
	content := fmt.Sprintf("Found %d anomalies:\n\n", len(anomalies))
	for _, anomaly := range anomalies {
		content += fmt.Sprintf("row %-4d %-18s %s\n", anomaly.TripIndex, anomaly.Category, anomaly.Description)
	}
	fmt.Println(cli.RenderBox("Anomaly Report", content))
}
