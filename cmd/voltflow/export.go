package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mhagberg/voltflow/internal/cli"
	"github.com/mhagberg/voltflow/internal/common"
	"github.com/mhagberg/voltflow/internal/config"
	"github.com/mhagberg/voltflow/internal/sheets"
	"github.com/mhagberg/voltflow/internal/stats"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <files...>",
		Short: "Export a journey report to Google Sheets",
		Long: `Export a journey log to a Google Sheets report with a dataset summary,
a monthly breakdown, and per-trip rows.

Requires Google Sheets credentials; run 'voltflow auth' first. The input must
be clean: flagged rows abort the export unless --skip-bad drops them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExport,
	}

	cmd.Flags().String("format", "", "Force input format (csv, json, xlsx) instead of detecting by extension")
	cmd.Flags().Bool("skip-bad", false, "Drop flagged rows instead of failing")
	cmd.Flags().String("spreadsheet-id", "", "Write into an existing spreadsheet instead of creating one")
	cmd.Flags().String("spreadsheet-name", "", "Title for a newly created spreadsheet")

	_ = viper.BindPFlag("export.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("export.skip_bad", cmd.Flags().Lookup("skip-bad"))
	_ = viper.BindPFlag("sheets.spreadsheet_id", cmd.Flags().Lookup("spreadsheet-id"))
	_ = viper.BindPFlag("sheets.spreadsheet_name", cmd.Flags().Lookup("spreadsheet-name"))

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	records, err := loadCleanDataset(args, viper.GetString("export.format"), viper.GetBool("export.skip_bad"))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		slog.Info(cli.FormatWarning("Nothing to export"))
		return nil
	}

	sheetsConfig, err := config.LoadSheetsConfig()
	if err != nil {
		return common.NewUserError("Google Sheets is not configured; run 'voltflow auth' first", err)
	}

	writer, err := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	summary := stats.Compute(records)

	slog.Info(cli.ChartIcon+" Exporting journey report...", "trips", summary.Trips)
	if err := writer.Write(ctx, records, summary); err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}

	slog.Info(cli.FormatSuccess("Export complete!"))
	return nil
}
