package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mhagberg/voltflow/internal/cli"
	"github.com/mhagberg/voltflow/internal/common"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "voltflow",
		Short: "⚡ EV journey log analyzer",
		Long: `voltflow: A CLI tool that ingests EV journey logs, flags suspect rows,
walks you through correcting them, and turns the clean dataset into
statistics, cost estimates, and trip plans.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/voltflow/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add commands
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(calcCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		// User-facing failures render their message alone; the wrapped cause
		// stays in the debug log.
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.UserMessage))
			if userErr.Err != nil {
				slog.Debug("Command failed", "error", userErr.Err)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(filepath.Join(home, ".config", "voltflow"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	// Environment variables
	viper.SetEnvPrefix("VOLTFLOW")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Set up logging
	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("validation.odometer_tolerance_km", 1.0)
	viper.SetDefault("validation.efficiency_min", 0.0)
	viper.SetDefault("validation.efficiency_max", 60.0)

	viper.SetDefault("calc.currency", "SEK")
	viper.SetDefault("calc.price_per_kwh", 2.50)
	viper.SetDefault("calc.battery_kwh", 78.0)

	viper.SetDefault("geo.enabled", true)
	viper.SetDefault("geo.nominatim_url", "https://nominatim.openstreetmap.org")
	viper.SetDefault("geo.osrm_url", "https://router.project-osrm.org")
	viper.SetDefault("geo.user_agent", "voltflow/1.0 (journey log analyzer)")
	viper.SetDefault("geo.timeout", "15s")

	if home, err := os.UserHomeDir(); err == nil {
		viper.SetDefault("cache.path", filepath.Join(home, ".config", "voltflow", "geocache.db"))
		viper.SetDefault("sheets.token_file", filepath.Join(home, ".config", "voltflow", "sheets-token.json"))
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("voltflow version", "version", version)
		},
	}
}
