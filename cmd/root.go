// =============================================================================
// ANDPAD Invoice Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (andpad-converter)
//   ├── convertCmd  (andpad-converter convert <files...>)
//   ├── processCmd  (andpad-converter process)
//   ├── detectCmd   (andpad-converter detect <files...>)
//   ├── purchaseCmd (andpad-converter purchase <file>)
//   ├── validateCmd (andpad-converter validate)
//   └── versionCmd  (andpad-converter version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the main configuration and the vendor mappings
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/andpad-invoice-converter/configs"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "andpad-converter",
	Short: "ANDPAD Invoice Converter - Normalize vendor invoices into the ANDPAD import sheet",
	Long: `ANDPAD Invoice Converter reads supplier invoice files (CSV and Excel) in
each vendor's own layout and produces the ANDPAD invoice import sheet.

Key Features:
  - Vendor detection from file names and column headers
  - Hand-written readers for irregular vendor layouts
  - YAML column mappings for regular ones
  - Tax, due date and invoice label normalization
  - One import row per project, consolidated across files
  - xlsx or BOM-prefixed csv output

Example Usage:
  andpad-converter convert 大萬_8月.csv                # Convert one file
  andpad-converter convert a.csv b.xlsx -o combined     # Combine a batch
  andpad-converter process                              # Convert every file in input_dir
  andpad-converter detect *.csv                         # Show which vendor each file is`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// environment is what every command needs after startup.
type environment struct {
	config   *config.MainConfig
	mappings []*config.VendorMapping
	logger   *slog.Logger
}

// setup loads the configuration, initializes logging and loads the vendor
// mappings, from MappingsDir or the embedded defaults.
func setup() (*environment, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	level := mainConfig.LogLevel
	if verbose {
		level = "debug"
	}
	logger := logging.Init(&logging.Config{Level: level, Format: mainConfig.LogFormat})

	var mappings []*config.VendorMapping
	if mainConfig.MappingsDir != "" {
		mappings, err = config.LoadVendorMappings(mainConfig.MappingsDir)
	} else {
		mappings, err = config.LoadVendorMappingsFS(configs.Vendors, configs.VendorsDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor mappings: %w", err)
	}
	logger.Debug("config.loaded", "config", cfgFile, "mappings", len(mappings), "mappings_dir", mainConfig.MappingsDir)

	return &environment{config: mainConfig, mappings: mappings, logger: logger}, nil
}
