// =============================================================================
// Sales Loader - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (salesloader)
//   ├── loadCmd    (salesloader load)
//   ├── inspectCmd (salesloader inspect)
//   ├── configCmd  (salesloader config show)
//   └── versionCmd (salesloader version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Reads the config file, .env and SALESLOADER_* environment variables
//   2. Binds the subcommand's flags on top of them
//   3. Validates the result
//   4. Sets up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/salesloader/internal/config"
	"github.com/ginjaninja78/salesloader/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// "" means salesloader.yaml in the working directory, if present.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// v holds every configuration source for the running command.
var v = viper.New()

// cfg is the validated configuration, set before any subcommand runs.
var cfg *config.Config

// flagKeys maps command line flags to configuration keys. A flag only
// overrides the config file and environment when it is given explicitly.
var flagKeys = map[string]string{
	"file":            "source.file",
	"sheets":          "source.sheets",
	"skip-blank-rows": "source.skip_blank_rows",
	"delimiter":       "source.csv.delimiter",
	"encoding":        "source.csv.encoding",
	"header-rows":     "source.csv.header_rows",
	"driver":          "database.driver",
	"dsn":             "database.dsn",
	"host":            "database.host",
	"port":            "database.port",
	"user":            "database.user",
	"password":        "database.password",
	"database":        "database.name",
	"table":           "database.table",
	"batch-size":      "load.batch_size",
	"progress-every":  "load.progress_every",
	"keep-table":      "load.keep_table",
	"verify":          "load.verify",
	"summary":         "load.summary",
	"log-level":       "logging.level",
	"log-format":      "logging.format",
	"pushgateway":     "metrics.pushgateway_url",
	"metrics-job":     "metrics.job",
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "salesloader",
	Short: "Sales Loader - Load spreadsheet sales exports into a SQL database",
	Long: `Sales Loader reads retail sales records from multi-sheet Excel workbooks
(or CSV exports), maps their differently named columns onto one canonical
layout, cleans every value and bulk-loads the result into a SQL table for
trend analysis.

Key Features:
  - Header detection across naming variants ("Invoice No", "InvoiceNo", ...)
  - Day-first date parsing and Excel serial dates
  - Streaming reads: only one batch of rows is held in memory
  - One transaction per batch; MySQL, PostgreSQL, SQLite and SQL Server

Example Usage:
  salesloader load --file online_retail_II.xlsx
  salesloader load --file sales.xlsx --driver sqlite --dsn ./sales.db
  salesloader inspect --file sales.xlsx
  salesloader config show`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main(). Interrupts cancel the
// command's context so a load stops at the next record.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the configuration file (default is "+config.DefaultFile+" if present)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
}

// initConfig loads the configuration for cmd and sets up logging.
func initConfig(cmd *cobra.Command) error {
	used, err := config.Prepare(v, cfgFile)
	if err != nil {
		return err
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}
	if verbose {
		v.Set("logging.level", "debug")
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if used != "" {
		slog.Debug("using config file", "path", used)
	}
	return nil
}
