// =============================================================================
// Sales Loader - Load Command
// =============================================================================
//
// This file defines the 'load' command, the main command of the tool. It
// orchestrates the whole pipeline for one input file.
//
// COMMAND USAGE:
//   salesloader load --file <path> [flags]
//
// PROCESSING PIPELINE:
//   1. Check that the input file exists (before touching the database)
//   2. Open the workbook
//   3. Create the database if needed, then drop and recreate the table
//   4. Stream records out of every usable sheet and insert them in batches,
//      one transaction per batch
//   5. Count data quality issues on the way through
//   6. Optionally verify the row count, write a summary, push metrics
//   7. Print the final summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/salesloader/internal/config"
	"github.com/ginjaninja78/salesloader/internal/loader"
	"github.com/ginjaninja78/salesloader/internal/logging"
	"github.com/ginjaninja78/salesloader/internal/metrics"
	"github.com/ginjaninja78/salesloader/internal/storage"
	_ "github.com/ginjaninja78/salesloader/internal/storage/all"
	"github.com/ginjaninja78/salesloader/internal/types"
	"github.com/ginjaninja78/salesloader/internal/validation"
	"github.com/ginjaninja78/salesloader/pkg/utils"
)

// =============================================================================
// LOAD COMMAND DEFINITION
// =============================================================================

// loadCmd represents the 'load' command.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a sales workbook or CSV export into the database",
	Long: `The load command reads every sheet of the input workbook, maps each sheet's
header onto the canonical columns and inserts the rows into the target table.

Sheets whose header lacks invoice, stock code, quantity, invoice date or unit
price are skipped with a warning. Rows are inserted in batches, each batch in
its own transaction; if a batch fails the load stops and the batches already
committed stay in the table.

The target table is dropped and recreated on every run unless --keep-table
is given.

NOTE: quantity and unit_price are never NULL. A cell that is empty or cannot
be parsed is stored as 0, so a 0 in those columns means "zero or unknown".`,

	Example: `  salesloader load --file online_retail_II.xlsx
  salesloader load --file online_retail_II.xlsx --user loader --password secret --database online_sales
  salesloader load --file export.csv --driver postgres --host db --port 5432 --user etl
  salesloader load --file sales.xlsx --driver sqlite --dsn ./sales.db --verify --summary ./runs/`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(loadCmd)
	defaults := config.Default()

	f := loadCmd.Flags()

	// Source.
	f.StringP("file", "f", "", "Path to the .xlsx/.xlsm workbook or .csv file (required)")
	f.StringSlice("sheets", nil, "Load only these sheets (comma separated)")
	f.Bool("skip-blank-rows", false, "Drop data rows whose cells are all blank")
	f.String("delimiter", defaults.Source.CSV.Delimiter, "CSV delimiter: ',', ';', '|', tab")
	f.String("encoding", defaults.Source.CSV.Encoding, "CSV character encoding, e.g. windows-1252")
	f.Int("header-rows", defaults.Source.CSV.HeaderRows, "Number of CSV header rows to merge")

	// Database.
	f.String("driver", defaults.Database.Driver, "Storage backend: mysql, postgres, sqlite, sqlserver")
	f.String("dsn", "", "Full connection string; overrides host/port/user/password (file path for sqlite)")
	f.String("host", defaults.Database.Host, "Database host")
	f.Int("port", defaults.Database.Port, "Database port")
	f.String("user", defaults.Database.User, "Database user")
	f.String("password", defaults.Database.Password, "Database password")
	f.String("database", defaults.Database.Name, "Database name")
	f.String("table", defaults.Database.Table, "Target table")

	// Load.
	f.Int("batch-size", defaults.Load.BatchSize, "Rows per insert transaction")
	f.Int("progress-every", 0, "Log progress every N rows (default: once per batch)")
	f.Bool("keep-table", false, "Append to the existing table instead of recreating it")
	f.Bool("verify", false, "Compare the table row count with the rows inserted")
	f.String("summary", "", "Write a YAML run summary to this file or directory")

	// Metrics.
	f.String("pushgateway", "", "Prometheus Pushgateway URL for run metrics")
	f.String("metrics-job", defaults.Metrics.Job, "Pushgateway job name")
}

// =============================================================================
// LOAD PIPELINE
// =============================================================================

// runLoad executes the load pipeline.
//
// PARAMETERS:
//   - ctx: Cancelled on interrupt.
//   - cfg: The validated configuration.
//   - out: Receives the final summary.
//
// RETURNS:
//   - An error if the input is missing, the store fails or verification
//     does not match. Batches committed before a failure are kept.
func runLoad(ctx context.Context, cfg *config.Config, out io.Writer) (err error) {
	// Fail on a missing input before connecting to anything.
	if err := utils.CheckInputFile(cfg.Source.File); err != nil {
		return err
	}
	if _, err := utils.DetectFormat(cfg.Source.File); err != nil {
		return err
	}

	summary := utils.RunSummary{
		RunID:      utils.NewRunID(),
		SourceFile: cfg.Source.File,
		Driver:     cfg.Database.Driver,
		Table:      cfg.Database.Table,
		BatchSize:  cfg.Load.BatchSize,
		StartTime:  time.Now(),
	}
	ctx = logging.WithRunID(ctx, summary.RunID)
	log := logging.With(ctx, "file", cfg.Source.File, "driver", cfg.Database.Driver, "table", cfg.Database.Table)

	if size, err := utils.GetFileSize(cfg.Source.File); err == nil {
		log.Info("input file", "size", humanize.Bytes(uint64(size)))
	}

	recorder := metrics.New(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job)

	defer func() {
		summary.EndTime = time.Now()
		summary.Duration = summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond).String()
		if err != nil {
			summary.Error = err.Error()
		}
		finishRun(ctx, cfg, recorder, summary, err == nil)
	}()

	// Source.
	src, err := openSource(cfg.Source, log)
	if err != nil {
		return err
	}
	defer src.Close()

	// Store.
	if err := storage.EnsureDatabase(ctx, cfg.Database); err != nil {
		return err
	}
	db, err := storage.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Setup(ctx, !cfg.Load.KeepTable); err != nil {
		return err
	}

	var before int64
	if cfg.Load.Verify && cfg.Load.KeepTable {
		if before, err = db.Count(ctx); err != nil {
			return err
		}
	}

	// Load.
	sink := loader.SinkFunc(func(ctx context.Context) (loader.BatchWriter, error) {
		w, err := db.OpenWriter(ctx)
		if err != nil {
			return nil, err
		}
		return w, nil
	})
	l, err := loader.New(sink, loader.Options{
		BatchSize:     cfg.Load.BatchSize,
		ProgressEvery: cfg.Load.ProgressEvery,
		Logger:        log,
		Observer:      recorder,
	})
	if err != nil {
		return err
	}

	log.Info("load started", "batch_size", cfg.Load.BatchSize)
	tracked := validation.Track(src)
	res, loadErr := l.Load(ctx, tracked)

	summary.Inserted = res.Inserted
	summary.Batches = res.Batches
	summary.Sheets = src.Sheets()
	summary.Quality = tracked.Report()
	recorder.SheetsSkipped(summary.SkippedSheets())
	if len(summary.Quality.Issues) > 0 {
		log.Info("data quality", summary.Quality.LogArgs()...)
	}

	if loadErr != nil {
		fmt.Fprintf(out, "Load failed after %s rows in %d committed batches\n", humanize.Comma(res.Inserted), res.Batches)
		return loadErr
	}

	if cfg.Load.Verify {
		count, err := db.Count(ctx)
		if err != nil {
			return err
		}
		summary.Verified = &count
		if got := count - before; got != res.Inserted {
			return fmt.Errorf("verification failed: table gained %d rows, loader inserted %d", got, res.Inserted)
		}
		log.Info("row count verified", "rows", count)
	}

	printSummary(out, summary, res)
	return nil
}

// finishRun writes the summary file and pushes metrics. Failures here are
// logged, not returned, so they never mask the load's own result.
func finishRun(ctx context.Context, cfg *config.Config, recorder *metrics.Recorder, summary utils.RunSummary, ok bool) {
	log := logging.FromContext(ctx)

	if cfg.Load.Summary != "" {
		path, err := utils.WriteSummary(summary, cfg.Load.Summary)
		if err != nil {
			log.Error("failed to write run summary", "error", err)
		} else {
			log.Info("run summary written", "path", path)
		}
	}

	recorder.RunFinished(summary.EndTime.Sub(summary.StartTime), ok)
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := recorder.Push(pushCtx, summary.RunID); err != nil {
		log.Warn("metrics push failed", "error", err)
	}
}

// printSummary prints the human readable result of a successful run.
func printSummary(out io.Writer, summary utils.RunSummary, res loader.Result) {
	fmt.Fprintf(out, "Loaded %s rows into %s in %d batches (%s)\n",
		humanize.Comma(res.Inserted), summary.Table, res.Batches, res.Duration.Round(time.Millisecond))

	for _, sheet := range summary.Sheets {
		switch sheet.Status {
		case types.SheetSkipped:
			fmt.Fprintf(out, "  %-24s skipped, missing %v\n", sheet.Name, sheet.Missing)
		case types.SheetEmpty:
			fmt.Fprintf(out, "  %-24s empty\n", sheet.Name)
		default:
			fmt.Fprintf(out, "  %-24s %s rows\n", sheet.Name, humanize.Comma(int64(sheet.Rows)))
		}
	}
}
