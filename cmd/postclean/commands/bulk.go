package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/postclean/internal/batch"
	"github.com/jmylchreest/postclean/internal/logger"
	"github.com/jmylchreest/postclean/internal/output"
	"github.com/jmylchreest/postclean/internal/store"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Clean every post in the store",
	Long: `Bulk reads every row of the configured table, cleans the rows that need
it in fixed size batches and writes the results back. Rows that fail to
clean are left untouched and listed in the summary for review.

Examples:
  # Preview a run against a SQLite export
  postclean bulk --dsn blog.db --dry-run

  # Clean with more workers and write a per-row report
  postclean bulk --dsn blog.db --concurrency 8 --report report.jsonl --report-format jsonl

  # Skip very large bodies
  postclean bulk --dsn blog.db --max-content-size 2MiB`,
	RunE: runBulk,
}

func init() {
	rootCmd.AddCommand(bulkCmd)

	bulkCmd.Flags().Bool("dry-run", false, "clean without writing results back")
	bulkCmd.Flags().Int("batch-size", 0, "rows per batch (default from config)")
	bulkCmd.Flags().IntP("concurrency", "c", 0, "rows cleaned in parallel within a batch (default from config)")
	bulkCmd.Flags().String("max-content-size", "", "skip rows larger than this, e.g. 16MiB")
	bulkCmd.Flags().Int("min-length", 0, "skip rows shorter than this many bytes (default from config)")
	bulkCmd.Flags().StringP("report", "o", "", "write one record per row to this file (- for stdout)")
	bulkCmd.Flags().String("report-format", "", "report format: json, jsonl, yaml (default from config)")

	_ = viper.BindPFlag("batch.dry_run", bulkCmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("batch.size", bulkCmd.Flags().Lookup("batch-size"))
	_ = viper.BindPFlag("batch.concurrency", bulkCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("batch.max_content_size", bulkCmd.Flags().Lookup("max-content-size"))
	_ = viper.BindPFlag("batch.min_content_length", bulkCmd.Flags().Lookup("min-length"))
	_ = viper.BindPFlag("report.path", bulkCmd.Flags().Lookup("report"))
	_ = viper.BindPFlag("report.format", bulkCmd.Flags().Lookup("report-format"))
}

func runBulk(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	var report output.Writer
	if cfg.Report.Path != "" {
		format, err := output.ParseFormat(cfg.Report.Format)
		if err != nil {
			return err
		}
		report, err = output.Create(cfg.Report.Path, format, output.WithPretty(true))
		if err != nil {
			return err
		}
		defer func() {
			if err := report.Close(); err != nil {
				logError("closing report: %v", err)
			}
		}()
	}

	log := logger.Component("bulk")
	runner := batch.New(st, batch.Options{
		BatchSize:        cfg.Batch.Size,
		Concurrency:      cfg.Batch.Concurrency,
		DryRun:           cfg.Batch.DryRun,
		MinContentLength: cfg.Batch.MinContentLength,
		MaxContentBytes:  cfg.Batch.MaxContentBytes(),
		Cleaner:          cfg.Scrub.Cleaner(),
		OnOutcome: func(o batch.Outcome) {
			if o.Status == batch.StatusFailed || o.Status == batch.StatusPersistFailed {
				log.Warn("row needs review", "id", o.ID, "status", o.Status, "error", o.Error)
			}
			if report == nil {
				return
			}
			if err := report.Write(o); err != nil {
				log.Error("writing report record", "id", o.ID, "error", err)
			}
		},
	})

	if cfg.Batch.DryRun {
		logInfo("Dry run: nothing will be written to %s", st.Table())
	}
	logInfo("Cleaning %s (%s, batches of %d, %d workers)",
		st.Table(), st.Driver(), cfg.Batch.Size, cfg.Batch.Concurrency)

	summary, runErr := runner.Run(ctx)
	if summary != nil {
		logInfo("%s", summary.String())
	}
	if runErr != nil {
		return runErr
	}
	if !summary.OK() {
		return fmt.Errorf("%w: ids %v", errRowsNeedReview, summary.FailedIDs)
	}
	return nil
}

var errRowsNeedReview = errors.New("some rows need manual review")
