// Package batch applies the scrub pipeline to every row of a store.
//
// Rows are processed in fixed-size batches. Each batch runs on an errgroup
// limited to the configured concurrency, and the runner waits for the whole
// batch before starting the next. A failure on one row never stops the run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/postclean/internal/analyze"
	"github.com/jmylchreest/postclean/internal/logger"
	"github.com/jmylchreest/postclean/internal/store"
	"github.com/jmylchreest/postclean/pkg/cleaner/scrub"
)

// Defaults
const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 10
)

// Store is the row store the runner reads from and writes to.
type Store interface {
	FetchRows(ctx context.Context) ([]store.Row, error)
	UpdateContent(ctx context.Context, id int64, content string) error
}

// Options configures a Runner.
type Options struct {
	BatchSize   int
	Concurrency int

	// DryRun cleans every row but never writes.
	DryRun bool

	// MinContentLength skips shorter rows.
	MinContentLength int

	// MaxContentBytes skips larger rows. Zero disables the limit.
	MaxContentBytes uint64

	// Cleaner is the scrub configuration; nil uses the defaults.
	Cleaner *scrub.Config

	// OnOutcome is called once per row as soon as it finishes. It may be
	// called from several goroutines at once.
	OnOutcome func(Outcome)
}

// Runner drives the bulk clean.
type Runner struct {
	store   Store
	cleaner *scrub.Cleaner
	opts    Options
	log     *slog.Logger
}

// New creates a Runner. Zero or negative sizes fall back to the defaults.
func New(s Store, opts Options) *Runner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MinContentLength < 0 {
		opts.MinContentLength = 0
	}
	return &Runner{
		store:   s,
		cleaner: scrub.New(opts.Cleaner),
		opts:    opts,
		log:     logger.Component("batch"),
	}
}

// Run fetches every row and processes it. The returned error covers only
// fetching and cancellation; per-row failures are reported in the summary.
// On cancellation the summary of the rows finished so far is returned
// together with the context error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	rows, err := r.store.FetchRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching rows: %w", err)
	}

	summary := newSummary(len(rows), r.opts.DryRun)
	r.log.Info("starting bulk clean",
		"rows", len(rows),
		"batch_size", r.opts.BatchSize,
		"concurrency", r.opts.Concurrency,
		"dry_run", r.opts.DryRun)

	var runErr error
	for startIdx := 0; startIdx < len(rows); startIdx += r.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		end := min(startIdx+r.opts.BatchSize, len(rows))
		r.runBatch(ctx, rows[startIdx:end], summary)

		r.log.Debug("batch finished", "processed", summary.Processed, "total", summary.Total)
	}

	summary.Duration = time.Since(start)
	r.log.Info("bulk clean finished",
		"processed", summary.Processed,
		"cleaned", summary.Cleaned,
		"unchanged", summary.Unchanged,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"persist_failed", summary.PersistFailed,
		"duration", summary.Duration)

	return summary, runErr
}

// runBatch processes one batch concurrently and waits for all of it.
func (r *Runner) runBatch(ctx context.Context, rows []store.Row, summary *Summary) {
	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)

	for _, row := range rows {
		g.Go(func() error {
			outcome := r.processRow(ctx, row)
			summary.add(outcome)
			if r.opts.OnOutcome != nil {
				r.opts.OnOutcome(outcome)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// processRow cleans one row and persists it when the content changed.
func (r *Runner) processRow(ctx context.Context, row store.Row) (outcome Outcome) {
	body := row.Body()
	outcome = Outcome{
		ID:         row.ID,
		Title:      row.Title,
		InputBytes: len(body),
	}

	defer func() {
		if p := recover(); p != nil {
			outcome.Status = StatusFailed
			outcome.Error = fmt.Sprintf("panic: %v", p)
			r.log.Error("row failed", "id", row.ID, "error", outcome.Error)
		}
	}()

	if reason := r.skipReason(body); reason != "" {
		outcome.Status = StatusSkipped
		outcome.Reason = reason
		r.log.Debug("row skipped", "id", row.ID, "reason", reason)
		return outcome
	}

	result := r.cleaner.CleanWithStats(body)
	outcome.Stats = result.Stats
	if result.Error != nil {
		outcome.Status = StatusFailed
		outcome.Error = result.Error.Error()
		r.log.Error("row failed", "id", row.ID, "error", result.Error)
		return outcome
	}
	outcome.Issues = result.Stats.Issues
	outcome.OutputBytes = len(result.Content)
	for _, w := range result.Warnings {
		r.log.Debug("row warning", "id", row.ID, "warning", w.String())
	}

	if result.Content == body || result.Content == "" {
		outcome.Status = StatusUnchanged
		if result.Content == "" {
			outcome.Reason = "cleaned content is empty"
		}
		return outcome
	}

	outcome.Status = StatusCleaned
	if r.opts.DryRun {
		return outcome
	}

	if err := r.store.UpdateContent(ctx, row.ID, result.Content); err != nil {
		outcome.Status = StatusPersistFailed
		outcome.Error = err.Error()
		if errors.Is(err, context.Canceled) {
			r.log.Warn("row not persisted, run cancelled", "id", row.ID)
		} else {
			r.log.Error("row not persisted", "id", row.ID, "error", err)
		}
		return outcome
	}
	outcome.Persisted = true
	r.log.Debug("row cleaned", "id", row.ID, "issues", result.Stats.TotalIssues())
	return outcome
}

// skipReason returns why body is left alone, or "".
func (r *Runner) skipReason(body string) string {
	switch {
	case len(body) < r.opts.MinContentLength:
		return fmt.Sprintf("shorter than %d bytes", r.opts.MinContentLength)
	case r.opts.MaxContentBytes > 0 && uint64(len(body)) > r.opts.MaxContentBytes:
		return fmt.Sprintf("larger than %d bytes", r.opts.MaxContentBytes)
	case !analyze.NeedsCleaning(body):
		return "already clean"
	default:
		return ""
	}
}
