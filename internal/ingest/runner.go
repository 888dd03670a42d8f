package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"toondex/internal/catalog"
	"toondex/internal/config"
	"toondex/internal/logging"
	"toondex/internal/services"
	"toondex/internal/sources"
)

// sourceRate pairs a source with the page pacing it must respect.
type sourceRate struct {
	source  sources.Source
	limiter *rate.Limiter
}

// Runner pulls paged batches from every configured source and feeds them
// through the pipeline. One run at a time per data directory, guarded by a
// lock file.
type Runner struct {
	pipeline *Pipeline
	sources  []sourceRate
	lockPath string
	ingest   config.Ingest
	logger   *slog.Logger
}

// NewRunner builds a Runner. requestsPerSec below or at zero disables pacing
// for that source.
func NewRunner(pipeline *Pipeline, lockPath string, ingestCfg config.Ingest, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		pipeline: pipeline,
		lockPath: lockPath,
		ingest:   ingestCfg,
		logger:   logging.NewComponentLogger(logger, "runner"),
	}
}

// AddSource registers a source with its page pacing.
func (r *Runner) AddSource(source sources.Source, requestsPerSec float64) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}
	r.sources = append(r.sources, sourceRate{source: source, limiter: limiter})
}

// Run ingests up to the configured number of pages from every source. A page
// fetch failure ends that source's run; a record failure is counted and the
// batch continues. Cancellation is honored between records.
func (r *Runner) Run(ctx context.Context) (*RunStats, error) {
	fileLock := flock.New(r.lockPath)
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire ingest lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another ingestion run holds %s", r.lockPath)
	}
	defer func() { _ = fileLock.Unlock() }()

	stats := newRunStats(uuid.NewString())
	r.logger.Info("ingestion run started",
		logging.String(logging.FieldRunID, stats.RunID),
		logging.Int("sources", len(r.sources)),
		logging.Int("max_pages", r.ingest.MaxPages))

	for _, entry := range r.sources {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		r.runSource(ctx, entry, stats)
	}

	totals := stats.Totals()
	r.logger.Info("ingestion run finished",
		logging.String(logging.FieldRunID, stats.RunID),
		logging.Int("processed", totals.Processed),
		logging.Int("created", totals.Created),
		logging.Int("merged", totals.Merged),
		logging.Int("failed", totals.Failed))
	return stats, nil
}

func (r *Runner) runSource(ctx context.Context, entry sourceRate, stats *RunStats) {
	tag := entry.source.Tag()
	for page := 1; page <= r.ingest.MaxPages; page++ {
		if err := entry.limiter.Wait(ctx); err != nil {
			return
		}

		records, hasMore, err := entry.source.FetchPage(ctx, page, r.ingest.PageSize)
		if err != nil {
			r.logger.Warn("page fetch failed, ending source run",
				logging.String(logging.FieldRunID, stats.RunID),
				logging.String(logging.FieldSource, string(tag)),
				logging.Int("page", page),
				logging.Error(err))
			return
		}
		stats.recordPage(tag)

		r.processPage(ctx, tag, records, stats)
		if err := ctx.Err(); err != nil {
			return
		}
		if !hasMore {
			return
		}
	}
}

// processPage resolves every record in a page, optionally with bounded
// intra-page concurrency. The pipeline's per-identity locks make that safe.
func (r *Runner) processPage(ctx context.Context, tag catalog.SourceTag, records []catalog.SourceRecord, stats *RunStats) {
	workers := r.ingest.Concurrency
	if workers <= 1 {
		for _, raw := range records {
			if ctx.Err() != nil {
				return
			}
			r.processRecord(ctx, tag, raw, stats)
		}
		return
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, raw := range records {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(raw catalog.SourceRecord) {
			defer wg.Done()
			defer func() { <-sem }()
			r.processRecord(ctx, tag, raw, stats)
		}(raw)
	}
	wg.Wait()
}

func (r *Runner) processRecord(ctx context.Context, tag catalog.SourceTag, raw catalog.SourceRecord, stats *RunStats) {
	_, outcome, err := r.pipeline.ResolveAndMerge(ctx, raw)
	if err != nil {
		stats.recordFailure(tag)
		if services.IsRecordFailure(err) {
			r.logger.Warn("record skipped",
				logging.String(logging.FieldRunID, stats.RunID),
				logging.String(logging.FieldSource, string(tag)),
				logging.String(logging.FieldTitle, raw.Title),
				logging.Error(err))
			return
		}
		r.logger.Error("record failed",
			logging.String(logging.FieldRunID, stats.RunID),
			logging.String(logging.FieldSource, string(tag)),
			logging.String(logging.FieldTitle, raw.Title),
			logging.Error(err))
		return
	}
	stats.recordOutcome(tag, outcome)
}
