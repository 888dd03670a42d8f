package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"toondex/internal/catalog"
	"toondex/internal/config"
	"toondex/internal/logging"
)

// fakeSource serves pre-built pages and can inject a failure on one of them.
type fakeSource struct {
	tag      catalog.SourceTag
	pages    [][]catalog.SourceRecord
	failPage int
}

func (f *fakeSource) Tag() catalog.SourceTag { return f.tag }

func (f *fakeSource) FetchPage(_ context.Context, page, _ int) ([]catalog.SourceRecord, bool, error) {
	if page == f.failPage {
		return nil, false, fmt.Errorf("upstream returned 500")
	}
	if page > len(f.pages) {
		return nil, false, nil
	}
	return f.pages[page-1], page < len(f.pages), nil
}

func fakePage(tag catalog.SourceTag, startID int64, titles ...string) []catalog.SourceRecord {
	records := make([]catalog.SourceRecord, 0, len(titles))
	for i, title := range titles {
		records = append(records, sourceRecord(tag, startID+int64(i), title, catalog.TypeTV))
	}
	return records
}

func newTestRunner(t *testing.T, ingestCfg config.Ingest) (*Runner, string) {
	t.Helper()
	pipeline, _ := newTestPipeline(t)
	lockPath := filepath.Join(t.TempDir(), "ingest.lock")
	return NewRunner(pipeline, lockPath, ingestCfg, logging.NewNop()), lockPath
}

func TestRunnerIngestsAllSources(t *testing.T) {
	runner, _ := newTestRunner(t, config.Ingest{PageSize: 3, MaxPages: 5, Concurrency: 1})

	runner.AddSource(&fakeSource{
		tag: catalog.SourceTMDB,
		pages: [][]catalog.SourceRecord{
			fakePage(catalog.SourceTMDB, 100, "Alpha Quest", "Beta Drive", "Gamma Ray"),
			fakePage(catalog.SourceTMDB, 103, "Delta Force Nine"),
		},
	}, 0)
	runner.AddSource(&fakeSource{
		tag: catalog.SourceMAL,
		pages: [][]catalog.SourceRecord{
			// Same titles as the first source: these merge instead of creating.
			fakePage(catalog.SourceMAL, 200, "Alpha Quest", "Beta Drive"),
		},
	}, 0)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.RunID == "" {
		t.Fatal("expected a run id")
	}

	tmdb := stats.Source(catalog.SourceTMDB)
	if tmdb.Processed != 4 || tmdb.Created != 4 || tmdb.Pages != 2 {
		t.Fatalf("unexpected tmdb stats: %+v", tmdb)
	}
	mal := stats.Source(catalog.SourceMAL)
	if mal.Processed != 2 || mal.Merged != 2 || mal.Created != 0 {
		t.Fatalf("unexpected mal stats: %+v", mal)
	}

	totals := stats.Totals()
	if totals.Processed != 6 || totals.Failed != 0 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestRunnerRecordFailureDoesNotEndBatch(t *testing.T) {
	runner, _ := newTestRunner(t, config.Ingest{PageSize: 3, MaxPages: 2, Concurrency: 1})

	page := fakePage(catalog.SourceTMDB, 300, "Good One")
	page = append(page, sourceRecord(catalog.SourceTMDB, 301, "   ", catalog.TypeTV))
	page = append(page, fakePage(catalog.SourceTMDB, 302, "Good Two")...)

	runner.AddSource(&fakeSource{tag: catalog.SourceTMDB, pages: [][]catalog.SourceRecord{page}}, 0)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	tmdb := stats.Source(catalog.SourceTMDB)
	if tmdb.Processed != 3 || tmdb.Created != 2 || tmdb.Failed != 1 {
		t.Fatalf("unexpected stats after record failure: %+v", tmdb)
	}
}

func TestRunnerPageFailureEndsSourceOnly(t *testing.T) {
	runner, _ := newTestRunner(t, config.Ingest{PageSize: 2, MaxPages: 5, Concurrency: 1})

	runner.AddSource(&fakeSource{
		tag: catalog.SourceTMDB,
		pages: [][]catalog.SourceRecord{
			fakePage(catalog.SourceTMDB, 400, "First Wave", "Second Wave"),
			fakePage(catalog.SourceTMDB, 402, "Never Reached"),
		},
		failPage: 2,
	}, 0)
	runner.AddSource(&fakeSource{
		tag:   catalog.SourceMAL,
		pages: [][]catalog.SourceRecord{fakePage(catalog.SourceMAL, 500, "Still Runs")},
	}, 0)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if tmdb := stats.Source(catalog.SourceTMDB); tmdb.Processed != 2 || tmdb.Pages != 1 {
		t.Fatalf("expected tmdb to stop after failed page, got %+v", tmdb)
	}
	if mal := stats.Source(catalog.SourceMAL); mal.Processed != 1 {
		t.Fatalf("expected mal to run despite tmdb page failure, got %+v", mal)
	}
}

func TestRunnerRespectsMaxPages(t *testing.T) {
	runner, _ := newTestRunner(t, config.Ingest{PageSize: 1, MaxPages: 2, Concurrency: 1})

	runner.AddSource(&fakeSource{
		tag: catalog.SourceTMDB,
		pages: [][]catalog.SourceRecord{
			fakePage(catalog.SourceTMDB, 600, "Page One"),
			fakePage(catalog.SourceTMDB, 601, "Page Two"),
			fakePage(catalog.SourceTMDB, 602, "Page Three"),
		},
	}, 0)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tmdb := stats.Source(catalog.SourceTMDB); tmdb.Pages != 2 || tmdb.Processed != 2 {
		t.Fatalf("expected the page cap to hold, got %+v", tmdb)
	}
}

func TestRunnerConcurrentPageProcessing(t *testing.T) {
	runner, _ := newTestRunner(t, config.Ingest{PageSize: 8, MaxPages: 1, Concurrency: 4})

	titles := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		titles = append(titles, fmt.Sprintf("Parallel Show %d", i))
	}
	runner.AddSource(&fakeSource{
		tag:   catalog.SourceTMDB,
		pages: [][]catalog.SourceRecord{fakePage(catalog.SourceTMDB, 700, titles...)},
	}, 0)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tmdb := stats.Source(catalog.SourceTMDB); tmdb.Created != 8 || tmdb.Failed != 0 {
		t.Fatalf("unexpected stats under concurrency: %+v", tmdb)
	}
}

func TestRunnerRefusesSecondConcurrentRun(t *testing.T) {
	runner, lockPath := newTestRunner(t, config.Ingest{PageSize: 1, MaxPages: 1, Concurrency: 1})

	held := flock.New(lockPath)
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("could not pre-acquire lock: %v", err)
	}
	defer func() { _ = held.Unlock() }()

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected run to refuse while the lock is held")
	} else if !strings.Contains(err.Error(), lockPath) {
		t.Fatalf("expected lock path in error, got %v", err)
	}
}

func TestRunnerHonorsCancellation(t *testing.T) {
	runner, _ := newTestRunner(t, config.Ingest{PageSize: 2, MaxPages: 3, Concurrency: 1})

	runner.AddSource(&fakeSource{
		tag: catalog.SourceTMDB,
		pages: [][]catalog.SourceRecord{
			fakePage(catalog.SourceTMDB, 800, "Before Cancel", "Also Before"),
		},
	}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := runner.Run(ctx)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if totals := stats.Totals(); totals.Processed != 0 {
		t.Fatalf("expected no records processed after cancel, got %+v", totals)
	}
}
