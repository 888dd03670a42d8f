package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"toondex/internal/catalog"
	"toondex/internal/config"
	"toondex/internal/franchise"
	"toondex/internal/logging"
	"toondex/internal/services"
)

func newTestPipeline(t *testing.T) (*Pipeline, *catalog.Store) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	table, err := franchise.DefaultTable()
	if err != nil {
		t.Fatal(err)
	}
	return NewPipeline(store, config.Default().Matching, table, logging.NewNop()), store
}

func scorePtr(v float64) *float64 { return &v }

func sourceRecord(source catalog.SourceTag, id int64, title string, contentType catalog.ContentType) catalog.SourceRecord {
	return catalog.SourceRecord{
		Source:      source,
		ExternalID:  id,
		Title:       title,
		ContentType: contentType,
		Genres:      []catalog.Genre{{Name: "Action"}},
	}
}

func TestResolveAndMergeCreatesThenMerges(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ctx := context.Background()

	first := sourceRecord(catalog.SourceTMDB, 85937, "Demon Slayer", catalog.TypeTV)
	first.Score = scorePtr(8.5)
	first.Votes = 1000

	rec, outcome, err := pipeline.ResolveAndMerge(ctx, first)
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("expected created, got %s", outcome)
	}
	if rec.TMDBID == nil || *rec.TMDBID != 85937 {
		t.Fatalf("expected tmdb id set, got %v", rec.TMDBID)
	}

	second := sourceRecord(catalog.SourceMAL, 38000, "Demon Slayer", catalog.TypeTV)
	second.Score = scorePtr(8.7)
	second.Votes = 200000

	merged, outcome, err := pipeline.ResolveAndMerge(ctx, second)
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if outcome != OutcomeMerged {
		t.Fatalf("expected merged, got %s", outcome)
	}
	if merged.ID != rec.ID {
		t.Fatal("expected both ingests to resolve to one record")
	}
	if merged.MALID == nil || *merged.MALID != 38000 {
		t.Fatalf("expected mal id set, got %v", merged.MALID)
	}
	if merged.UnifiedScore == nil {
		t.Fatal("expected unified score after merge")
	}
	// B's vote count dominates the log-weighted average.
	got := *merged.UnifiedScore
	if 8.7-got >= got-8.5 {
		t.Fatalf("expected unified score closer to 8.7, got %v", got)
	}
}

func TestResolveAndMergeSubtitleVariantMerges(t *testing.T) {
	pipeline, store := newTestPipeline(t)
	ctx := context.Background()

	// The two catalogs carry the same show with and without its subtitle.
	// Comparing normalized base titles scores the pair 1.0, so the second
	// ingest must merge rather than create a duplicate.
	first := sourceRecord(catalog.SourceTMDB, 85937, "Demon Slayer: Kimetsu no Yaiba", catalog.TypeTV)
	rec, _, err := pipeline.ResolveAndMerge(ctx, first)
	if err != nil {
		t.Fatal(err)
	}

	second := sourceRecord(catalog.SourceMAL, 38000, "Demon Slayer", catalog.TypeTV)
	merged, outcome, err := pipeline.ResolveAndMerge(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeMerged || merged.ID != rec.ID {
		t.Fatalf("expected subtitle variant to merge into record %d, got %d (%s)", rec.ID, merged.ID, outcome)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected one record, got %d", stats.Total)
	}
}

func TestResolveAndMergeSubtitleVariantMergesReversed(t *testing.T) {
	pipeline, store := newTestPipeline(t)
	ctx := context.Background()

	// Base title first, subtitled variant second.
	first := sourceRecord(catalog.SourceMAL, 38000, "Demon Slayer", catalog.TypeTV)
	rec, _, err := pipeline.ResolveAndMerge(ctx, first)
	if err != nil {
		t.Fatal(err)
	}

	second := sourceRecord(catalog.SourceTMDB, 85937, "Demon Slayer: Kimetsu no Yaiba", catalog.TypeTV)
	merged, outcome, err := pipeline.ResolveAndMerge(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeMerged || merged.ID != rec.ID {
		t.Fatalf("expected subtitle variant to merge into record %d, got %d (%s)", rec.ID, merged.ID, outcome)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected one record, got %d", stats.Total)
	}
}

func TestResolveAndMergeExternalIDFastPath(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ctx := context.Background()

	first := sourceRecord(catalog.SourceTMDB, 862, "Toy Story", catalog.TypeMovie)
	first.Score = scorePtr(8.0)
	first.Votes = 18000
	rec, _, err := pipeline.ResolveAndMerge(ctx, first)
	if err != nil {
		t.Fatal(err)
	}

	// Same external id with a retitled entry still resolves by id.
	refresh := sourceRecord(catalog.SourceTMDB, 862, "Toy Story (Remastered)", catalog.TypeMovie)
	refresh.Score = scorePtr(8.1)
	refresh.Votes = 19000
	merged, outcome, err := pipeline.ResolveAndMerge(ctx, refresh)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeMerged || merged.ID != rec.ID {
		t.Fatalf("expected external-id merge into record %d, got %d (%s)", rec.ID, merged.ID, outcome)
	}
	if merged.TMDBScore == nil || *merged.TMDBScore != 8.1 || merged.TMDBVotes != 19000 {
		t.Fatalf("expected refreshed metrics, got %v votes=%d", merged.TMDBScore, merged.TMDBVotes)
	}
}

func TestResolveAndMergeDistinctSequelStaysSeparate(t *testing.T) {
	pipeline, store := newTestPipeline(t)
	ctx := context.Background()

	first := sourceRecord(catalog.SourceTMDB, 862, "Toy Story", catalog.TypeMovie)
	release1995 := time.Date(1995, 11, 22, 0, 0, 0, 0, time.UTC)
	first.ReleaseDate = &release1995
	if _, _, err := pipeline.ResolveAndMerge(ctx, first); err != nil {
		t.Fatal(err)
	}

	sequel := sourceRecord(catalog.SourceMAL, 777, "Toy Story 2", catalog.TypeMovie)
	release1999 := time.Date(1999, 11, 24, 0, 0, 0, 0, time.UTC)
	sequel.ReleaseDate = &release1999

	_, outcome, err := pipeline.ResolveAndMerge(ctx, sequel)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("expected distinct work to create a new record, got %s", outcome)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 {
		t.Fatalf("expected two distinct records, got %d", stats.Total)
	}
}

func TestResolveAndMergeNormalizedTitleMatch(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ctx := context.Background()

	first := sourceRecord(catalog.SourceTMDB, 57041, "Gintama", catalog.TypeTV)
	rec, _, err := pipeline.ResolveAndMerge(ctx, first)
	if err != nil {
		t.Fatal(err)
	}

	second := sourceRecord(catalog.SourceMAL, 918, "Gintama", catalog.TypeTV)
	merged, outcome, err := pipeline.ResolveAndMerge(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeMerged || merged.ID != rec.ID {
		t.Fatalf("expected title match merge, got %s", outcome)
	}
	if merged.Franchise != "Gintama" {
		t.Fatalf("expected franchise stamp from table, got %q", merged.Franchise)
	}
}

func TestResolveAndMergeTypeMismatchCreatesNew(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ctx := context.Background()

	show := sourceRecord(catalog.SourceTMDB, 100, "Parallel Works", catalog.TypeTV)
	if _, _, err := pipeline.ResolveAndMerge(ctx, show); err != nil {
		t.Fatal(err)
	}

	movie := sourceRecord(catalog.SourceMAL, 200, "Parallel Works", catalog.TypeMovie)
	_, outcome, err := pipeline.ResolveAndMerge(ctx, movie)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("expected type mismatch to create a new record, got %s", outcome)
	}
}

func TestResolveAndMergeRejectsMalformedInput(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ctx := context.Background()

	missingTitle := sourceRecord(catalog.SourceTMDB, 1, "   ", catalog.TypeMovie)
	if _, _, err := pipeline.ResolveAndMerge(ctx, missingTitle); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing title, got %v", err)
	}

	badType := sourceRecord(catalog.SourceTMDB, 1, "Something", "short")
	if _, _, err := pipeline.ResolveAndMerge(ctx, badType); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for bad type, got %v", err)
	}
}

func TestResolveAndMergeConcurrentVariantsSerializeOnTarget(t *testing.T) {
	pipeline, store := newTestPipeline(t)
	ctx := context.Background()

	seed := sourceRecord(catalog.SourceTMDB, 85937, "Demon Slayer: Kimetsu no Yaiba", catalog.TypeTV)
	if _, _, err := pipeline.ResolveAndMerge(ctx, seed); err != nil {
		t.Fatal(err)
	}

	// Writers arrive under both title variants, so their identity keys
	// differ while resolving to the same stored record. Each contributes a
	// distinct genre; a lost update would drop one.
	titles := []string{"Demon Slayer", "Demon Slayer: Kimetsu no Yaiba"}
	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		raw := sourceRecord(catalog.SourceMAL, 38000, titles[i%2], catalog.TypeTV)
		raw.Genres = append(raw.Genres, catalog.Genre{Name: fmt.Sprintf("Tag %d", i)})
		wg.Add(1)
		go func(raw catalog.SourceRecord) {
			defer wg.Done()
			if _, _, err := pipeline.ResolveAndMerge(ctx, raw); err != nil {
				errs <- err
			}
		}(raw)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent merge failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected all variants to land on one record, got %d", stats.Total)
	}
	rec, err := store.GetByID(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Seed genre plus one per worker.
	if len(rec.Genres) != workers+1 {
		t.Fatalf("expected %d genres after concurrent merges, got %d", workers+1, len(rec.Genres))
	}
}

func TestResolveAndMergeSameSourceDifferentIDStaysSeparate(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ctx := context.Background()

	if _, _, err := pipeline.ResolveAndMerge(ctx, sourceRecord(catalog.SourceTMDB, 1, "Mirror World", catalog.TypeMovie)); err != nil {
		t.Fatal(err)
	}

	// A same-source record with a different id is a distinct work even when
	// the titles collide.
	_, outcome, err := pipeline.ResolveAndMerge(ctx, sourceRecord(catalog.SourceTMDB, 2, "Mirror World", catalog.TypeMovie))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("expected separate record, got %s", outcome)
	}
}
