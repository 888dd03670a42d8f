package identity

import (
	"testing"
	"time"

	"toondex/internal/catalog"
	"toondex/internal/logging"
)

func scorePtr(v float64) *float64 { return &v }

func tmdbRecord() *catalog.ContentRecord {
	id := int64(85937)
	score := 8.5
	return &catalog.ContentRecord{
		ID:          1,
		Title:       "Demon Slayer",
		Overview:    "A boy joins the demon slayer corps.",
		ContentType: catalog.TypeTV,
		TMDBID:      &id,
		TMDBScore:   &score,
		TMDBVotes:   1000,
		Genres:      []catalog.Genre{{Name: "Action"}},
		Studios:     []string{"ufotable"},
	}
}

func malIncoming() catalog.SourceRecord {
	return catalog.SourceRecord{
		Source:        catalog.SourceMAL,
		ExternalID:    38000,
		Title:         "Kimetsu no Yaiba",
		OriginalTitle: "鬼滅の刃",
		Overview:      "An anime adaptation of the manga.",
		ContentType:   catalog.TypeTV,
		Genres:        []catalog.Genre{{Name: "action"}, {Name: "Fantasy"}},
		Studios:       []string{"Ufotable"},
		Score:         scorePtr(8.7),
		Votes:         200000,
	}
}

func TestApplySetsExternalIDOnce(t *testing.T) {
	merger := NewMerger(logging.NewNop())
	rec := tmdbRecord()
	merger.Apply(rec, malIncoming())

	if rec.MALID == nil || *rec.MALID != 38000 {
		t.Fatalf("expected mal id 38000, got %v", rec.MALID)
	}

	second := malIncoming()
	second.ExternalID = 99999
	merger.Apply(rec, second)
	if *rec.MALID != 38000 {
		t.Fatalf("expected mal id to be set-once, got %d", *rec.MALID)
	}
}

func TestApplyUnionsAreIdempotent(t *testing.T) {
	merger := NewMerger(logging.NewNop())
	rec := tmdbRecord()

	merger.Apply(rec, malIncoming())
	merger.Apply(rec, malIncoming())

	if len(rec.Genres) != 2 {
		t.Fatalf("expected 2 genres after repeated merge, got %v", rec.Genres)
	}
	if len(rec.Studios) != 1 {
		t.Fatalf("expected case-insensitive studio dedupe, got %v", rec.Studios)
	}
}

func TestApplyAnimePriorityOverwritesScalars(t *testing.T) {
	merger := NewMerger(logging.NewNop())
	rec := tmdbRecord()
	merger.Apply(rec, malIncoming())

	if rec.Title != "Kimetsu no Yaiba" {
		t.Fatalf("expected anime-sourced title to win, got %q", rec.Title)
	}
	if rec.Overview != "An anime adaptation of the manga." {
		t.Fatalf("expected anime-sourced overview to win, got %q", rec.Overview)
	}
}

func TestApplyNonAnimeKeepsFirstSeenScalars(t *testing.T) {
	merger := NewMerger(logging.NewNop())
	rec := &catalog.ContentRecord{
		ID:          2,
		Title:       "Toy Story",
		Overview:    "Toys come to life.",
		ContentType: catalog.TypeMovie,
		Genres:      []catalog.Genre{{Name: "Family"}},
	}
	incoming := catalog.SourceRecord{
		Source:      catalog.SourceTMDB,
		ExternalID:  862,
		Title:       "Toy Story (1995)",
		Overview:    "",
		ContentType: catalog.TypeMovie,
		PosterPath:  "/poster.jpg",
	}
	merger.Apply(rec, incoming)

	if rec.Title != "Toy Story" {
		t.Fatalf("expected first-seen title retained, got %q", rec.Title)
	}
	if rec.PosterPath != "/poster.jpg" {
		t.Fatalf("expected blank poster filled, got %q", rec.PosterPath)
	}
}

func TestApplyRecomputesUnifiedScore(t *testing.T) {
	merger := NewMerger(logging.NewNop())
	rec := tmdbRecord()
	merger.Apply(rec, malIncoming())

	if rec.UnifiedScore == nil {
		t.Fatal("expected a unified score after merge")
	}
	got := *rec.UnifiedScore
	if got < 8.5 || got > 8.7 {
		t.Fatalf("unified score %v outside source bounds", got)
	}
	if 8.7-got >= got-8.5 {
		t.Fatalf("expected score closer to the high-vote side, got %v", got)
	}
}

func TestApplyStampsDataSources(t *testing.T) {
	merger := NewMerger(logging.NewNop())
	merger.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	rec := tmdbRecord()
	merger.Apply(rec, malIncoming())

	presence, ok := rec.DataSources[catalog.SourceMAL]
	if !ok || !presence.HasData {
		t.Fatalf("expected mal presence stamp, got %+v", rec.DataSources)
	}
	if !presence.LastUpdated.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected stamp time %v", presence.LastUpdated)
	}
}

func TestApplySameSourceRefreshesMetrics(t *testing.T) {
	merger := NewMerger(logging.NewNop())
	rec := tmdbRecord()

	refresh := catalog.SourceRecord{
		Source:      catalog.SourceTMDB,
		ExternalID:  85937,
		Title:       "Demon Slayer",
		ContentType: catalog.TypeTV,
		Score:       scorePtr(8.6),
		Votes:       1500,
	}
	merger.Apply(rec, refresh)

	if rec.TMDBScore == nil || *rec.TMDBScore != 8.6 || rec.TMDBVotes != 1500 {
		t.Fatalf("expected refreshed tmdb metrics, got %v votes=%d", rec.TMDBScore, rec.TMDBVotes)
	}
}
