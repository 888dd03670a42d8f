package identity

import (
	"testing"
	"time"

	"toondex/internal/catalog"
	"toondex/internal/config"
	"toondex/internal/logging"
)

func newTestChecker() *Checker {
	return NewChecker(config.Default().Matching, logging.NewNop())
}

func yearDate(year int) *time.Time {
	d := time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

func genres(names ...string) []catalog.Genre {
	out := make([]catalog.Genre, len(names))
	for i, n := range names {
		out[i] = catalog.Genre{Name: n}
	}
	return out
}

func TestValidateRejectsTypeMismatch(t *testing.T) {
	checker := newTestChecker()
	incoming := catalog.SourceRecord{
		Title:       "Demon Slayer",
		ContentType: catalog.TypeMovie,
		ReleaseDate: yearDate(2019),
		Genres:      genres("Action"),
	}
	existing := &catalog.ContentRecord{
		Title:       "Demon Slayer",
		ContentType: catalog.TypeTV,
		ReleaseDate: yearDate(2019),
		Genres:      genres("Action"),
	}
	ok, reason := checker.Validate(incoming, existing)
	if ok || reason != ReasonTypeMismatch {
		t.Fatalf("expected type mismatch rejection, got ok=%v reason=%q", ok, reason)
	}
}

func TestValidateYearSkew(t *testing.T) {
	checker := newTestChecker()
	cases := []struct {
		name         string
		contentType  catalog.ContentType
		inYear, exYr int
		want         bool
	}{
		{"movie within skew", catalog.TypeMovie, 1995, 1996, true},
		{"movie beyond skew", catalog.TypeMovie, 1995, 1999, false},
		{"tv within skew", catalog.TypeTV, 2019, 2021, true},
		{"tv beyond skew", catalog.TypeTV, 2019, 2022, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			incoming := catalog.SourceRecord{
				Title:       "X",
				ContentType: tc.contentType,
				ReleaseDate: yearDate(tc.inYear),
				Genres:      genres("Action"),
			}
			existing := &catalog.ContentRecord{
				Title:       "X",
				ContentType: tc.contentType,
				ReleaseDate: yearDate(tc.exYr),
				Genres:      genres("Action"),
			}
			ok, reason := checker.Validate(incoming, existing)
			if ok != tc.want {
				t.Fatalf("expected ok=%v, got ok=%v reason=%q", tc.want, ok, reason)
			}
		})
	}
}

func TestValidateRequiresSharedGenre(t *testing.T) {
	checker := newTestChecker()
	incoming := catalog.SourceRecord{
		Title:       "X",
		ContentType: catalog.TypeMovie,
		Genres:      genres("Comedy"),
	}
	existing := &catalog.ContentRecord{
		Title:       "X",
		ContentType: catalog.TypeMovie,
		Genres:      genres("Horror"),
	}
	ok, reason := checker.Validate(incoming, existing)
	if ok || reason != ReasonNoSharedGenre {
		t.Fatalf("expected genre rejection, got ok=%v reason=%q", ok, reason)
	}

	incoming.Genres = genres("HORROR", "Comedy")
	if ok, _ := checker.Validate(incoming, existing); !ok {
		t.Fatal("expected case-insensitive genre overlap to pass")
	}
}

func TestValidateEpisodeAndRuntimeSkew(t *testing.T) {
	checker := newTestChecker()

	tvIncoming := catalog.SourceRecord{
		Title: "X", ContentType: catalog.TypeTV, EpisodeCount: 12, Genres: genres("Action"),
	}
	tvExisting := &catalog.ContentRecord{
		Title: "X", ContentType: catalog.TypeTV, EpisodeCount: 26, Genres: genres("Action"),
	}
	if ok, reason := checker.Validate(tvIncoming, tvExisting); ok || reason != ReasonEpisodeSkew {
		t.Fatalf("expected episode skew rejection, got ok=%v reason=%q", ok, reason)
	}

	movieIncoming := catalog.SourceRecord{
		Title: "Y", ContentType: catalog.TypeMovie, Runtime: 90, Genres: genres("Action"),
	}
	movieExisting := &catalog.ContentRecord{
		Title: "Y", ContentType: catalog.TypeMovie, Runtime: 150, Genres: genres("Action"),
	}
	if ok, reason := checker.Validate(movieIncoming, movieExisting); ok || reason != ReasonRuntimeSkew {
		t.Fatalf("expected runtime skew rejection, got ok=%v reason=%q", ok, reason)
	}
}

func TestValidateMissingDataDoesNotBlock(t *testing.T) {
	checker := newTestChecker()
	incoming := catalog.SourceRecord{
		Title:       "Sparse",
		ContentType: catalog.TypeTV,
		Genres:      genres("Action"),
	}
	existing := &catalog.ContentRecord{
		Title:        "Sparse",
		ContentType:  catalog.TypeTV,
		ReleaseDate:  yearDate(2015),
		EpisodeCount: 24,
		Genres:       genres("Action"),
	}
	if ok, reason := checker.Validate(incoming, existing); !ok {
		t.Fatalf("expected sparse record to pass, got reason=%q", reason)
	}

	// Missing genres on one side skips the genre rule entirely.
	incoming.Genres = nil
	if ok, reason := checker.Validate(incoming, existing); !ok {
		t.Fatalf("expected missing genres to pass, got reason=%q", reason)
	}
}

func TestValidateTightenedTolerances(t *testing.T) {
	tolerances := config.Default().Matching
	tolerances.MovieYearSkew = 0
	checker := NewChecker(tolerances, logging.NewNop())

	incoming := catalog.SourceRecord{
		Title: "X", ContentType: catalog.TypeMovie, ReleaseDate: yearDate(1995), Genres: genres("Action"),
	}
	existing := &catalog.ContentRecord{
		Title: "X", ContentType: catalog.TypeMovie, ReleaseDate: yearDate(1996), Genres: genres("Action"),
	}
	if ok, _ := checker.Validate(incoming, existing); ok {
		t.Fatal("expected zero skew tolerance to reject a one-year difference")
	}
}
