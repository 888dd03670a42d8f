package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"toondex/internal/catalog"
	"toondex/internal/identity"
	"toondex/internal/logging"
	"toondex/internal/services"
)

// Relevance weights. Containment on the display title outranks the original
// title, which outranks overview text; a genre hit sits between the two
// title signals.
const (
	weightTitle         = 10.0
	weightOriginalTitle = 8.0
	weightOverview      = 3.0
	weightGenre         = 5.0
	weightFuzzy         = 4.0
	ratingDivisor       = 10.0
)

// SortOrder selects how results are ordered.
type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortRating    SortOrder = "rating"
	SortYear      SortOrder = "year"
	SortTitle     SortOrder = "title"
)

const defaultLimit = 20

// Options narrows and orders a search. The zero value means both content
// types, no filters, relevance order, and the default result cap.
type Options struct {
	ContentType catalog.ContentType
	Genre       string
	MinRating   float64
	MaxRating   float64
	Year        int
	Sort        SortOrder
	Limit       int
}

// Result pairs a record with its computed relevance.
type Result struct {
	Record    *catalog.ContentRecord
	Relevance float64
}

// Store is the catalog access the searcher needs.
type Store interface {
	FindByTitleContains(ctx context.Context, fragment string, contentType catalog.ContentType, excludeID int64, limit int) ([]*catalog.ContentRecord, error)
}

// Searcher looks up and ranks stored records.
type Searcher struct {
	store  Store
	logger *slog.Logger
}

func NewSearcher(store Store, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Searcher{store: store, logger: logging.NewComponentLogger(logger, "search")}
}

// Search finds records matching query, deduplicates across content types,
// applies the option filters, and returns them in the requested order.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "search", "search",
			"search query is empty", nil)
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}

	types := []catalog.ContentType{catalog.TypeMovie, catalog.TypeTV}
	if opts.ContentType.Valid() {
		types = []catalog.ContentType{opts.ContentType}
	}

	// Fetch beyond the cap so filters do not starve the result set.
	fetchLimit := opts.Limit * 3

	seen := make(map[int64]struct{})
	var results []Result
	for _, contentType := range types {
		records, err := s.store.FindByTitleContains(ctx, query, contentType, 0, fetchLimit)
		if err != nil {
			return nil, services.Wrap(services.ErrStore, "search", "search",
				"find by title", err)
		}
		for _, rec := range records {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			if !matchesFilters(rec, opts) {
				continue
			}
			results = append(results, Result{Record: rec, Relevance: Relevance(rec, query)})
		}
	}

	sortResults(results, opts.Sort)
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	s.logger.Debug("search completed",
		logging.String("query", query),
		logging.Int("results", len(results)))
	return results, nil
}

// Relevance scores a record against a query. Higher is more relevant.
func Relevance(rec *catalog.ContentRecord, query string) float64 {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return 0
	}

	score := 0.0
	if strings.Contains(strings.ToLower(rec.Title), needle) {
		score += weightTitle
	}
	if rec.OriginalTitle != "" && strings.Contains(strings.ToLower(rec.OriginalTitle), needle) {
		score += weightOriginalTitle
	}
	if rec.Overview != "" && strings.Contains(strings.ToLower(rec.Overview), needle) {
		score += weightOverview
	}
	for _, genre := range rec.Genres {
		if strings.Contains(strings.ToLower(genre.Name), needle) {
			score += weightGenre
			break
		}
	}
	score += identity.Similarity(rec.Title, query) * weightFuzzy
	if rating, ok := bestRating(rec); ok {
		score += rating / ratingDivisor
	}
	return score
}

// bestRating prefers the unified score, then either source score.
func bestRating(rec *catalog.ContentRecord) (float64, bool) {
	for _, candidate := range []*float64{rec.UnifiedScore, rec.MALScore, rec.TMDBScore} {
		if candidate != nil {
			return *candidate, true
		}
	}
	return 0, false
}

func matchesFilters(rec *catalog.ContentRecord, opts Options) bool {
	if opts.Genre != "" {
		found := false
		for _, genre := range rec.Genres {
			if strings.EqualFold(genre.Name, opts.Genre) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if opts.MinRating > 0 || opts.MaxRating > 0 {
		rating, ok := bestRating(rec)
		if !ok {
			return false
		}
		if opts.MinRating > 0 && rating < opts.MinRating {
			return false
		}
		if opts.MaxRating > 0 && rating > opts.MaxRating {
			return false
		}
	}

	if opts.Year > 0 {
		year, ok := rec.ReleaseYear()
		if !ok || year != opts.Year {
			return false
		}
	}
	return true
}

func sortResults(results []Result, order SortOrder) {
	switch order {
	case SortRating:
		sort.SliceStable(results, func(i, j int) bool {
			a, _ := bestRating(results[i].Record)
			b, _ := bestRating(results[j].Record)
			return a > b
		})
	case SortYear:
		sort.SliceStable(results, func(i, j int) bool {
			a, aok := results[i].Record.ReleaseYear()
			b, bok := results[j].Record.ReleaseYear()
			if aok != bok {
				return aok
			}
			return a > b
		})
	case SortTitle:
		sort.SliceStable(results, func(i, j int) bool {
			return strings.ToLower(results[i].Record.Title) < strings.ToLower(results[j].Record.Title)
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].Relevance != results[j].Relevance {
				return results[i].Relevance > results[j].Relevance
			}
			return results[i].Record.Popularity > results[j].Record.Popularity
		})
	}
}
