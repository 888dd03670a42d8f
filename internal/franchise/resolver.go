package franchise

import (
	"context"
	"fmt"
	"log/slog"

	"toondex/internal/catalog"
	"toondex/internal/identity"
	"toondex/internal/logging"
)

// Strategy tags recorded in logs for each resolution.
const (
	strategyExisting = "existing_links"
	strategyExternal = "external_data"
	strategyTable    = "franchise_table"
	strategyGenre    = "genre_fallback"
	strategyPattern  = "title_pattern"
	strategyNone     = "none"
)

// Fallback tolerance windows for the genre-similarity strategy.
const (
	genreRuntimeWindow = 30 // minutes
	genreEpisodeWindow = 10
)

// Result groups the records related to one content item.
type Result struct {
	Sequels  []*catalog.ContentRecord
	Prequels []*catalog.ContentRecord
	Related  []*catalog.ContentRecord
}

// Empty reports whether the result carries no links at all.
func (r Result) Empty() bool {
	return len(r.Sequels) == 0 && len(r.Prequels) == 0 && len(r.Related) == 0
}

// Store is the catalog access the resolver needs. *catalog.Store satisfies it.
type Store interface {
	GetByID(ctx context.Context, id int64) (*catalog.ContentRecord, error)
	GetMany(ctx context.Context, ids []int64) ([]*catalog.ContentRecord, error)
	FindByExternalID(ctx context.Context, source catalog.SourceTag, externalID int64) (*catalog.ContentRecord, error)
	FindByExternalIDs(ctx context.Context, source catalog.SourceTag, externalIDs []int64) ([]*catalog.ContentRecord, error)
	FindByTitlePrefix(ctx context.Context, prefix string, contentType catalog.ContentType, excludeID int64, limit int) ([]*catalog.ContentRecord, error)
	FindByTitleContains(ctx context.Context, fragment string, contentType catalog.ContentType, excludeID int64, limit int) ([]*catalog.ContentRecord, error)
	ListByTypeRanked(ctx context.Context, contentType catalog.ContentType, excludeID int64, limit int) ([]*catalog.ContentRecord, error)
	Update(ctx context.Context, rec *catalog.ContentRecord) error
}

// Resolver finds sequel/prequel/related links for stored records. All state
// is injected; the resolver holds no ambient globals.
type Resolver struct {
	store        Store
	table        *Table
	cache        *Cache
	external     ExternalLookup // optional
	relatedLimit int
	logger       *slog.Logger
}

// NewResolver returns a Resolver. external may be nil when no structured
// relationship source is configured.
func NewResolver(store Store, table *Table, cache *Cache, external ExternalLookup, relatedLimit int, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	if relatedLimit <= 0 {
		relatedLimit = 6
	}
	return &Resolver{
		store:        store,
		table:        table,
		cache:        cache,
		external:     external,
		relatedLimit: relatedLimit,
		logger:       logger,
	}
}

// Invalidate drops a content id from the result cache.
func (r *Resolver) Invalidate(contentID int64) {
	if r.cache != nil {
		r.cache.Invalidate(contentID)
	}
}

// ClearCache drops all cached results.
func (r *Resolver) ClearCache() {
	if r.cache != nil {
		r.cache.Clear()
	}
}

// Resolve returns the relationship links for a content id, consulting the
// cache first and trying each resolution strategy in priority order.
func (r *Resolver) Resolve(ctx context.Context, contentID int64) (Result, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(contentID); ok {
			return cached, nil
		}
	}

	rec, err := r.store.GetByID(ctx, contentID)
	if err != nil {
		return Result{}, fmt.Errorf("load content %d: %w", contentID, err)
	}

	result, strategy, err := r.resolve(ctx, rec)
	if err != nil {
		return Result{}, err
	}

	r.logger.Debug("relationships resolved",
		logging.Int64(logging.FieldContentID, contentID),
		logging.String(logging.FieldTitle, rec.Title),
		logging.String(logging.FieldStrategy, strategy),
		logging.Int("links", len(result.Sequels)+len(result.Prequels)+len(result.Related)))

	if r.cache != nil {
		r.cache.Set(contentID, result)
	}
	return result, nil
}

func (r *Resolver) resolve(ctx context.Context, rec *catalog.ContentRecord) (Result, string, error) {
	if !rec.Relationships.Empty() {
		result, err := r.fromExisting(ctx, rec)
		if err != nil {
			return Result{}, "", err
		}
		if !result.Empty() {
			return result, strategyExisting, nil
		}
	}

	if result, ok := r.fromExternal(ctx, rec); ok {
		return result, strategyExternal, nil
	}

	if result, ok, err := r.fromTable(ctx, rec); err != nil {
		return Result{}, "", err
	} else if ok {
		return result, strategyTable, nil
	}

	if result, err := r.fromGenres(ctx, rec); err != nil {
		return Result{}, "", err
	} else if !result.Empty() {
		return result, strategyGenre, nil
	}

	if result, err := r.fromTitlePattern(ctx, rec); err != nil {
		return Result{}, "", err
	} else if !result.Empty() {
		return result, strategyPattern, nil
	}

	return Result{}, strategyNone, nil
}

// fromExisting resolves already-persisted link ids to records. Ids pointing
// at deleted records are silently dropped.
func (r *Resolver) fromExisting(ctx context.Context, rec *catalog.ContentRecord) (Result, error) {
	var result Result
	var err error
	if result.Sequels, err = r.store.GetMany(ctx, rec.Relationships.Sequels); err != nil {
		return Result{}, fmt.Errorf("resolve sequels: %w", err)
	}
	if result.Prequels, err = r.store.GetMany(ctx, rec.Relationships.Prequels); err != nil {
		return Result{}, fmt.Errorf("resolve prequels: %w", err)
	}
	if result.Related, err = r.store.GetMany(ctx, rec.Relationships.Related); err != nil {
		return Result{}, fmt.Errorf("resolve related: %w", err)
	}
	return result, nil
}

// fromTable matches the record against the curated franchise table and
// gathers every stored sibling by canonical title or external id. Results are
// cached but not persisted: persisted links come only from structured
// external data, so later-ingested siblings still surface here.
func (r *Resolver) fromTable(ctx context.Context, rec *catalog.ContentRecord) (Result, bool, error) {
	if r.table == nil {
		return Result{}, false, nil
	}
	f, ok := r.table.Match(rec.Title)
	if !ok {
		return Result{}, false, nil
	}

	seen := map[int64]struct{}{rec.ID: {}}
	var siblings []*catalog.ContentRecord

	collect := func(records []*catalog.ContentRecord, err error) error {
		if err != nil {
			return err
		}
		for _, candidate := range records {
			if _, dup := seen[candidate.ID]; dup {
				continue
			}
			seen[candidate.ID] = struct{}{}
			siblings = append(siblings, candidate)
		}
		return nil
	}

	if len(f.TMDBIDs) > 0 {
		records, err := r.store.FindByExternalIDs(ctx, catalog.SourceTMDB, f.TMDBIDs)
		if err := collect(records, err); err != nil {
			return Result{}, false, fmt.Errorf("franchise %s tmdb lookup: %w", f.Name, err)
		}
	}
	if len(f.MALIDs) > 0 {
		records, err := r.store.FindByExternalIDs(ctx, catalog.SourceMAL, f.MALIDs)
		if err := collect(records, err); err != nil {
			return Result{}, false, fmt.Errorf("franchise %s mal lookup: %w", f.Name, err)
		}
	}
	for _, title := range f.Titles {
		records, err := r.store.FindByTitleContains(ctx, title, rec.ContentType, rec.ID, 20)
		if err := collect(records, err); err != nil {
			return Result{}, false, fmt.Errorf("franchise %s title lookup: %w", f.Name, err)
		}
	}

	result := categorize(rec, siblings)
	return result, !result.Empty(), nil
}

// fromGenres returns same-type records sharing a genre within a runtime or
// episode-count window, ranked by unified score then popularity. These are
// loose recommendations, tagged related only, and are not persisted.
func (r *Resolver) fromGenres(ctx context.Context, rec *catalog.ContentRecord) (Result, error) {
	genres := rec.GenreNames()
	if len(genres) == 0 {
		return Result{}, nil
	}

	candidates, err := r.store.ListByTypeRanked(ctx, rec.ContentType, rec.ID, r.relatedLimit*10)
	if err != nil {
		return Result{}, fmt.Errorf("genre fallback: %w", err)
	}

	var related []*catalog.ContentRecord
	for _, candidate := range candidates {
		if !sharesGenre(genres, candidate.GenreNames()) {
			continue
		}
		if rec.Runtime > 0 && candidate.Runtime > 0 &&
			abs(rec.Runtime-candidate.Runtime) > genreRuntimeWindow {
			continue
		}
		if rec.EpisodeCount > 0 && candidate.EpisodeCount > 0 &&
			abs(rec.EpisodeCount-candidate.EpisodeCount) > genreEpisodeWindow {
			continue
		}
		related = append(related, candidate)
		if len(related) >= r.relatedLimit {
			break
		}
	}
	return Result{Related: related}, nil
}

// fromTitlePattern is the last resort: find records sharing the normalized
// base title and categorize them by release year.
func (r *Resolver) fromTitlePattern(ctx context.Context, rec *catalog.ContentRecord) (Result, error) {
	base := identity.Normalize(rec.Title)
	if base == "" {
		return Result{}, nil
	}

	matches, err := r.store.FindByTitlePrefix(ctx, base, rec.ContentType, rec.ID, 10)
	if err != nil {
		return Result{}, fmt.Errorf("title pattern fallback: %w", err)
	}
	return categorize(rec, matches), nil
}

// persistLinks writes structured relationship links back onto the record so
// later resolutions take the fast path. Persistence failures are logged and
// swallowed: the resolution result is still valid for this call.
func (r *Resolver) persistLinks(ctx context.Context, rec *catalog.ContentRecord, result Result) {
	rec.Relationships = catalog.Relationships{
		Sequels:  recordIDs(result.Sequels),
		Prequels: recordIDs(result.Prequels),
		Related:  recordIDs(result.Related),
	}
	if err := r.store.Update(ctx, rec); err != nil {
		r.logger.Warn("failed to persist relationship links",
			logging.Int64(logging.FieldContentID, rec.ID),
			logging.Error(err))
	}
}

// categorize splits siblings by release-year comparison: strictly newer is a
// sequel, strictly older a prequel, anything else related. Non-linear
// franchise entries (side stories, late-released prequels) are knowingly
// mislabeled by this heuristic.
func categorize(rec *catalog.ContentRecord, siblings []*catalog.ContentRecord) Result {
	var result Result
	baseYear, baseKnown := rec.ReleaseYear()
	for _, sibling := range siblings {
		year, known := sibling.ReleaseYear()
		switch {
		case !baseKnown || !known || year == baseYear:
			result.Related = append(result.Related, sibling)
		case year > baseYear:
			result.Sequels = append(result.Sequels, sibling)
		default:
			result.Prequels = append(result.Prequels, sibling)
		}
	}
	return result
}

func recordIDs(records []*catalog.ContentRecord) []int64 {
	if len(records) == 0 {
		return nil
	}
	ids := make([]int64, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids
}

func sharesGenre(a, b []string) bool {
	for _, ga := range a {
		for _, gb := range b {
			if ga == gb {
				return true
			}
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
