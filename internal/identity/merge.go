package identity

import (
	"log/slog"
	"strings"
	"time"

	"toondex/internal/catalog"
	"toondex/internal/logging"
	"toondex/internal/rating"
)

// animeIndicators marks text as anime-flavored. Studio names cover the common
// producers whose titles reach the general catalog without other signals.
var animeIndicators = []string{
	"anime", "manga", "shounen", "shonen", "shoujo", "seinen", "josei",
	"isekai", "mecha", "light novel", "ova",
	"toei animation", "studio ghibli", "madhouse", "bones", "mappa",
	"ufotable", "kyoto animation", "wit studio", "a-1 pictures",
	"studio pierrot", "production i.g", "trigger", "cloverworks",
}

// Merger applies a validated identity match by folding an incoming source
// record into the stored record.
type Merger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewMerger returns a Merger.
func NewMerger(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Merger{logger: logger, now: time.Now}
}

// Apply mutates existing in place with data from incoming. External IDs are
// set once per source, set-valued fields union monotonically, and scalar
// descriptive fields follow the anime-priority rule: for an anime work the
// anime catalog's values win, otherwise first-seen values are kept and only
// blanks are filled. The unified score is recomputed last.
func (m *Merger) Apply(existing *catalog.ContentRecord, incoming catalog.SourceRecord) {
	m.assignExternalID(existing, incoming)
	m.refreshScores(existing, incoming)

	existing.Genres = unionGenres(existing.Genres, incoming.Genres)
	existing.Studios = unionStrings(existing.Studios, incoming.Studios)
	existing.AlternativeTitles = unionStrings(existing.AlternativeTitles, incoming.AlternativeTitles)

	overwrite := incoming.Source == catalog.SourceMAL && isAnimeWork(existing, incoming)
	mergeScalars(existing, incoming, overwrite)

	if existing.DataSources == nil {
		existing.DataSources = make(map[catalog.SourceTag]catalog.SourcePresence)
	}
	existing.DataSources[incoming.Source] = catalog.SourcePresence{
		HasData:     true,
		LastUpdated: m.now().UTC(),
	}

	m.recomputeUnified(existing)

	m.logger.Debug("record merged",
		logging.String(logging.FieldSource, string(incoming.Source)),
		logging.Int64(logging.FieldContentID, existing.ID),
		logging.String(logging.FieldTitle, existing.Title),
		logging.Bool("anime_priority", overwrite))
}

func (m *Merger) assignExternalID(existing *catalog.ContentRecord, incoming catalog.SourceRecord) {
	switch incoming.Source {
	case catalog.SourceTMDB:
		if existing.TMDBID == nil {
			id := incoming.ExternalID
			existing.TMDBID = &id
		}
	case catalog.SourceMAL:
		if existing.MALID == nil {
			id := incoming.ExternalID
			existing.MALID = &id
		}
	}
}

// refreshScores always takes the incoming source's own metrics: a later record
// from the same source is a refresh of that source's rating.
func (m *Merger) refreshScores(existing *catalog.ContentRecord, incoming catalog.SourceRecord) {
	switch incoming.Source {
	case catalog.SourceTMDB:
		if incoming.Score != nil {
			v := *incoming.Score
			existing.TMDBScore = &v
			existing.TMDBVotes = incoming.Votes
		}
	case catalog.SourceMAL:
		if incoming.Score != nil {
			v := *incoming.Score
			existing.MALScore = &v
			existing.MALVotes = incoming.Votes
		}
	}
}

func mergeScalars(existing *catalog.ContentRecord, incoming catalog.SourceRecord, overwrite bool) {
	existing.Title = pickString(existing.Title, incoming.Title, overwrite)
	existing.OriginalTitle = pickString(existing.OriginalTitle, incoming.OriginalTitle, overwrite)
	existing.Overview = pickString(existing.Overview, incoming.Overview, overwrite)
	existing.PosterPath = pickString(existing.PosterPath, incoming.PosterPath, overwrite)

	if incoming.ReleaseDate != nil && (overwrite || existing.ReleaseDate == nil) {
		d := *incoming.ReleaseDate
		existing.ReleaseDate = &d
	}
	if incoming.Runtime > 0 && (overwrite || existing.Runtime == 0) {
		existing.Runtime = incoming.Runtime
	}
	if incoming.EpisodeCount > 0 && (overwrite || existing.EpisodeCount == 0) {
		existing.EpisodeCount = incoming.EpisodeCount
	}
	if incoming.SeasonCount > 0 && (overwrite || existing.SeasonCount == 0) {
		existing.SeasonCount = incoming.SeasonCount
	}
	if incoming.Popularity > existing.Popularity {
		existing.Popularity = incoming.Popularity
	}
}

func (m *Merger) recomputeUnified(existing *catalog.ContentRecord) {
	var a, b *rating.Sample
	if existing.TMDBScore != nil {
		a = &rating.Sample{Score: *existing.TMDBScore, Votes: existing.TMDBVotes}
	}
	if existing.MALScore != nil {
		b = &rating.Sample{Score: *existing.MALScore, Votes: existing.MALVotes}
	}
	if unified, ok := rating.Unify(a, b); ok {
		existing.UnifiedScore = &unified
	} else {
		existing.UnifiedScore = nil
	}
}

// isAnimeWork applies the anime keyword heuristic over the combined title,
// overview, and studio text of both sides.
func isAnimeWork(existing *catalog.ContentRecord, incoming catalog.SourceRecord) bool {
	var parts []string
	parts = append(parts, existing.Title, existing.OriginalTitle, existing.Overview)
	parts = append(parts, existing.Studios...)
	parts = append(parts, incoming.Title, incoming.OriginalTitle, incoming.Overview)
	parts = append(parts, incoming.Studios...)

	text := strings.ToLower(strings.Join(parts, " "))
	for _, keyword := range animeIndicators {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func pickString(existing, incoming string, overwrite bool) string {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return existing
	}
	if overwrite || strings.TrimSpace(existing) == "" {
		return incoming
	}
	return existing
}

func unionStrings(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := existing
	for _, v := range existing {
		seen[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	for _, v := range incoming {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

func unionGenres(existing, incoming []catalog.Genre) []catalog.Genre {
	seen := make(map[string]struct{}, len(existing))
	out := existing
	for _, g := range existing {
		seen[strings.ToLower(strings.TrimSpace(g.Name))] = struct{}{}
	}
	for _, g := range incoming {
		key := strings.ToLower(strings.TrimSpace(g.Name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, g)
	}
	return out
}
