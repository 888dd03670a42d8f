package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ContentType distinguishes movies from series.
type ContentType string

const (
	TypeMovie ContentType = "movie"
	TypeTV    ContentType = "tv"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == TypeMovie || t == TypeTV
}

// SourceTag identifies one of the two external catalogs.
type SourceTag string

const (
	SourceTMDB SourceTag = "tmdb"
	SourceMAL  SourceTag = "mal"
)

// Valid reports whether s is a known source.
func (s SourceTag) Valid() bool {
	return s == SourceTMDB || s == SourceMAL
}

// Genre is a named genre, optionally carrying the external genre id it was
// mapped from. Names are the identity; ids are informational.
type Genre struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// SourcePresence records that a source has contributed data to a record.
type SourcePresence struct {
	HasData     bool      `json:"has_data"`
	LastUpdated time.Time `json:"last_updated"`
}

// Relationships holds references to other stored records by id.
type Relationships struct {
	Sequels  []int64 `json:"sequels,omitempty"`
	Prequels []int64 `json:"prequels,omitempty"`
	Related  []int64 `json:"related,omitempty"`
}

// Empty reports whether no relationship links are present.
func (r Relationships) Empty() bool {
	return len(r.Sequels) == 0 && len(r.Prequels) == 0 && len(r.Related) == 0
}

// ContentRecord is the unit of identity resolution: exactly one record exists
// per distinct work once resolution is correct.
type ContentRecord struct {
	ID                int64
	Key               string
	Title             string
	OriginalTitle     string
	Overview          string
	ContentType       ContentType
	PosterPath        string
	ReleaseDate       *time.Time
	Genres            []Genre
	Studios           []string
	AlternativeTitles []string
	Runtime           int // minutes, movies only
	EpisodeCount      int // series only
	SeasonCount       int
	Popularity        float64
	TMDBID            *int64
	MALID             *int64
	TMDBScore         *float64
	TMDBVotes         int64
	MALScore          *float64
	MALVotes          int64
	UnifiedScore      *float64
	Franchise         string
	Relationships     Relationships
	DataSources       map[SourceTag]SourcePresence
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SourceRecord is the common projected shape of one external catalog entry,
// produced by the source adapters before it enters the merge pipeline.
type SourceRecord struct {
	Source            SourceTag
	ExternalID        int64
	Title             string
	OriginalTitle     string
	Overview          string
	ContentType       ContentType
	PosterPath        string
	ReleaseDate       *time.Time
	Genres            []Genre
	Studios           []string
	AlternativeTitles []string
	Runtime           int
	EpisodeCount      int
	SeasonCount       int
	Score             *float64
	Votes             int64
	Popularity        float64
}

// ReleaseYear returns the record's release year when a release date is known.
func (r *ContentRecord) ReleaseYear() (int, bool) {
	if r.ReleaseDate == nil {
		return 0, false
	}
	return r.ReleaseDate.Year(), true
}

// ReleaseYear returns the incoming record's release year when known.
func (r SourceRecord) ReleaseYear() (int, bool) {
	if r.ReleaseDate == nil {
		return 0, false
	}
	return r.ReleaseDate.Year(), true
}

// ExternalID returns the record's identifier in the given source catalog.
func (r *ContentRecord) ExternalID(source SourceTag) (int64, bool) {
	switch source {
	case SourceTMDB:
		if r.TMDBID != nil {
			return *r.TMDBID, true
		}
	case SourceMAL:
		if r.MALID != nil {
			return *r.MALID, true
		}
	}
	return 0, false
}

// GenreNames returns lowercased genre names for overlap checks.
func (r *ContentRecord) GenreNames() []string {
	return lowerGenreNames(r.Genres)
}

// GenreNames returns lowercased genre names for overlap checks.
func (r SourceRecord) GenreNames() []string {
	return lowerGenreNames(r.Genres)
}

func lowerGenreNames(genres []Genre) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		name := strings.ToLower(strings.TrimSpace(g.Name))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// RecordKey derives the stable internal identity key for a title and content
// type. The key survives punctuation and casing differences between sources
// and is used for per-identity write serialization and cache keys.
func RecordKey(title string, contentType ContentType) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	b.WriteByte('|')
	b.WriteString(string(contentType))
	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}
