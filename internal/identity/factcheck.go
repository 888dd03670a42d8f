package identity

import (
	"log/slog"

	"toondex/internal/catalog"
	"toondex/internal/config"
	"toondex/internal/logging"
)

// Rejection reason tags, surfaced to logs only.
const (
	ReasonTypeMismatch  = "content_type_mismatch"
	ReasonYearSkew      = "release_year_skew"
	ReasonNoSharedGenre = "no_shared_genre"
	ReasonEpisodeSkew   = "episode_count_skew"
	ReasonRuntimeSkew   = "runtime_skew"
)

// Checker validates a proposed identity match using secondary signals. A field
// absent on either side cannot be checked and never blocks the match: with
// sparse metadata the pipeline prefers a merge over a duplicate record. That
// leniency is a tunable policy carried in the matching tolerances, not a hard
// law.
type Checker struct {
	tolerances config.Matching
	logger     *slog.Logger
}

// NewChecker returns a Checker using the given matching tolerances.
func NewChecker(tolerances config.Matching, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Checker{tolerances: tolerances, logger: logger}
}

// Validate reports whether incoming and existing plausibly name the same work.
// All checkable rules must pass. The returned reason tag is empty on
// acceptance.
func (c *Checker) Validate(incoming catalog.SourceRecord, existing *catalog.ContentRecord) (bool, string) {
	reason := c.check(incoming, existing)
	if reason != "" {
		c.logger.Debug("match rejected",
			logging.String(logging.FieldTitle, incoming.Title),
			logging.String(logging.FieldReason, reason),
			logging.Int64(logging.FieldContentID, existing.ID))
		return false, reason
	}
	return true, ""
}

func (c *Checker) check(incoming catalog.SourceRecord, existing *catalog.ContentRecord) string {
	if incoming.ContentType != existing.ContentType {
		return ReasonTypeMismatch
	}

	if inYear, ok := incoming.ReleaseYear(); ok {
		if exYear, ok := existing.ReleaseYear(); ok {
			skew := c.tolerances.MovieYearSkew
			if incoming.ContentType == catalog.TypeTV {
				skew = c.tolerances.TVYearSkew
			}
			if absInt(inYear-exYear) > skew {
				return ReasonYearSkew
			}
		}
	}

	inGenres := incoming.GenreNames()
	exGenres := existing.GenreNames()
	if len(inGenres) > 0 && len(exGenres) > 0 && !sharesAny(inGenres, exGenres) {
		return ReasonNoSharedGenre
	}

	if incoming.ContentType == catalog.TypeTV &&
		incoming.EpisodeCount > 0 && existing.EpisodeCount > 0 &&
		absInt(incoming.EpisodeCount-existing.EpisodeCount) > c.tolerances.EpisodeTolerance {
		return ReasonEpisodeSkew
	}

	if incoming.ContentType == catalog.TypeMovie &&
		incoming.Runtime > 0 && existing.Runtime > 0 &&
		absInt(incoming.Runtime-existing.Runtime) > c.tolerances.RuntimeTolerance {
		return ReasonRuntimeSkew
	}

	return ""
}

func sharesAny(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
