package sources

import "strings"

// Genre ids from the general catalog used by the animated-content gate.
const (
	GenreIDAnimation   = 16
	GenreIDFamily      = 10751
	GenreIDDocumentary = 99
	GenreIDNews        = 10763
	GenreIDReality     = 10764
	GenreIDTalk        = 10767
)

var animationKeywords = []string{
	"animation", "animated", "cartoon", "anime", "manga",
	"pixar", "disney", "studio ghibli", "dreamworks",
	"stop-motion", "stop motion", "claymation",
	"cgi", "computer generated", "3d animation", "2d animation",
	"cel animation", "hand-drawn", "hand drawn",
	"motion capture", "rotoscoping", "puppet", "marionette",
	"cutout animation", "flash animation", "toon", "toons",
}

var liveActionKeywords = []string{
	"live action", "live-action", "documentary", "reality", "news",
	"talk show", "game show", "sports", "concert",
	"stand-up", "stand up", "comedy special",
	"biography", "biopic", "true story", "based on true events",
	"real life", "actual footage", "found footage",
	"retrospective", "behind the scenes", "making of", "interview",
}

// strongAnimationKeywords gate Family-genre entries that lack other signals.
var strongAnimationKeywords = []string{
	"disney", "pixar", "dreamworks", "studio ghibli", "cartoon", "anime",
}

// IsAnimated decides whether a general-catalog entry is animated content.
// The Animation genre is decisive; documentary, reality, news, and talk
// entries are excluded outright; otherwise keyword heuristics over the
// title, original title, and overview text decide, with Family-genre entries
// held to the stricter keyword list.
func IsAnimated(genreIDs []int64, texts ...string) bool {
	if hasGenre(genreIDs, GenreIDAnimation) {
		return true
	}
	if hasGenre(genreIDs, GenreIDDocumentary) ||
		hasGenre(genreIDs, GenreIDReality) ||
		hasGenre(genreIDs, GenreIDNews) ||
		hasGenre(genreIDs, GenreIDTalk) {
		return false
	}

	text := strings.ToLower(strings.Join(texts, " "))
	if containsAny(text, liveActionKeywords) {
		return false
	}
	if containsAny(text, animationKeywords) {
		return true
	}
	if hasGenre(genreIDs, GenreIDFamily) {
		return containsAny(text, strongAnimationKeywords)
	}
	return false
}

func hasGenre(ids []int64, want int64) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
