package mal

import (
	"time"

	"toondex/internal/catalog"
)

// movieRuntimeEstimate approximates a film's length when the catalog only
// reports an episode count.
const movieRuntimeEstimate = 24 // minutes per episode

type animeNode struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	MainPicture struct {
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"main_picture"`
	AlternativeTitles struct {
		Synonyms []string `json:"synonyms"`
		En       string   `json:"en"`
		Ja       string   `json:"ja"`
	} `json:"alternative_titles"`
	Synopsis     string   `json:"synopsis"`
	Mean         *float64 `json:"mean"`
	NumListUsers int64    `json:"num_list_users"`
	Popularity   int64    `json:"popularity"`
	NumEpisodes  int      `json:"num_episodes"`
	Status       string   `json:"status"`
	StartSeason  *struct {
		Year   int    `json:"year"`
		Season string `json:"season"`
	} `json:"start_season"`
	Studios []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"studios"`
	Genres []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// convertAnime projects one catalog entry into the common record shape.
// Content type is inferred: exactly one finished episode means a movie. The
// release date resolves a start season to the month that season begins.
func convertAnime(node animeNode) catalog.SourceRecord {
	isMovie := node.NumEpisodes == 1 && node.Status == "finished_airing"
	contentType := catalog.TypeTV
	if isMovie {
		contentType = catalog.TypeMovie
	}

	rec := catalog.SourceRecord{
		Source:        catalog.SourceMAL,
		ExternalID:    node.ID,
		Title:         node.Title,
		OriginalTitle: node.AlternativeTitles.Ja,
		Overview:      node.Synopsis,
		ContentType:   contentType,
		PosterPath:    posterPath(node),
		Genres:        convertGenres(node),
		Studios:       convertStudios(node),
		Votes:         node.NumListUsers,
	}
	if rec.OriginalTitle == "" {
		rec.OriginalTitle = node.AlternativeTitles.En
	}
	if node.Mean != nil {
		score := *node.Mean
		rec.Score = &score
	}

	rec.AlternativeTitles = collectAltTitles(node)

	if node.StartSeason != nil && node.StartSeason.Year > 0 {
		release := time.Date(node.StartSeason.Year, seasonMonth(node.StartSeason.Season), 1, 0, 0, 0, 0, time.UTC)
		rec.ReleaseDate = &release
	}

	if isMovie {
		rec.Runtime = node.NumEpisodes * movieRuntimeEstimate
	} else {
		rec.EpisodeCount = node.NumEpisodes
	}

	// The ranking endpoint reports popularity as a rank (1 is best); flip it
	// so larger still means more popular like the other catalog.
	if node.Popularity > 0 {
		rec.Popularity = 1 / float64(node.Popularity)
	}

	return rec
}

func seasonMonth(season string) time.Month {
	switch season {
	case "winter":
		return time.January
	case "spring":
		return time.April
	case "summer":
		return time.July
	default:
		return time.October
	}
}

func posterPath(node animeNode) string {
	if node.MainPicture.Large != "" {
		return node.MainPicture.Large
	}
	return node.MainPicture.Medium
}

func convertGenres(node animeNode) []catalog.Genre {
	out := make([]catalog.Genre, 0, len(node.Genres))
	for _, g := range node.Genres {
		if g.Name == "" {
			continue
		}
		out = append(out, catalog.Genre{ID: g.ID, Name: g.Name})
	}
	return out
}

func convertStudios(node animeNode) []string {
	out := make([]string, 0, len(node.Studios))
	for _, s := range node.Studios {
		if s.Name == "" {
			continue
		}
		out = append(out, s.Name)
	}
	return out
}

func collectAltTitles(node animeNode) []string {
	var out []string
	if node.AlternativeTitles.En != "" {
		out = append(out, node.AlternativeTitles.En)
	}
	if node.AlternativeTitles.Ja != "" {
		out = append(out, node.AlternativeTitles.Ja)
	}
	for _, synonym := range node.AlternativeTitles.Synonyms {
		if synonym != "" {
			out = append(out, synonym)
		}
	}
	return out
}
