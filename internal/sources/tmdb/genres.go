package tmdb

import "toondex/internal/catalog"

// genreNames maps the catalog's numeric genre ids to display names, covering
// both the movie and TV taxonomies.
var genreNames = map[int64]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
	10759: "Action & Adventure",
	10762: "Kids",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
}

// convertGenreIDs maps genre ids to named genres. The Animation genre is
// dropped: every stored record is animated, so carrying it adds nothing.
func convertGenreIDs(ids []int64) []catalog.Genre {
	out := make([]catalog.Genre, 0, len(ids))
	for _, id := range ids {
		name, ok := genreNames[id]
		if !ok || name == "Animation" {
			continue
		}
		out = append(out, catalog.Genre{ID: id, Name: name})
	}
	return out
}
