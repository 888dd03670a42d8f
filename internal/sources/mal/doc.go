// Package mal adapts the anime-specialized catalog. Entries come from the
// ranking endpoint and carry no movie/TV distinction, so the adapter infers
// it: a single finished episode is a movie, anything else a series. It also
// exposes the catalog's structured related-anime data for relationship
// resolution.
package mal
