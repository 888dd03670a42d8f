// Package franchise resolves sequel, prequel, and related links between
// stored catalog records.
//
// Resolution tries strategies in priority order and stops at the first
// non-empty result: links already persisted on the record, structured
// related-anime data from the anime catalog, the curated franchise table,
// a genre-similarity fallback, and finally a shared-base-title fallback.
// Results are cached in process with a fixed TTL.
package franchise
