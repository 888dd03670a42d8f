// Package search ranks stored catalog records against a free-text query.
// Relevance blends containment hits on title, original title, overview, and
// genres with a fuzzy title score and a small rating boost, so an exact title
// hit on a well-rated work sorts first without drowning out partial matches.
package search
