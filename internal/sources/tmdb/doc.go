// Package tmdb adapts the general movie/TV catalog into the common source
// record shape, filtering for animated content at the boundary.
package tmdb
