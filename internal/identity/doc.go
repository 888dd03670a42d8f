// Package identity implements the resolution core that decides whether an
// incoming source record is the same work as a stored catalog record, and
// merges it when it is.
//
// The pipeline is: normalize the title to a comparable base form, score title
// similarity with a fuzzy match, then validate the candidate with secondary
// signals (type, year, genres, episode count, runtime). A validated match is
// applied by the Merger, which unions set-valued fields, applies
// source-priority rules for scalars, and recomputes the unified score.
package identity
