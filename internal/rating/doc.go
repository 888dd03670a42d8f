// Package rating blends the two catalogs' independently-scaled scores into a
// single unified score using log-weighted vote counts.
package rating
