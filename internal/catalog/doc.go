// Package catalog defines the unified content data model and its SQLite
// persistence.
//
// A ContentRecord is the single stored representation of one animated work,
// regardless of how many external catalogs describe it. The store provides the
// keyed lookups the resolution pipeline needs (by external ID, by title
// pattern) plus aggregate statistics over single- and multi-source records.
package catalog
