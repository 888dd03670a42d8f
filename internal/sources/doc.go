// Package sources defines the adapter boundary between external catalogs and
// the merge pipeline. Each client projects its catalog's raw entries into the
// common catalog.SourceRecord shape and filters out non-animated content
// before anything reaches identity resolution.
package sources
