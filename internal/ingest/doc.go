// Package ingest drives batch ingestion: it pulls paged records from the
// external catalogs, runs each through identity resolution, and inserts or
// merges into the catalog store. Per-record failures are counted, never
// fatal; a run always makes whatever partial progress it can.
package ingest
