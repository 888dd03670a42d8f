package sources

import (
	"context"

	"toondex/internal/catalog"
)

// Source is one external catalog producing paged, already-projected records.
// FetchPage reports whether more pages remain after the requested one. Pacing
// between pages belongs to the ingestion driver, not the source.
type Source interface {
	Tag() catalog.SourceTag
	FetchPage(ctx context.Context, page, pageSize int) ([]catalog.SourceRecord, bool, error)
}
