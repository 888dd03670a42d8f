package franchise

import (
	"context"

	"toondex/internal/catalog"
	"toondex/internal/logging"
)

// Relation is one structured relationship entry from the anime catalog.
type Relation struct {
	MALID int64
	Type  string
}

// ExternalLookup fetches structured related-anime data for a MAL id. The mal
// source client satisfies it.
type ExternalLookup interface {
	RelatedAnime(ctx context.Context, malID int64) ([]Relation, error)
}

// fromExternal imports structured relationship data for records known to the
// anime catalog. Any failure here degrades to the next strategy: external
// lookups are a best-effort enrichment, never a hard dependency.
func (r *Resolver) fromExternal(ctx context.Context, rec *catalog.ContentRecord) (Result, bool) {
	if r.external == nil || rec.MALID == nil {
		return Result{}, false
	}

	relations, err := r.external.RelatedAnime(ctx, *rec.MALID)
	if err != nil {
		r.logger.Warn("related anime lookup failed",
			logging.Int64(logging.FieldContentID, rec.ID),
			logging.Int64("mal_id", *rec.MALID),
			logging.Error(err))
		return Result{}, false
	}
	if len(relations) == 0 {
		return Result{}, false
	}

	var result Result
	for _, relation := range relations {
		sibling, err := r.store.FindByExternalID(ctx, catalog.SourceMAL, relation.MALID)
		if err != nil {
			// Not ingested yet, or a transient store failure: skip the link.
			continue
		}
		switch relation.Type {
		case "sequel":
			result.Sequels = append(result.Sequels, sibling)
		case "prequel":
			result.Prequels = append(result.Prequels, sibling)
		default:
			result.Related = append(result.Related, sibling)
		}
	}
	if result.Empty() {
		return Result{}, false
	}

	r.persistLinks(ctx, rec, result)
	return result, true
}
