package ingest

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"toondex/internal/catalog"
	"toondex/internal/config"
	"toondex/internal/franchise"
	"toondex/internal/identity"
	"toondex/internal/logging"
	"toondex/internal/services"
)

// Outcome reports what ResolveAndMerge did with a record.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeMerged  Outcome = "merged"
)

// Match reason tags carried by MatchCandidate.
const (
	MatchReasonExternalID = "external_id"
	MatchReasonTitle      = "title_match"
)

// MatchCandidate is a proposed identity link between an incoming record and a
// stored one. It is transient: the fact checker accepts or rejects it, and
// nothing beyond the reason tag is retained.
type MatchCandidate struct {
	Record *catalog.ContentRecord
	Reason string
	Score  float64
}

// candidateLimit bounds how many stored records are fuzzy-scored per lookup.
const candidateLimit = 10

// Store is the catalog access the pipeline needs. *catalog.Store satisfies it.
type Store interface {
	Insert(ctx context.Context, rec *catalog.ContentRecord) error
	Update(ctx context.Context, rec *catalog.ContentRecord) error
	FindByExternalID(ctx context.Context, source catalog.SourceTag, externalID int64) (*catalog.ContentRecord, error)
	FindByTitlePrefix(ctx context.Context, prefix string, contentType catalog.ContentType, excludeID int64, limit int) ([]*catalog.ContentRecord, error)
}

// Pipeline is the insert-or-merge entry point for incoming source records.
type Pipeline struct {
	store    Store
	checker  *identity.Checker
	merger   *identity.Merger
	table    *franchise.Table
	locks    *keyLock
	matching config.Matching
	logger   *slog.Logger
}

// NewPipeline wires the resolution core. table may be nil when no franchise
// stamping is wanted.
func NewPipeline(store Store, matching config.Matching, table *franchise.Table, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "pipeline")
	return &Pipeline{
		store:    store,
		checker:  identity.NewChecker(matching, logger),
		merger:   identity.NewMerger(logger),
		table:    table,
		locks:    newKeyLock(),
		matching: matching,
		logger:   logger,
	}
}

// ResolveAndMerge either merges the incoming record into the stored record it
// resolves to, or inserts a new one. Writes for the same identity are
// serialized; records for different works proceed concurrently.
func (p *Pipeline) ResolveAndMerge(ctx context.Context, raw catalog.SourceRecord) (*catalog.ContentRecord, Outcome, error) {
	if strings.TrimSpace(raw.Title) == "" {
		return nil, "", services.Wrap(services.ErrValidation, "pipeline", "resolve",
			"source record has no title", nil)
	}
	if !raw.ContentType.Valid() {
		return nil, "", services.Wrap(services.ErrValidation, "pipeline", "resolve",
			"source record has invalid content type "+string(raw.ContentType), nil)
	}
	if !raw.Source.Valid() {
		return nil, "", services.Wrap(services.ErrValidation, "pipeline", "resolve",
			"unknown source tag "+string(raw.Source), nil)
	}

	key := catalog.RecordKey(identity.Normalize(raw.Title), raw.ContentType)

	// Writes are serialized per target identity. A fuzzy match can land on a
	// record stored under a different key than the incoming title's, so the
	// target's key is taken as well and the match re-resolved once both are
	// held. Keys only accumulate, so the loop settles after one retry in
	// practice.
	held := []string{key}
	var candidate *MatchCandidate
	for {
		p.locks.LockAll(held)
		var err error
		candidate, err = p.findMatch(ctx, raw)
		if err != nil {
			p.locks.UnlockAll(held)
			return nil, "", err
		}
		target := key
		if candidate != nil {
			target = candidate.Record.Key
		}
		if slices.Contains(held, target) {
			break
		}
		p.locks.UnlockAll(held)
		held = append(held, target)
	}
	defer p.locks.UnlockAll(held)

	if candidate != nil {
		rec := candidate.Record
		p.merger.Apply(rec, raw)
		p.stampFranchise(rec, raw)
		if err := p.store.Update(ctx, rec); err != nil {
			return nil, "", services.Wrap(services.ErrStore, "pipeline", "merge",
				"update record "+rec.Title, err)
		}
		p.logger.Debug("record resolved",
			logging.String(logging.FieldSource, string(raw.Source)),
			logging.String(logging.FieldTitle, raw.Title),
			logging.String(logging.FieldReason, candidate.Reason),
			logging.Int64(logging.FieldContentID, rec.ID))
		return rec, OutcomeMerged, nil
	}

	rec := &catalog.ContentRecord{
		Title:       raw.Title,
		ContentType: raw.ContentType,
	}
	p.merger.Apply(rec, raw)
	p.stampFranchise(rec, raw)
	if err := p.store.Insert(ctx, rec); err != nil {
		return nil, "", services.Wrap(services.ErrStore, "pipeline", "insert",
			"insert record "+raw.Title, err)
	}
	p.logger.Debug("record created",
		logging.String(logging.FieldSource, string(raw.Source)),
		logging.String(logging.FieldTitle, raw.Title),
		logging.Int64(logging.FieldContentID, rec.ID))
	return rec, OutcomeCreated, nil
}

// findMatch looks for the stored record the incoming one belongs to: first an
// exact external-id hit, then a fuzzy title candidate validated by the fact
// checker.
func (p *Pipeline) findMatch(ctx context.Context, raw catalog.SourceRecord) (*MatchCandidate, error) {
	existing, err := p.store.FindByExternalID(ctx, raw.Source, raw.ExternalID)
	if err == nil {
		return &MatchCandidate{Record: existing, Reason: MatchReasonExternalID, Score: 1.0}, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return nil, services.Wrap(services.ErrStore, "pipeline", "lookup",
			"find by external id", err)
	}

	base := identity.Normalize(raw.Title)
	if base == "" {
		return nil, nil
	}
	candidates, err := p.store.FindByTitlePrefix(ctx, base, raw.ContentType, 0, candidateLimit)
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "pipeline", "lookup",
			"find by title prefix", err)
	}

	best := p.bestCandidate(raw, candidates)
	if best == nil {
		return nil, nil
	}
	if ok, _ := p.checker.Validate(raw, best.Record); !ok {
		return nil, nil
	}
	return best, nil
}

// bestCandidate fuzzy-scores candidates against the incoming title and its
// original title, keeping the highest scorer at or above the threshold. A
// candidate that already carries a different id for this source is a distinct
// work and is never considered.
func (p *Pipeline) bestCandidate(raw catalog.SourceRecord, candidates []*catalog.ContentRecord) *MatchCandidate {
	var best *MatchCandidate
	for _, candidate := range candidates {
		if id, ok := candidate.ExternalID(raw.Source); ok && id != raw.ExternalID {
			continue
		}
		score := titleSimilarity(raw, candidate)
		if score < p.matching.FuzzyThreshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &MatchCandidate{Record: candidate, Reason: MatchReasonTitle, Score: score}
		}
	}
	return best
}

// titleSimilarity scores all pairings of the two records' title variants and
// keeps the best. Normalized base forms are compared alongside the raw
// titles so that the same work carried with and without its subtitle scores
// 1.0 instead of the containment tier.
func titleSimilarity(raw catalog.SourceRecord, candidate *catalog.ContentRecord) float64 {
	best := 0.0
	for _, a := range titleVariants(raw.Title, raw.OriginalTitle) {
		for _, b := range titleVariants(candidate.Title, candidate.OriginalTitle) {
			if s := identity.Similarity(a, b); s > best {
				best = s
			}
		}
	}
	return best
}

func titleVariants(title, originalTitle string) []string {
	variants := []string{title}
	if base := identity.Normalize(title); base != "" && base != title {
		variants = append(variants, base)
	}
	if originalTitle != "" {
		variants = append(variants, originalTitle)
		if base := identity.Normalize(originalTitle); base != "" && base != originalTitle {
			variants = append(variants, base)
		}
	}
	return variants
}

// stampFranchise records franchise membership detected from the curated
// table, preferring an external-id hit over a title match.
func (p *Pipeline) stampFranchise(rec *catalog.ContentRecord, raw catalog.SourceRecord) {
	if p.table == nil || rec.Franchise != "" {
		return
	}
	if f, ok := p.table.MatchExternalID(raw.Source, raw.ExternalID); ok {
		rec.Franchise = f.Name
		return
	}
	if f, ok := p.table.Match(raw.Title); ok {
		rec.Franchise = f.Name
	}
}
