package ingest

import (
	"sync"

	"toondex/internal/catalog"
)

// SourceStats counts per-record outcomes for one source within a run.
type SourceStats struct {
	Processed int
	Created   int
	Merged    int
	Failed    int
	Pages     int
}

// RunStats accumulates counters for one ingestion run. Safe for concurrent
// use by intra-page workers.
type RunStats struct {
	RunID string

	mu        sync.Mutex
	perSource map[catalog.SourceTag]*SourceStats
}

func newRunStats(runID string) *RunStats {
	return &RunStats{
		RunID:     runID,
		perSource: make(map[catalog.SourceTag]*SourceStats),
	}
}

func (s *RunStats) source(tag catalog.SourceTag) *SourceStats {
	stats, ok := s.perSource[tag]
	if !ok {
		stats = &SourceStats{}
		s.perSource[tag] = stats
	}
	return stats
}

func (s *RunStats) recordOutcome(tag catalog.SourceTag, outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.source(tag)
	stats.Processed++
	switch outcome {
	case OutcomeCreated:
		stats.Created++
	case OutcomeMerged:
		stats.Merged++
	}
}

func (s *RunStats) recordFailure(tag catalog.SourceTag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.source(tag)
	stats.Processed++
	stats.Failed++
}

func (s *RunStats) recordPage(tag catalog.SourceTag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source(tag).Pages++
}

// Source returns a copy of one source's counters.
func (s *RunStats) Source(tag catalog.SourceTag) SourceStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stats, ok := s.perSource[tag]; ok {
		return *stats
	}
	return SourceStats{}
}

// Totals sums counters across sources.
func (s *RunStats) Totals() SourceStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total SourceStats
	for _, stats := range s.perSource {
		total.Processed += stats.Processed
		total.Created += stats.Created
		total.Merged += stats.Merged
		total.Failed += stats.Failed
		total.Pages += stats.Pages
	}
	return total
}
