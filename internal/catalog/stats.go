package catalog

import (
	"context"
	"fmt"
)

// Stats aggregates catalog counts for reporting after population runs.
type Stats struct {
	Total       int
	Movies      int
	TVShows     int
	TMDBOnly    int
	MALOnly     int
	Merged      int
	WithUnified int
	InFranchise int
}

// Stats computes aggregate counts over the stored records.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT
        COUNT(*),
        COUNT(CASE WHEN content_type = 'movie' THEN 1 END),
        COUNT(CASE WHEN content_type = 'tv' THEN 1 END),
        COUNT(CASE WHEN tmdb_id IS NOT NULL AND mal_id IS NULL THEN 1 END),
        COUNT(CASE WHEN mal_id IS NOT NULL AND tmdb_id IS NULL THEN 1 END),
        COUNT(CASE WHEN tmdb_id IS NOT NULL AND mal_id IS NOT NULL THEN 1 END),
        COUNT(unified_score),
        COUNT(CASE WHEN franchise != '' THEN 1 END)
    FROM content_records`)
	if err := row.Scan(&st.Total, &st.Movies, &st.TVShows,
		&st.TMDBOnly, &st.MALOnly, &st.Merged, &st.WithUnified, &st.InFranchise); err != nil {
		return Stats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	return st, nil
}
