package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Insert persists a new content record and assigns its id. The record key is
// derived from the title and content type when unset.
func (s *Store) Insert(ctx context.Context, rec *ContentRecord) error {
	if rec == nil {
		return errors.New("nil record")
	}
	if strings.TrimSpace(rec.Title) == "" {
		return errors.New("record title must not be empty")
	}
	if !rec.ContentType.Valid() {
		return fmt.Errorf("invalid content type %q", rec.ContentType)
	}
	if rec.Key == "" {
		rec.Key = RecordKey(rec.Title, rec.ContentType)
	}
	if rec.DataSources == nil {
		rec.DataSources = make(map[SourceTag]SourcePresence)
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	args, err := marshalRecord(rec)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO content_records (
        record_key, title, original_title, overview, content_type,
        poster_path, release_date, genres_json, studios_json, alt_titles_json,
        runtime_minutes, episode_count, season_count, popularity,
        tmdb_id, mal_id, tmdb_score, tmdb_votes, mal_score, mal_votes, unified_score,
        franchise, relationships_json, data_sources_json, created_at, updated_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Key, rec.Title, rec.OriginalTitle, rec.Overview, rec.ContentType,
		rec.PosterPath, args.releaseDate, args.genresJSON, args.studiosJSON, args.altTitlesJSON,
		rec.Runtime, rec.EpisodeCount, rec.SeasonCount, rec.Popularity,
		args.tmdbID, args.malID, args.tmdbScore, rec.TMDBVotes, args.malScore, rec.MALVotes, args.unifiedScore,
		rec.Franchise, args.relationshipsJSON, args.dataSourcesJSON,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// Update writes back a mutated record in place.
func (s *Store) Update(ctx context.Context, rec *ContentRecord) error {
	if rec == nil || rec.ID == 0 {
		return errors.New("record must be stored before update")
	}

	rec.UpdatedAt = time.Now().UTC()

	args, err := marshalRecord(rec)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE content_records SET
        record_key = ?, title = ?, original_title = ?, overview = ?, content_type = ?,
        poster_path = ?, release_date = ?, genres_json = ?, studios_json = ?, alt_titles_json = ?,
        runtime_minutes = ?, episode_count = ?, season_count = ?, popularity = ?,
        tmdb_id = ?, mal_id = ?, tmdb_score = ?, tmdb_votes = ?, mal_score = ?, mal_votes = ?, unified_score = ?,
        franchise = ?, relationships_json = ?, data_sources_json = ?, updated_at = ?
    WHERE id = ?`,
		rec.Key, rec.Title, rec.OriginalTitle, rec.Overview, rec.ContentType,
		rec.PosterPath, args.releaseDate, args.genresJSON, args.studiosJSON, args.altTitlesJSON,
		rec.Runtime, rec.EpisodeCount, rec.SeasonCount, rec.Popularity,
		args.tmdbID, args.malID, args.tmdbScore, rec.TMDBVotes, args.malScore, rec.MALVotes, args.unifiedScore,
		rec.Franchise, args.relationshipsJSON, args.dataSourcesJSON,
		rec.UpdatedAt.Format(time.RFC3339Nano), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a single record by id.
func (s *Store) GetByID(ctx context.Context, id int64) (*ContentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM content_records WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return rec, nil
}

// GetMany fetches records by id, skipping ids that no longer exist. Result
// order follows the input ids.
func (s *Store) GetMany(ctx context.Context, ids []int64) ([]*ContentRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM content_records WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*ContentRecord, len(ids))
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		byID[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	out := make([]*ContentRecord, 0, len(byID))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FindByExternalID fetches the record carrying the given source identifier.
func (s *Store) FindByExternalID(ctx context.Context, source SourceTag, externalID int64) (*ContentRecord, error) {
	column, err := externalIDColumn(source)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM content_records WHERE "+column+" = ?", externalID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find by %s id %d: %w", source, externalID, err)
	}
	return rec, nil
}

// FindByExternalIDs fetches all records matching any of the given source
// identifiers.
func (s *Store) FindByExternalIDs(ctx context.Context, source SourceTag, externalIDs []int64) ([]*ContentRecord, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	column, err := externalIDColumn(source)
	if err != nil {
		return nil, err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(externalIDs)), ",")
	args := make([]any, len(externalIDs))
	for i, id := range externalIDs {
		args[i] = id
	}
	return s.queryRecords(ctx,
		"SELECT "+recordColumns+" FROM content_records WHERE "+column+" IN ("+placeholders+")", args...)
}

// FindByTitlePrefix returns records of the given type whose title or original
// title starts with prefix, case-insensitively. excludeID skips one record.
func (s *Store) FindByTitlePrefix(ctx context.Context, prefix string, contentType ContentType, excludeID int64, limit int) ([]*ContentRecord, error) {
	pattern := escapeLike(prefix) + "%"
	return s.findByTitlePattern(ctx, pattern, contentType, excludeID, limit)
}

// FindByTitleContains returns records of the given type whose title or
// original title contains fragment, case-insensitively.
func (s *Store) FindByTitleContains(ctx context.Context, fragment string, contentType ContentType, excludeID int64, limit int) ([]*ContentRecord, error) {
	pattern := "%" + escapeLike(fragment) + "%"
	return s.findByTitlePattern(ctx, pattern, contentType, excludeID, limit)
}

func (s *Store) findByTitlePattern(ctx context.Context, pattern string, contentType ContentType, excludeID int64, limit int) ([]*ContentRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := "SELECT " + recordColumns + ` FROM content_records
        WHERE content_type = ?
          AND id != ?
          AND (title LIKE ? ESCAPE '\' OR original_title LIKE ? ESCAPE '\')
        ORDER BY popularity DESC
        LIMIT ?`
	return s.queryRecords(ctx, query, contentType, excludeID, pattern, pattern, limit)
}

// ListByTypeRanked returns records of the given type ordered by unified score
// then popularity, excluding one id. Used by the genre-based relationship
// fallback.
func (s *Store) ListByTypeRanked(ctx context.Context, contentType ContentType, excludeID int64, limit int) ([]*ContentRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT " + recordColumns + ` FROM content_records
        WHERE content_type = ? AND id != ?
        ORDER BY unified_score DESC NULLS LAST, popularity DESC
        LIMIT ?`
	return s.queryRecords(ctx, query, contentType, excludeID, limit)
}

// Delete removes a record. This is an administrative operation; the pipeline
// itself never deletes.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM content_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]*ContentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []*ContentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func externalIDColumn(source SourceTag) (string, error) {
	switch source {
	case SourceTMDB:
		return "tmdb_id", nil
	case SourceMAL:
		return "mal_id", nil
	default:
		return "", fmt.Errorf("unknown source %q", source)
	}
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
