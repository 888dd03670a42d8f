package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates a lookup matched no stored record.
var ErrNotFound = errors.New("content record not found")

// Store manages content persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and verifies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

const recordColumns = `id, record_key, title, original_title, overview, content_type,
    poster_path, release_date, genres_json, studios_json, alt_titles_json,
    runtime_minutes, episode_count, season_count, popularity,
    tmdb_id, mal_id, tmdb_score, tmdb_votes, mal_score, mal_votes, unified_score,
    franchise, relationships_json, data_sources_json, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner rowScanner) (*ContentRecord, error) {
	var (
		rec               ContentRecord
		originalTitle     sql.NullString
		overview          sql.NullString
		posterPath        sql.NullString
		releaseDate       sql.NullString
		genresJSON        string
		studiosJSON       string
		altTitlesJSON     string
		tmdbID            sql.NullInt64
		malID             sql.NullInt64
		tmdbScore         sql.NullFloat64
		malScore          sql.NullFloat64
		unifiedScore      sql.NullFloat64
		franchise         sql.NullString
		relationshipsJSON string
		dataSourcesJSON   string
		createdAt         string
		updatedAt         string
	)

	err := scanner.Scan(
		&rec.ID, &rec.Key, &rec.Title, &originalTitle, &overview, &rec.ContentType,
		&posterPath, &releaseDate, &genresJSON, &studiosJSON, &altTitlesJSON,
		&rec.Runtime, &rec.EpisodeCount, &rec.SeasonCount, &rec.Popularity,
		&tmdbID, &malID, &tmdbScore, &rec.TMDBVotes, &malScore, &rec.MALVotes, &unifiedScore,
		&franchise, &relationshipsJSON, &dataSourcesJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.OriginalTitle = originalTitle.String
	rec.Overview = overview.String
	rec.PosterPath = posterPath.String
	rec.Franchise = franchise.String

	if releaseDate.Valid && releaseDate.String != "" {
		ts, err := time.Parse(time.RFC3339, releaseDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse release date: %w", err)
		}
		rec.ReleaseDate = &ts
	}
	if tmdbID.Valid {
		v := tmdbID.Int64
		rec.TMDBID = &v
	}
	if malID.Valid {
		v := malID.Int64
		rec.MALID = &v
	}
	if tmdbScore.Valid {
		v := tmdbScore.Float64
		rec.TMDBScore = &v
	}
	if malScore.Valid {
		v := malScore.Float64
		rec.MALScore = &v
	}
	if unifiedScore.Valid {
		v := unifiedScore.Float64
		rec.UnifiedScore = &v
	}

	if err := json.Unmarshal([]byte(genresJSON), &rec.Genres); err != nil {
		return nil, fmt.Errorf("parse genres: %w", err)
	}
	if err := json.Unmarshal([]byte(studiosJSON), &rec.Studios); err != nil {
		return nil, fmt.Errorf("parse studios: %w", err)
	}
	if err := json.Unmarshal([]byte(altTitlesJSON), &rec.AlternativeTitles); err != nil {
		return nil, fmt.Errorf("parse alternative titles: %w", err)
	}
	if err := json.Unmarshal([]byte(relationshipsJSON), &rec.Relationships); err != nil {
		return nil, fmt.Errorf("parse relationships: %w", err)
	}
	if dataSourcesJSON != "" && dataSourcesJSON != "{}" {
		if err := json.Unmarshal([]byte(dataSourcesJSON), &rec.DataSources); err != nil {
			return nil, fmt.Errorf("parse data sources: %w", err)
		}
	}
	if rec.DataSources == nil {
		rec.DataSources = make(map[SourceTag]SourcePresence)
	}

	ct, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = ct
	ut, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	rec.UpdatedAt = ut

	return &rec, nil
}

type recordArgs struct {
	releaseDate       any
	genresJSON        string
	studiosJSON       string
	altTitlesJSON     string
	relationshipsJSON string
	dataSourcesJSON   string
	tmdbID            any
	malID             any
	tmdbScore         any
	malScore          any
	unifiedScore      any
}

func marshalRecord(rec *ContentRecord) (recordArgs, error) {
	var args recordArgs

	genres, err := json.Marshal(emptySlice(rec.Genres))
	if err != nil {
		return args, fmt.Errorf("marshal genres: %w", err)
	}
	studios, err := json.Marshal(emptySlice(rec.Studios))
	if err != nil {
		return args, fmt.Errorf("marshal studios: %w", err)
	}
	altTitles, err := json.Marshal(emptySlice(rec.AlternativeTitles))
	if err != nil {
		return args, fmt.Errorf("marshal alternative titles: %w", err)
	}
	relationships, err := json.Marshal(rec.Relationships)
	if err != nil {
		return args, fmt.Errorf("marshal relationships: %w", err)
	}
	dataSources, err := json.Marshal(rec.DataSources)
	if err != nil {
		return args, fmt.Errorf("marshal data sources: %w", err)
	}

	args.genresJSON = string(genres)
	args.studiosJSON = string(studios)
	args.altTitlesJSON = string(altTitles)
	args.relationshipsJSON = string(relationships)
	args.dataSourcesJSON = string(dataSources)

	if rec.ReleaseDate != nil {
		args.releaseDate = rec.ReleaseDate.UTC().Format(time.RFC3339)
	}
	if rec.TMDBID != nil {
		args.tmdbID = *rec.TMDBID
	}
	if rec.MALID != nil {
		args.malID = *rec.MALID
	}
	if rec.TMDBScore != nil {
		args.tmdbScore = *rec.TMDBScore
	}
	if rec.MALScore != nil {
		args.malScore = *rec.MALScore
	}
	if rec.UnifiedScore != nil {
		args.unifiedScore = *rec.UnifiedScore
	}

	return args, nil
}

func emptySlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
