package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"toondex/internal/catalog"
	"toondex/internal/config"
	"toondex/internal/logging"
	"toondex/internal/services"
	"toondex/internal/sources"
)

const animationGenreFilter = "16"

var _ sources.Source = (*Client)(nil)

// Client talks to the general movie/TV catalog's discover endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
	movies     bool
	tvShows    bool
	logger     *slog.Logger
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.TMDB, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		language:   cfg.Language,
		movies:     cfg.IncludeMovies,
		tvShows:    cfg.IncludeTVShows,
		logger:     logging.NewComponentLogger(logger, "tmdb"),
	}
}

// Tag identifies this source.
func (c *Client) Tag() catalog.SourceTag {
	return catalog.SourceTMDB
}

// FetchPage returns one discover page of animated movies and TV shows,
// already filtered and projected. pageSize is advisory only: the catalog's
// page size is fixed, so results are truncated when larger.
func (c *Client) FetchPage(ctx context.Context, page, pageSize int) ([]catalog.SourceRecord, bool, error) {
	var records []catalog.SourceRecord
	hasMore := false

	if c.movies {
		movies, more, err := c.discover(ctx, "/discover/movie", page)
		if err != nil {
			return nil, false, err
		}
		records = append(records, c.convert(movies, catalog.TypeMovie)...)
		hasMore = hasMore || more
	}
	if c.tvShows {
		shows, more, err := c.discover(ctx, "/discover/tv", page)
		if err != nil {
			return nil, false, err
		}
		records = append(records, c.convert(shows, catalog.TypeTV)...)
		hasMore = hasMore || more
	}

	if pageSize > 0 && len(records) > pageSize {
		records = records[:pageSize]
	}
	return records, hasMore, nil
}

type discoverResponse struct {
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Results    []contentResult `json:"results"`
}

type contentResult struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	OriginalTitle string  `json:"original_title"`
	OriginalName  string  `json:"original_name"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	GenreIDs      []int64 `json:"genre_ids"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int64   `json:"vote_count"`
	Popularity    float64 `json:"popularity"`
}

func (c *Client) discover(ctx context.Context, endpoint string, page int) ([]contentResult, bool, error) {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("language", c.language)
	query.Set("with_genres", animationGenreFilter)
	query.Set("sort_by", "popularity.desc")
	query.Set("include_adult", "false")
	query.Set("page", strconv.Itoa(page))

	requestURL := c.baseURL + endpoint + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, services.Wrap(services.ErrExternalAPI, "tmdb", "discover", "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, services.Wrap(services.ErrExternalAPI, "tmdb", "discover", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, services.Wrap(services.ErrExternalAPI, "tmdb", "discover",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var payload discoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, services.Wrap(services.ErrExternalAPI, "tmdb", "discover", "decode response", err)
	}
	return payload.Results, payload.Page < payload.TotalPages, nil
}

// convert projects raw discover results, applying the animated-content gate.
// The discover call already filters on the Animation genre; the gate guards
// against miscategorized entries leaking through keyword-only matches.
func (c *Client) convert(results []contentResult, contentType catalog.ContentType) []catalog.SourceRecord {
	records := make([]catalog.SourceRecord, 0, len(results))
	for _, result := range results {
		title := result.Title
		originalTitle := result.OriginalTitle
		dateText := result.ReleaseDate
		if contentType == catalog.TypeTV {
			title = result.Name
			originalTitle = result.OriginalName
			dateText = result.FirstAirDate
		}

		if !sources.IsAnimated(result.GenreIDs, title, originalTitle, result.Overview) {
			c.logger.Debug("skipped non-animated entry",
				logging.String(logging.FieldTitle, title),
				logging.Int64("tmdb_id", result.ID))
			continue
		}

		rec := catalog.SourceRecord{
			Source:        catalog.SourceTMDB,
			ExternalID:    result.ID,
			Title:         title,
			OriginalTitle: originalTitle,
			Overview:      result.Overview,
			ContentType:   contentType,
			PosterPath:    result.PosterPath,
			Genres:        convertGenreIDs(result.GenreIDs),
			Votes:         result.VoteCount,
			Popularity:    result.Popularity,
		}
		if result.VoteCount > 0 || result.VoteAverage > 0 {
			score := result.VoteAverage
			rec.Score = &score
		}
		if parsed, err := time.Parse("2006-01-02", dateText); err == nil {
			rec.ReleaseDate = &parsed
		}
		records = append(records, rec)
	}
	return records
}
