package mal

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
	"toondex/internal/franchise"
	"toondex/internal/logging"
	"toondex/internal/services"
	"toondex/internal/sources"
)

const animeFields = "id,title,main_picture,alternative_titles,synopsis,mean," +
	"num_list_users,rank,popularity,num_episodes,status,start_season,studios,genres"

var _ sources.Source = (*Client)(nil)

// Client talks to the anime catalog's v2 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	logger     *slog.Logger
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.MAL, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		clientID:   cfg.ClientID,
		logger:     logging.NewComponentLogger(logger, "mal"),
	}
}

// Tag identifies this source.
func (c *Client) Tag() catalog.SourceTag {
	return catalog.SourceMAL
}

type rankingResponse struct {
	Data []struct {
		Node animeNode `json:"node"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// FetchPage returns one page of top-ranked anime projected into the common
// record shape. page is 1-based and translated to a ranking offset.
func (c *Client) FetchPage(ctx context.Context, page, pageSize int) ([]catalog.SourceRecord, bool, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	query := url.Values{}
	query.Set("ranking_type", "all")
	query.Set("limit", strconv.Itoa(pageSize))
	query.Set("offset", strconv.Itoa((page-1)*pageSize))
	query.Set("fields", animeFields)

	var payload rankingResponse
	if err := c.get(ctx, "/anime/ranking", query, &payload); err != nil {
		return nil, false, err
	}

	records := make([]catalog.SourceRecord, 0, len(payload.Data))
	for _, entry := range payload.Data {
		records = append(records, convertAnime(entry.Node))
	}
	return records, payload.Paging.Next != "", nil
}

type relatedResponse struct {
	RelatedAnime []struct {
		Node struct {
			ID int64 `json:"id"`
		} `json:"node"`
		RelationType string `json:"relation_type"`
	} `json:"related_anime"`
}

// RelatedAnime fetches structured relationship data for one anime id. It
// satisfies franchise.ExternalLookup.
func (c *Client) RelatedAnime(ctx context.Context, malID int64) ([]franchise.Relation, error) {
	query := url.Values{}
	query.Set("fields", "related_anime")

	var payload relatedResponse
	if err := c.get(ctx, fmt.Sprintf("/anime/%d", malID), query, &payload); err != nil {
		return nil, err
	}

	relations := make([]franchise.Relation, 0, len(payload.RelatedAnime))
	for _, entry := range payload.RelatedAnime {
		if entry.Node.ID == 0 {
			continue
		}
		relations = append(relations, franchise.Relation{
			MALID: entry.Node.ID,
			Type:  entry.RelationType,
		})
	}
	return relations, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	requestURL := c.baseURL + endpoint + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return services.Wrap(services.ErrExternalAPI, "mal", endpoint, "build request", err)
	}
	req.Header.Set("X-MAL-CLIENT-ID", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalAPI, "mal", endpoint, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrExternalAPI, "mal", endpoint,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternalAPI, "mal", endpoint, "decode response", err)
	}
	return nil
}
