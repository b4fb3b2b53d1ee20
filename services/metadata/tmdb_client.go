package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	// w500 posters are plenty for cards; "original" wastes bandwidth.
	tmdbPosterSize = "w500"
	tmdbStillSize  = "w300"
)

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		language:    language,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

func (c *tmdbClient) throttle() {
	c.throttleMu.Lock()
	since := time.Since(c.lastRequest)
	if since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
	c.throttleMu.Unlock()
}

// doGET performs a rate-limited GET against a TMDB endpoint, retrying
// transient failures with exponential backoff. Client errors other than 429
// abort immediately.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	if !c.isConfigured() {
		return ErrAPIKeyMissing
	}

	full, err := url.JoinPath(tmdbBaseURL, endpoint)
	if err != nil {
		return err
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	if lang := strings.TrimSpace(c.language); lang != "" {
		query.Set("language", lang)
	} else {
		query.Set("language", "en-US")
	}
	full = full + "?" + query.Encode()

	return retry.Do(
		func() error {
			c.throttle()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("tmdb %s failed: %s", endpoint, resp.Status)
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("tmdb %s failed: %s", endpoint, resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

type tmdbMultiSearchResponse struct {
	Results []struct {
		ID           int64  `json:"id"`
		Title        string `json:"title"`
		Name         string `json:"name"`
		ReleaseDate  string `json:"release_date"`
		FirstAirDate string `json:"first_air_date"`
		MediaType    string `json:"media_type"`
		PosterPath   string `json:"poster_path"`
	} `json:"results"`
}

func (c *tmdbClient) searchMulti(ctx context.Context, query string) (tmdbMultiSearchResponse, error) {
	var payload tmdbMultiSearchResponse
	q := url.Values{}
	q.Set("query", query)
	err := c.doGET(ctx, "search/multi", q, &payload)
	return payload, err
}

type tmdbTvDetailsResponse struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Overview         string `json:"overview"`
	FirstAirDate     string `json:"first_air_date"`
	LastAirDate      string `json:"last_air_date"`
	NumberOfSeasons  int    `json:"number_of_seasons"`
	NumberOfEpisodes int    `json:"number_of_episodes"`
	PosterPath       string `json:"poster_path"`
	BackdropPath     string `json:"backdrop_path"`
}

func (c *tmdbClient) tvDetails(ctx context.Context, tvID int64) (tmdbTvDetailsResponse, error) {
	var payload tmdbTvDetailsResponse
	err := c.doGET(ctx, fmt.Sprintf("tv/%d", tvID), nil, &payload)
	return payload, err
}

type tmdbSeasonResponse struct {
	ID           int64  `json:"id"`
	SeasonNumber int    `json:"season_number"`
	AirDate      string `json:"air_date"`
	Episodes     []struct {
		ID            int64  `json:"id"`
		EpisodeNumber int    `json:"episode_number"`
		Name          string `json:"name"`
		Overview      string `json:"overview"`
		AirDate       string `json:"air_date"`
		Runtime       int    `json:"runtime"`
		StillPath     string `json:"still_path"`
	} `json:"episodes"`
}

func (c *tmdbClient) tvSeason(ctx context.Context, tvID int64, seasonNumber int) (tmdbSeasonResponse, error) {
	var payload tmdbSeasonResponse
	err := c.doGET(ctx, fmt.Sprintf("tv/%d/season/%d", tvID, seasonNumber), nil, &payload)
	return payload, err
}

func buildImageURL(imagePath, size string) string {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", tmdbImageBaseURL, size, strings.TrimPrefix(trimmed, "/"))
}
