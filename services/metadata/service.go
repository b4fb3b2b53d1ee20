package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sourcegraph/conc/pool"

	"watchlog/models"
)

// ErrAPIKeyMissing indicates no TMDB API key has been configured.
var ErrAPIKeyMissing = errors.New("tmdb api key not configured")

const (
	searchResultLimit  = 10
	minSearchQueryLen  = 2
	seasonFetchWorkers = 5
)

// Service answers title searches and series lookups against TMDB, caching
// responses for a short window so repeated UI interactions do not hammer
// the upstream API.
type Service struct {
	tmdb  *tmdbClient
	cache *memoryCache
}

func NewService(apiKey, language string, ttl time.Duration) *Service {
	return NewServiceWithClient(apiKey, language, ttl, nil)
}

// NewServiceWithClient exists so tests can supply a fake HTTP client.
func NewServiceWithClient(apiKey, language string, ttl time.Duration, httpc *http.Client) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		tmdb:  newTMDBClient(apiKey, language, httpc),
		cache: newMemoryCache(ttl),
	}
}

// Configured reports whether the service can reach TMDB at all.
func (s *Service) Configured() bool {
	return s.tmdb.isConfigured()
}

// ClearCache drops all cached responses. Called when the API key changes.
func (s *Service) ClearCache() {
	s.cache.clear()
}

// Search performs a multi search for movies and series. Queries shorter than
// two characters return an empty result without touching the network.
func (s *Service) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchQueryLen {
		return []models.SearchResult{}, nil
	}
	if !s.tmdb.isConfigured() {
		return nil, ErrAPIKeyMissing
	}

	key := cacheKey("search", strings.ToLower(query))
	if cached, ok := s.cache.get(key); ok {
		return cached.([]models.SearchResult), nil
	}

	payload, err := s.tmdb.searchMulti(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching tmdb: %w", err)
	}

	results := make([]models.SearchResult, 0, searchResultLimit)
	for _, r := range payload.Results {
		if len(results) >= searchResultLimit {
			break
		}
		var result models.SearchResult
		switch r.MediaType {
		case "movie":
			result = models.SearchResult{
				TMDBID: r.ID,
				Title:  r.Title,
				Year:   yearFromDate(r.ReleaseDate),
				Kind:   models.EntryKindMovie,
			}
		case "tv":
			result = models.SearchResult{
				TMDBID: r.ID,
				Title:  r.Name,
				Year:   yearFromDate(r.FirstAirDate),
				Kind:   models.EntryKindSeries,
			}
		default:
			continue
		}
		result.PosterURL = buildImageURL(r.PosterPath, tmdbPosterSize)
		results = append(results, result)
	}

	s.cache.set(key, results)
	return results, nil
}

// SeriesDetails looks up top-level series information by TMDB id.
func (s *Service) SeriesDetails(ctx context.Context, tmdbID int64) (models.SeriesDetails, error) {
	key := cacheKey("series", tmdbID)
	if cached, ok := s.cache.get(key); ok {
		return cached.(models.SeriesDetails), nil
	}

	payload, err := s.tmdb.tvDetails(ctx, tmdbID)
	if err != nil {
		return models.SeriesDetails{}, fmt.Errorf("fetching series %d: %w", tmdbID, err)
	}

	details := models.SeriesDetails{
		TMDBID:       payload.ID,
		Name:         payload.Name,
		Overview:     payload.Overview,
		SeasonCount:  payload.NumberOfSeasons,
		EpisodeCount: payload.NumberOfEpisodes,
		FirstAirDate: payload.FirstAirDate,
		LastAirDate:  payload.LastAirDate,
		PosterURL:    buildImageURL(payload.PosterPath, tmdbPosterSize),
		BackdropURL:  buildImageURL(payload.BackdropPath, tmdbPosterSize),
	}

	s.cache.set(key, details)
	return details, nil
}

// SeasonEpisodes fetches the episode list for a single season.
func (s *Service) SeasonEpisodes(ctx context.Context, tmdbID int64, seasonNumber int) (models.SeasonInfo, error) {
	key := cacheKey("season", tmdbID, seasonNumber)
	if cached, ok := s.cache.get(key); ok {
		return cached.(models.SeasonInfo), nil
	}

	payload, err := s.tmdb.tvSeason(ctx, tmdbID, seasonNumber)
	if err != nil {
		return models.SeasonInfo{}, fmt.Errorf("fetching season %d of series %d: %w", seasonNumber, tmdbID, err)
	}

	info := models.SeasonInfo{
		SeasonNumber: payload.SeasonNumber,
		TMDBSeasonID: payload.ID,
		AirDate:      payload.AirDate,
		Year:         yearFromDate(payload.AirDate),
		Episodes:     make([]models.EpisodeInfo, 0, len(payload.Episodes)),
	}
	for _, ep := range payload.Episodes {
		info.Episodes = append(info.Episodes, models.EpisodeInfo{
			EpisodeNumber: ep.EpisodeNumber,
			Title:         ep.Name,
			AirDate:       ep.AirDate,
			TMDBEpisodeID: ep.ID,
			Overview:      ep.Overview,
			Runtime:       ep.Runtime,
			StillURL:      buildImageURL(ep.StillPath, tmdbStillSize),
		})
	}
	if info.Year == 0 && len(info.Episodes) > 0 {
		info.Year = yearFromDate(info.Episodes[0].AirDate)
	}

	s.cache.set(key, info)
	return info, nil
}

// FullSeriesData fetches every season of a series concurrently and returns
// them ordered by air year ascending, seasons with no known year last, ties
// broken by season number. Seasons with zero episodes are dropped.
func (s *Service) FullSeriesData(ctx context.Context, tmdbID int64) (models.FullSeriesData, error) {
	key := cacheKey("fullseries", tmdbID)
	if cached, ok := s.cache.get(key); ok {
		return cached.(models.FullSeriesData), nil
	}

	details, err := s.SeriesDetails(ctx, tmdbID)
	if err != nil {
		return models.FullSeriesData{}, err
	}

	p := pool.NewWithResults[models.SeasonInfo]().
		WithContext(ctx).
		WithMaxGoroutines(seasonFetchWorkers)

	for seasonNum := 1; seasonNum <= details.SeasonCount; seasonNum++ {
		seasonNum := seasonNum
		p.Go(func(ctx context.Context) (models.SeasonInfo, error) {
			info, err := s.SeasonEpisodes(ctx, tmdbID, seasonNum)
			if err != nil {
				return models.SeasonInfo{}, err
			}
			return info, nil
		})
	}

	seasons, err := p.Wait()
	if err != nil {
		return models.FullSeriesData{}, err
	}

	kept := seasons[:0]
	for _, season := range seasons {
		if len(season.Episodes) == 0 {
			log.Printf("Skipping empty season %d of series %d", season.SeasonNumber, tmdbID)
			continue
		}
		kept = append(kept, season)
	}

	sort.Slice(kept, func(i, j int) bool {
		yi, yj := kept[i].Year, kept[j].Year
		if yi != yj {
			// Unknown years sort after everything dated.
			if yi == 0 {
				return false
			}
			if yj == 0 {
				return true
			}
			return yi < yj
		}
		return kept[i].SeasonNumber < kept[j].SeasonNumber
	})

	full := models.FullSeriesData{
		Title:   details.Name,
		TMDBID:  details.TMDBID,
		Seasons: kept,
	}

	s.cache.set(key, full)
	return full, nil
}

func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
