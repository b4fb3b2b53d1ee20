package progress

import (
	"context"
	"errors"
	"math"
	"time"

	"watchlog/models"
)

var (
	ErrInvalidSeason  = errors.New("season number must be positive")
	ErrInvalidEpisode = errors.New("episode number must be positive")
)

// Repository persists seen flags. Implemented by database.ProgressRepository.
type Repository interface {
	SetSeasonSeen(ctx context.Context, seriesID int64, seasonNumber int, seen bool, at time.Time) error
	SeasonSeen(ctx context.Context, seriesID int64, seasonNumber int) (bool, error)
	AllSeenSeasons(ctx context.Context, seriesID int64) (map[int]models.SeasonSeenRecord, error)
	SetEpisodeSeen(ctx context.Context, seriesID int64, seasonNumber, episodeNumber int, seen bool, at time.Time) error
	EpisodeSeen(ctx context.Context, seriesID int64, seasonNumber, episodeNumber int) (bool, error)
	AllSeenEpisodes(ctx context.Context, seriesID int64) (map[int]map[int]bool, error)
}

// SeriesMetadata supplies the authoritative season count for percentages.
type SeriesMetadata interface {
	SeriesDetails(ctx context.Context, tmdbID int64) (models.SeriesDetails, error)
}

// Service tracks which seasons and episodes of a series the user has seen.
// Each toggle writes only its own row, so sibling seasons and episodes are
// never clobbered by a concurrent update.
type Service struct {
	repo     Repository
	metadata SeriesMetadata
	now      func() time.Time
}

func NewService(repo Repository, metadata SeriesMetadata) *Service {
	return &Service{
		repo:     repo,
		metadata: metadata,
		now:      time.Now,
	}
}

func (s *Service) SetSeasonSeen(ctx context.Context, seriesID int64, seasonNumber int, seen bool) error {
	if seasonNumber <= 0 {
		return ErrInvalidSeason
	}
	return s.repo.SetSeasonSeen(ctx, seriesID, seasonNumber, seen, s.now().UTC())
}

func (s *Service) SeasonSeen(ctx context.Context, seriesID int64, seasonNumber int) (bool, error) {
	return s.repo.SeasonSeen(ctx, seriesID, seasonNumber)
}

// AllSeenSeasons returns season -> seen for every season ever toggled. Seasons
// never toggled are simply absent, which readers treat as unseen.
func (s *Service) AllSeenSeasons(ctx context.Context, seriesID int64) (map[int]bool, error) {
	records, err := s.repo.AllSeenSeasons(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	result := make(map[int]bool, len(records))
	for season, rec := range records {
		result[season] = rec.Seen
	}
	return result, nil
}

func (s *Service) SetEpisodeSeen(ctx context.Context, seriesID int64, seasonNumber, episodeNumber int, seen bool) error {
	if seasonNumber <= 0 {
		return ErrInvalidSeason
	}
	if episodeNumber <= 0 {
		return ErrInvalidEpisode
	}
	return s.repo.SetEpisodeSeen(ctx, seriesID, seasonNumber, episodeNumber, seen, s.now().UTC())
}

func (s *Service) EpisodeSeen(ctx context.Context, seriesID int64, seasonNumber, episodeNumber int) (bool, error) {
	return s.repo.EpisodeSeen(ctx, seriesID, seasonNumber, episodeNumber)
}

func (s *Service) AllSeenEpisodes(ctx context.Context, seriesID int64) (map[int]map[int]bool, error) {
	return s.repo.AllSeenEpisodes(ctx, seriesID)
}

// Progress computes completion for a series. The denominator comes from live
// metadata, not the stored seen-map, so a season the user never toggled still
// counts against the total.
func (s *Service) Progress(ctx context.Context, seriesID int64) (models.SeriesProgress, error) {
	details, err := s.metadata.SeriesDetails(ctx, seriesID)
	if err != nil {
		return models.SeriesProgress{}, err
	}

	records, err := s.repo.AllSeenSeasons(ctx, seriesID)
	if err != nil {
		return models.SeriesProgress{}, err
	}

	watched := 0
	for _, rec := range records {
		if rec.Seen {
			watched++
		}
	}

	prog := models.SeriesProgress{
		SeriesID:       seriesID,
		WatchedSeasons: watched,
		TotalSeasons:   details.SeasonCount,
	}
	if details.SeasonCount > 0 {
		prog.Percent = int(math.Round(100 * float64(watched) / float64(details.SeasonCount)))
	}
	return prog, nil
}
