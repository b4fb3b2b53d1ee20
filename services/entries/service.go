package entries

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"watchlog/models"
)

var (
	ErrTitleRequired     = errors.New("title is required")
	ErrWatchDateRequired = errors.New("watch date is required")
	ErrInvalidWatchDate  = errors.New("watch date must be YYYY-MM-DD")
	ErrInvalidKind       = errors.New("kind must be movie or series")
	ErrInvalidStatus     = errors.New("invalid entry status")
	ErrInvalidRating     = errors.New("rating must be between 0 and 5")
	ErrEntryNotFound     = errors.New("watch entry not found")
)

// Repository persists watch entries. Implemented by database.EntryRepository.
type Repository interface {
	List(ctx context.Context) ([]models.WatchEntry, error)
	Get(ctx context.Context, id string) (models.WatchEntry, bool, error)
	Insert(ctx context.Context, entry models.WatchEntry) error
	Update(ctx context.Context, entry models.WatchEntry) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Service owns the watch entry log: validation, identity, and persistence.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// List returns every entry, newest watch date first.
func (s *Service) List(ctx context.Context) ([]models.WatchEntry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.WatchEntry{}
	}
	return entries, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.WatchEntry, error) {
	entry, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.WatchEntry{}, err
	}
	if !found {
		return models.WatchEntry{}, ErrEntryNotFound
	}
	return entry, nil
}

// Create validates the input, assigns an id and timestamps, and persists the
// entry. Optional fields stay zero-valued; they are never stored as explicit
// empty markers.
func (s *Service) Create(ctx context.Context, input models.WatchEntryInput) (models.WatchEntry, error) {
	entry, err := s.buildEntry(input)
	if err != nil {
		return models.WatchEntry{}, err
	}

	now := s.now().UTC()
	entry.ID = uuid.NewString()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if err := s.repo.Insert(ctx, entry); err != nil {
		return models.WatchEntry{}, err
	}
	return entry, nil
}

// Update replaces the stored entry's fields with the validated input, keeping
// the original id and creation time.
func (s *Service) Update(ctx context.Context, id string, input models.WatchEntryInput) (models.WatchEntry, error) {
	existing, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.WatchEntry{}, err
	}
	if !found {
		return models.WatchEntry{}, ErrEntryNotFound
	}

	entry, err := s.buildEntry(input)
	if err != nil {
		return models.WatchEntry{}, err
	}

	entry.ID = existing.ID
	entry.CreatedAt = existing.CreatedAt
	entry.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, entry)
	if err != nil {
		return models.WatchEntry{}, err
	}
	if !updated {
		return models.WatchEntry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrEntryNotFound
	}
	return nil
}

func (s *Service) buildEntry(input models.WatchEntryInput) (models.WatchEntry, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.WatchEntry{}, ErrTitleRequired
	}

	watchDate := strings.TrimSpace(input.WatchDate)
	if watchDate == "" {
		return models.WatchEntry{}, ErrWatchDateRequired
	}
	if _, err := time.Parse("2006-01-02", watchDate); err != nil {
		return models.WatchEntry{}, ErrInvalidWatchDate
	}

	kind := models.EntryKind(strings.TrimSpace(string(input.Kind)))
	if kind != models.EntryKindMovie && kind != models.EntryKindSeries {
		return models.WatchEntry{}, ErrInvalidKind
	}

	status := models.EntryStatus(strings.TrimSpace(string(input.Status)))
	if status == "" {
		status = models.EntryStatusCompleted
	}
	switch status {
	case models.EntryStatusCompleted, models.EntryStatusWatching, models.EntryStatusDropped, models.EntryStatusWatchlist:
	default:
		return models.WatchEntry{}, ErrInvalidStatus
	}

	if input.Rating < 0 || input.Rating > 5 {
		return models.WatchEntry{}, ErrInvalidRating
	}

	entry := models.WatchEntry{
		Title:      title,
		WatchDate:  watchDate,
		Kind:       kind,
		Rating:     input.Rating,
		Platform:   strings.TrimSpace(input.Platform),
		Notes:      strings.TrimSpace(input.Notes),
		Status:     status,
		PosterURL:  strings.TrimSpace(input.PosterURL),
		Genres:     input.Genres,
		WatchAgain: input.WatchAgain,
		TMDBID:     input.TMDBID,
	}
	if kind == models.EntryKindSeries {
		entry.Season = input.Season
		entry.Episode = input.Episode
	}
	return entry, nil
}
