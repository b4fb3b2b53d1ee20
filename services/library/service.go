package library

import (
	"errors"
	"sort"
	"strings"

	"watchlog/models"
)

// SortField names a selectable library sort key.
type SortField string

const (
	SortByDate   SortField = "date"
	SortByRating SortField = "rating"
	SortByTitle  SortField = "title"
)

var ErrInvalidSort = errors.New("invalid sort field")

// Filters narrow the library view before grouping. Zero values mean "no
// filter". Title matching is a case-insensitive substring test; kind,
// platform and status are equality matches, all ANDed together.
type Filters struct {
	TitleQuery string
	Kind       models.EntryKind
	Platform   string
	Status     models.EntryStatus
}

// Sort selects the ordering applied after filtering and before grouping.
type Sort struct {
	Field      SortField
	Descending bool
}

// Service turns the flat entry log into the grouped library view.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// View filters, sorts, and groups entries. Movies never group; series entries
// group by TMDB id when present, otherwise by normalized title.
func (s *Service) View(entries []models.WatchEntry, filters Filters, sortBy Sort) (models.LibraryView, error) {
	if sortBy.Field == "" {
		sortBy.Field = SortByDate
		sortBy.Descending = true
	}
	switch sortBy.Field {
	case SortByDate, SortByRating, SortByTitle:
	default:
		return models.LibraryView{}, ErrInvalidSort
	}

	filtered := applyFilters(entries, filters)
	sortEntries(filtered, sortBy)

	view := models.LibraryView{
		StandaloneMovies: []models.WatchEntry{},
		SeriesGroups:     []models.SeriesGroup{},
	}

	groupIndex := make(map[string]int)
	for _, entry := range filtered {
		if !entry.IsSeries() {
			view.StandaloneMovies = append(view.StandaloneMovies, entry)
			continue
		}

		key := groupKeyFor(entry)
		idx, exists := groupIndex[key.String()]
		if !exists {
			idx = len(view.SeriesGroups)
			groupIndex[key.String()] = idx
			view.SeriesGroups = append(view.SeriesGroups, models.SeriesGroup{Key: key})
		}
		group := &view.SeriesGroups[idx]
		group.Entries = append(group.Entries, entry)
		if group.TMDBID == 0 && entry.TMDBID != 0 {
			// Any member's external id identifies the whole group.
			group.TMDBID = entry.TMDBID
		}
	}

	for i := range view.SeriesGroups {
		view.SeriesGroups[i].Representative = chooseRepresentative(view.SeriesGroups[i].Entries)
	}

	return view, nil
}

func groupKeyFor(entry models.WatchEntry) models.GroupKey {
	if entry.TMDBID != 0 {
		return models.GroupKeyForID(entry.TMDBID)
	}
	return models.GroupKeyForTitle(entry.Title)
}

// chooseRepresentative picks the entry whose metadata fronts the group card:
// prefer poster and external id together, then poster alone, then external id
// alone, then the first entry.
func chooseRepresentative(entries []models.WatchEntry) models.WatchEntry {
	if len(entries) == 0 {
		return models.WatchEntry{}
	}
	for _, e := range entries {
		if e.PosterURL != "" && e.TMDBID != 0 {
			return e
		}
	}
	for _, e := range entries {
		if e.PosterURL != "" {
			return e
		}
	}
	for _, e := range entries {
		if e.TMDBID != 0 {
			return e
		}
	}
	return entries[0]
}

func applyFilters(entries []models.WatchEntry, filters Filters) []models.WatchEntry {
	query := strings.ToLower(strings.TrimSpace(filters.TitleQuery))

	out := make([]models.WatchEntry, 0, len(entries))
	for _, entry := range entries {
		if query != "" && !strings.Contains(strings.ToLower(entry.Title), query) {
			continue
		}
		if filters.Kind != "" && entry.Kind != filters.Kind {
			continue
		}
		if filters.Platform != "" && entry.Platform != filters.Platform {
			continue
		}
		if filters.Status != "" && entry.Status != filters.Status {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func sortEntries(entries []models.WatchEntry, sortBy Sort) {
	less := func(a, b models.WatchEntry) bool {
		switch sortBy.Field {
		case SortByRating:
			if a.Rating != b.Rating {
				return a.Rating < b.Rating
			}
		case SortByTitle:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
		default:
			// Watch dates are YYYY-MM-DD, so string order is date order.
			if a.WatchDate != b.WatchDate {
				return a.WatchDate < b.WatchDate
			}
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if sortBy.Descending {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})
}
