package models

import "time"

// EntryKind distinguishes single movies from series instalments.
type EntryKind string

const (
	EntryKindMovie  EntryKind = "movie"
	EntryKindSeries EntryKind = "series"
)

// EntryStatus tracks where an entry sits in the user's watch lifecycle.
type EntryStatus string

const (
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusWatching  EntryStatus = "watching"
	EntryStatusDropped   EntryStatus = "dropped"
	EntryStatusWatchlist EntryStatus = "watchlist"
)

// WatchEntry is one user log record of something watched.
type WatchEntry struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	WatchDate  string      `json:"watchDate"` // YYYY-MM-DD
	Kind       EntryKind   `json:"kind"`
	Rating     int         `json:"rating"` // 0..5
	Platform   string      `json:"platform,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	Status     EntryStatus `json:"status"`
	Season     int         `json:"season,omitempty"`
	Episode    int         `json:"episode,omitempty"`
	PosterURL  string      `json:"posterUrl,omitempty"`
	Genres     []string    `json:"genres,omitempty"`
	WatchAgain bool        `json:"watchAgain"`
	TMDBID     int64       `json:"tmdbId,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// WatchEntryInput captures data required to create or update a watch entry.
type WatchEntryInput struct {
	Title      string      `json:"title"`
	WatchDate  string      `json:"watchDate"`
	Kind       EntryKind   `json:"kind"`
	Rating     int         `json:"rating"`
	Platform   string      `json:"platform,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	Status     EntryStatus `json:"status,omitempty"`
	Season     int         `json:"season,omitempty"`
	Episode    int         `json:"episode,omitempty"`
	PosterURL  string      `json:"posterUrl,omitempty"`
	Genres     []string    `json:"genres,omitempty"`
	WatchAgain bool        `json:"watchAgain,omitempty"`
	TMDBID     int64       `json:"tmdbId,omitempty"`
}

// IsSeries reports whether the entry logs a series instalment.
func (e WatchEntry) IsSeries() bool {
	return e.Kind == EntryKindSeries
}
