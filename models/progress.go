package models

import "time"

// SeasonSeenRecord is the completion marker for one season of one series. It
// is keyed by (series TMDB id, season number) and independent of how many
// watch entries reference the series.
type SeasonSeenRecord struct {
	SeriesID     int64     `json:"seriesId"`
	SeasonNumber int       `json:"seasonNumber"`
	Seen         bool      `json:"seen"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// EpisodeSeenRecord is the completion marker for one episode.
type EpisodeSeenRecord struct {
	SeriesID      int64     `json:"seriesId"`
	SeasonNumber  int       `json:"seasonNumber"`
	EpisodeNumber int       `json:"episodeNumber"`
	Seen          bool      `json:"seen"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SeriesProgress reports season completion against the metadata season count,
// so a season counts as unseen even if it was never explicitly toggled.
type SeriesProgress struct {
	SeriesID       int64 `json:"seriesId"`
	WatchedSeasons int   `json:"watchedSeasons"`
	TotalSeasons   int   `json:"totalSeasons"`
	Percent        int   `json:"percent"`
}
