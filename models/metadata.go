package models

// SearchResult is one autocomplete candidate from the metadata API.
type SearchResult struct {
	TMDBID    int64     `json:"tmdbId"`
	Title     string    `json:"title"`
	Year      int       `json:"year,omitempty"`
	Kind      EntryKind `json:"kind"`
	PosterURL string    `json:"posterUrl,omitempty"`
}

// SeriesDetails summarises one series as reported by the metadata API.
type SeriesDetails struct {
	TMDBID       int64  `json:"tmdbId"`
	Name         string `json:"name"`
	Overview     string `json:"overview,omitempty"`
	SeasonCount  int    `json:"seasonCount"`
	EpisodeCount int    `json:"episodeCount"`
	FirstAirDate string `json:"firstAirDate,omitempty"`
	LastAirDate  string `json:"lastAirDate,omitempty"`
	PosterURL    string `json:"posterUrl,omitempty"`
	BackdropURL  string `json:"backdropUrl,omitempty"`
}

// EpisodeInfo is one episode within a season.
type EpisodeInfo struct {
	EpisodeNumber int    `json:"episodeNumber"`
	Title         string `json:"title"`
	AirDate       string `json:"airDate,omitempty"`
	TMDBEpisodeID int64  `json:"tmdbEpisodeId"`
	Overview      string `json:"overview,omitempty"`
	Runtime       int    `json:"runtime,omitempty"`
	StillURL      string `json:"stillUrl,omitempty"`
}

// SeasonInfo aggregates one season and all its episodes. Year is derived from
// the season air date, falling back to the first episode's air date; zero
// means no year could be derived.
type SeasonInfo struct {
	SeasonNumber int           `json:"seasonNumber"`
	TMDBSeasonID int64         `json:"tmdbSeasonId"`
	Episodes     []EpisodeInfo `json:"episodes"`
	Year         int           `json:"year,omitempty"`
	AirDate      string        `json:"airDate,omitempty"`
}

// FullSeriesData carries a series and every non-empty season, ordered by
// release year then season number.
type FullSeriesData struct {
	Title   string       `json:"title"`
	TMDBID  int64        `json:"tmdbId"`
	Seasons []SeasonInfo `json:"seasons"`
}
