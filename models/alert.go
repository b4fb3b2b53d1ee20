package models

import (
	"fmt"
	"time"
)

// SeriesSeasonTracker is the device-local baseline for one tracked series:
// the last season count observed from the metadata API. It is a cache, not a
// source of truth, and tolerates being reset at any time.
type SeriesSeasonTracker struct {
	TMDBID               int64     `json:"tmdbId"`
	SeriesName           string    `json:"seriesName"`
	LastKnownSeasonCount int       `json:"lastKnownSeasonCount"`
	LastChecked          time.Time `json:"lastChecked"`
	CoverImage           string    `json:"coverImage,omitempty"`
}

// NewSeasonAlert is an ephemeral notification that a tracked series gained a
// season. It lives until dismissed or until the next poll regenerates it.
type NewSeasonAlert struct {
	ID              string    `json:"id"`
	TMDBID          int64     `json:"tmdbId"`
	SeriesName      string    `json:"seriesName"`
	NewSeasonNumber int       `json:"newSeasonNumber"`
	TotalSeasons    int       `json:"totalSeasons"`
	CoverImage      string    `json:"coverImage,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AlertID derives the alert identifier. The emission instant is part of the
// id so a re-emitted alert for the same series and count does not collide
// with one the user already dismissed.
func AlertID(tmdbID int64, newCount int, at time.Time) string {
	return fmt.Sprintf("alert-%d-%d-%d", tmdbID, newCount, at.UnixMilli())
}
