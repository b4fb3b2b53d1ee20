package models

import (
	"strconv"
	"strings"
)

// GroupKeyKind tags how a series group is keyed.
type GroupKeyKind string

const (
	// GroupKeyByID groups by the external TMDB identifier.
	GroupKeyByID GroupKeyKind = "id"
	// GroupKeyByTitle groups by the normalized (lowercased, trimmed) title,
	// used only when no external identifier is present.
	GroupKeyByTitle GroupKeyKind = "title"
)

// GroupKey identifies one series group. It is a tagged union: exactly one of
// TMDBID or Title carries the key, selected by Kind.
type GroupKey struct {
	Kind   GroupKeyKind `json:"kind"`
	TMDBID int64        `json:"tmdbId,omitempty"`
	Title  string       `json:"title,omitempty"`
}

// GroupKeyForID returns a key for a series with an external identifier.
func GroupKeyForID(tmdbID int64) GroupKey {
	return GroupKey{Kind: GroupKeyByID, TMDBID: tmdbID}
}

// GroupKeyForTitle returns a key for a series without an external identifier.
func GroupKeyForTitle(title string) GroupKey {
	return GroupKey{Kind: GroupKeyByTitle, Title: NormalizeTitle(title)}
}

// String renders a stable map key for the group.
func (k GroupKey) String() string {
	if k.Kind == GroupKeyByID {
		return "id:" + strconv.FormatInt(k.TMDBID, 10)
	}
	return "title:" + k.Title
}

// NormalizeTitle lowercases and trims a title for keying purposes.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// SeriesGroup is a derived view over all entries sharing one group key.
// It is recomputed per request and never persisted.
type SeriesGroup struct {
	Key            GroupKey     `json:"key"`
	Entries        []WatchEntry `json:"entries"`
	Representative WatchEntry   `json:"representative"`
	TMDBID         int64        `json:"tmdbId,omitempty"` // any member's external id
}

// LibraryView splits a filtered, sorted entry list into standalone movies and
// series groups.
type LibraryView struct {
	StandaloneMovies []WatchEntry  `json:"standaloneMovies"`
	SeriesGroups     []SeriesGroup `json:"seriesGroups"`
}
