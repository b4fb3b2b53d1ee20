package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"watchlog/models"
)

// ProgressRepository persists per-season and per-episode seen flags. Writes
// are upserts keyed by (series, season[, episode]), so toggling one row never
// touches its siblings.
type ProgressRepository struct {
	db *sql.DB
}

func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// SetSeasonSeen records the seen flag for one season of one series.
func (r *ProgressRepository) SetSeasonSeen(ctx context.Context, seriesID int64, seasonNumber int, seen bool, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO season_seen (series_id, season_number, seen, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (series_id, season_number)
		 DO UPDATE SET seen = excluded.seen, updated_at = excluded.updated_at`,
		seriesID, seasonNumber, boolToInt(seen), at)
	if err != nil {
		return classify(fmt.Errorf("set season seen: %w", err))
	}
	return nil
}

// SeasonSeen reports whether a season is marked seen. Absent rows are unseen.
func (r *ProgressRepository) SeasonSeen(ctx context.Context, seriesID int64, seasonNumber int) (bool, error) {
	var seen int
	err := r.db.QueryRowContext(ctx,
		`SELECT seen FROM season_seen WHERE series_id = ? AND season_number = ?`,
		seriesID, seasonNumber).Scan(&seen)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(fmt.Errorf("get season seen: %w", err))
	}
	return seen != 0, nil
}

// AllSeenSeasons returns every recorded season flag for a series.
func (r *ProgressRepository) AllSeenSeasons(ctx context.Context, seriesID int64) (map[int]models.SeasonSeenRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT season_number, seen, updated_at FROM season_seen WHERE series_id = ?`,
		seriesID)
	if err != nil {
		return nil, classify(fmt.Errorf("list seen seasons: %w", err))
	}
	defer rows.Close()

	result := make(map[int]models.SeasonSeenRecord)
	for rows.Next() {
		var (
			rec  models.SeasonSeenRecord
			seen int
		)
		if err := rows.Scan(&rec.SeasonNumber, &seen, &rec.UpdatedAt); err != nil {
			return nil, classify(fmt.Errorf("scan seen season: %w", err))
		}
		rec.SeriesID = seriesID
		rec.Seen = seen != 0
		result[rec.SeasonNumber] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("list seen seasons: %w", err))
	}
	return result, nil
}

// SetEpisodeSeen records the seen flag for one episode.
func (r *ProgressRepository) SetEpisodeSeen(ctx context.Context, seriesID int64, seasonNumber, episodeNumber int, seen bool, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO episode_seen (series_id, season_number, episode_number, seen, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (series_id, season_number, episode_number)
		 DO UPDATE SET seen = excluded.seen, updated_at = excluded.updated_at`,
		seriesID, seasonNumber, episodeNumber, boolToInt(seen), at)
	if err != nil {
		return classify(fmt.Errorf("set episode seen: %w", err))
	}
	return nil
}

// EpisodeSeen reports whether an episode is marked seen.
func (r *ProgressRepository) EpisodeSeen(ctx context.Context, seriesID int64, seasonNumber, episodeNumber int) (bool, error) {
	var seen int
	err := r.db.QueryRowContext(ctx,
		`SELECT seen FROM episode_seen WHERE series_id = ? AND season_number = ? AND episode_number = ?`,
		seriesID, seasonNumber, episodeNumber).Scan(&seen)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(fmt.Errorf("get episode seen: %w", err))
	}
	return seen != 0, nil
}

// AllSeenEpisodes returns every recorded episode flag for a series, grouped
// by season.
func (r *ProgressRepository) AllSeenEpisodes(ctx context.Context, seriesID int64) (map[int]map[int]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT season_number, episode_number, seen FROM episode_seen WHERE series_id = ?`,
		seriesID)
	if err != nil {
		return nil, classify(fmt.Errorf("list seen episodes: %w", err))
	}
	defer rows.Close()

	result := make(map[int]map[int]bool)
	for rows.Next() {
		var season, episode, seen int
		if err := rows.Scan(&season, &episode, &seen); err != nil {
			return nil, classify(fmt.Errorf("scan seen episode: %w", err))
		}
		if result[season] == nil {
			result[season] = make(map[int]bool)
		}
		result[season][episode] = seen != 0
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("list seen episodes: %w", err))
	}
	return result, nil
}
