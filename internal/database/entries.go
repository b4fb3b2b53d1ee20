package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"watchlog/models"
)

// EntryRepository persists watch entries. Optional fields are stored as NULL
// when absent, never as empty sentinels, so they round-trip as "not present".
type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

const entryColumns = `id, title, watch_date, kind, rating, platform, notes, status,
	season, episode, poster_url, genres, watch_again, tmdb_id, created_at, updated_at`

// List returns all entries ordered by watch date descending, newest first.
func (r *EntryRepository) List(ctx context.Context) ([]models.WatchEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM watch_entries ORDER BY watch_date DESC, created_at DESC`)
	if err != nil {
		return nil, classify(fmt.Errorf("list entries: %w", err))
	}
	defer rows.Close()

	entries := make([]models.WatchEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("list entries: %w", err))
	}
	return entries, nil
}

// Get returns the entry with the given id, or (zero, false) when absent.
func (r *EntryRepository) Get(ctx context.Context, id string) (models.WatchEntry, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM watch_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WatchEntry{}, false, nil
	}
	if err != nil {
		return models.WatchEntry{}, false, err
	}
	return entry, true, nil
}

// Insert stores a new entry.
func (r *EntryRepository) Insert(ctx context.Context, e models.WatchEntry) error {
	genres, err := marshalGenres(e.Genres)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO watch_entries (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.WatchDate, string(e.Kind), e.Rating,
		nullString(e.Platform), nullString(e.Notes), string(e.Status),
		nullInt(e.Season), nullInt(e.Episode), nullString(e.PosterURL),
		genres, boolToInt(e.WatchAgain), nullInt64(e.TMDBID),
		e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return classify(fmt.Errorf("insert entry: %w", err))
	}
	return nil
}

// Update replaces a stored entry's mutable fields.
func (r *EntryRepository) Update(ctx context.Context, e models.WatchEntry) (bool, error) {
	genres, err := marshalGenres(e.Genres)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE watch_entries SET title = ?, watch_date = ?, kind = ?, rating = ?,
		 platform = ?, notes = ?, status = ?, season = ?, episode = ?,
		 poster_url = ?, genres = ?, watch_again = ?, tmdb_id = ?, updated_at = ?
		 WHERE id = ?`,
		e.Title, e.WatchDate, string(e.Kind), e.Rating,
		nullString(e.Platform), nullString(e.Notes), string(e.Status),
		nullInt(e.Season), nullInt(e.Episode), nullString(e.PosterURL),
		genres, boolToInt(e.WatchAgain), nullInt64(e.TMDBID), e.UpdatedAt,
		e.ID)
	if err != nil {
		return false, classify(fmt.Errorf("update entry: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update entry: %w", err)
	}
	return affected > 0, nil
}

// Delete removes an entry, reporting whether it existed.
func (r *EntryRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM watch_entries WHERE id = ?`, id)
	if err != nil {
		return false, classify(fmt.Errorf("delete entry: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.WatchEntry, error) {
	var (
		e          models.WatchEntry
		kind       string
		status     string
		platform   sql.NullString
		notes      sql.NullString
		season     sql.NullInt64
		episode    sql.NullInt64
		posterURL  sql.NullString
		genres     sql.NullString
		watchAgain int
		tmdbID     sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.Title, &e.WatchDate, &kind, &e.Rating,
		&platform, &notes, &status, &season, &episode, &posterURL,
		&genres, &watchAgain, &tmdbID, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WatchEntry{}, err
	}
	if err != nil {
		return models.WatchEntry{}, classify(fmt.Errorf("scan entry: %w", err))
	}

	e.Kind = models.EntryKind(kind)
	e.Status = models.EntryStatus(status)
	e.Platform = platform.String
	e.Notes = notes.String
	e.Season = int(season.Int64)
	e.Episode = int(episode.Int64)
	e.PosterURL = posterURL.String
	e.WatchAgain = watchAgain != 0
	e.TMDBID = tmdbID.Int64

	if genres.Valid && genres.String != "" {
		if err := json.Unmarshal([]byte(genres.String), &e.Genres); err != nil {
			return models.WatchEntry{}, fmt.Errorf("decode genres: %w", err)
		}
	}
	return e, nil
}

func marshalGenres(genres []string) (any, error) {
	if len(genres) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(genres)
	if err != nil {
		return nil, fmt.Errorf("encode genres: %w", err)
	}
	return string(data), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(i int) any {
	if i == 0 {
		return nil
	}
	return i
}

func nullInt64(i int64) any {
	if i == 0 {
		return nil
	}
	return i
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
