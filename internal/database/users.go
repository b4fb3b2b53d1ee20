package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"watchlog/models"
)

// UserRepository persists accounts established through the login flow.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts the user or refreshes its claims-derived fields.
func (r *UserRepository) Upsert(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, picture, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   email = excluded.email,
		   name = excluded.name,
		   picture = excluded.picture,
		   updated_at = excluded.updated_at`,
		u.ID, nullString(u.Email), nullString(u.Name), nullString(u.Picture), now, now)
	if err != nil {
		return models.User{}, classify(fmt.Errorf("upsert user: %w", err))
	}

	stored, ok, err := r.Get(ctx, u.ID)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, errors.New("user vanished after upsert")
	}
	return stored, nil
}

// Get returns the user with the given id, or (zero, false) when absent.
func (r *UserRepository) Get(ctx context.Context, id string) (models.User, bool, error) {
	var (
		u       models.User
		email   sql.NullString
		name    sql.NullString
		picture sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, picture, created_at, updated_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &email, &name, &picture, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, classify(fmt.Errorf("get user: %w", err))
	}
	u.Email = email.String
	u.Name = name.String
	u.Picture = picture.String
	return u, true, nil
}
