package storage

import (
	"context"
	"errors"

	"github.com/Savotageofficial/capsule/libs/db"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
)

// ProfileRepository is the local projection of profiles owned by the profile service.
type ProfileRepository struct {
	pool *db.Pool
}

func NewProfileRepository(pool *db.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	var p model.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT id, role, display_name, complete, updated_at
		FROM profiles
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Role, &p.DisplayName, &p.Complete, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	return p, err
}

// UpsertProfile applies p unless a newer version is already stored.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, p model.Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (id, role, display_name, complete, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET role = EXCLUDED.role,
			display_name = EXCLUDED.display_name,
			complete = EXCLUDED.complete,
			updated_at = EXCLUDED.updated_at
		WHERE profiles.updated_at <= EXCLUDED.updated_at
	`, p.ID, string(p.Role), p.DisplayName, p.Complete, p.UpdatedAt)
	return err
}
