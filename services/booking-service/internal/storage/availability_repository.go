package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Savotageofficial/capsule/libs/db"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
)

// AvailabilityRepository stores each doctor's weekly availability as one JSONB document.
type AvailabilityRepository struct {
	pool *db.Pool
}

func NewAvailabilityRepository(pool *db.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

func (r *AvailabilityRepository) GetAvailability(ctx context.Context, doctorID string) (model.WeeklyAvailability, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT slots FROM doctor_availability WHERE doctor_id = $1
	`, doctorID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.WeeklyAvailability{}, nil
	}
	if err != nil {
		return nil, err
	}
	avail := model.WeeklyAvailability{}
	if err := json.Unmarshal(raw, &avail); err != nil {
		return nil, fmt.Errorf("decode availability for %s: %w", doctorID, err)
	}
	return avail, nil
}

// SetAvailability replaces the stored document.
func (r *AvailabilityRepository) SetAvailability(ctx context.Context, doctorID string, avail model.WeeklyAvailability) error {
	if avail == nil {
		avail = model.WeeklyAvailability{}
	}
	raw, err := json.Marshal(avail)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO doctor_availability (doctor_id, slots, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (doctor_id) DO UPDATE
		SET slots = EXCLUDED.slots,
			updated_at = EXCLUDED.updated_at
	`, doctorID, raw)
	return err
}
