package inbox

import (
	"context"

	"github.com/Savotageofficial/capsule/libs/db"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/storage"
)

// Repository remembers which consumed events were already applied.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record returns true the first time eventID is seen and false for a redelivery.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err == nil {
		return true, nil
	}
	if storage.IsUniqueViolation(err) {
		return false, nil
	}
	return false, err
}

// Forget drops eventID so a redelivery is applied again.
func (r *Repository) Forget(ctx context.Context, eventID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM inbox_events WHERE event_id = $1`, eventID)
	return err
}
