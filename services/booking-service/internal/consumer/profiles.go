package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/segmentio/kafka-go"
)

const TopicProfileUpserted = "profile.upserted.v1"

// ErrMalformed marks an event that can never be applied; it is not retried.
var ErrMalformed = errors.New("malformed event")

type ProfileWriter interface {
	UpsertProfile(ctx context.Context, p model.Profile) error
}

type profileUpserted struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
	Complete    bool      `json:"complete"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileHandler keeps the local profile projection in step with the profile
// service. Events for roles this service does not know are skipped.
func ProfileHandler(profiles ProfileWriter, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt profileUpserted
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			return fmt.Errorf("%w: decode %s: %v", ErrMalformed, msg.Topic, err)
		}
		if strings.TrimSpace(evt.ID) == "" {
			return fmt.Errorf("%w: %s without id", ErrMalformed, msg.Topic)
		}

		role := model.Role(strings.ToLower(strings.TrimSpace(evt.Role)))
		if role != model.RolePatient && role != model.RoleDoctor {
			logger.Debug("profile with unsupported role skipped", "profile_id", evt.ID, "role", evt.Role)
			return nil
		}
		updatedAt := evt.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = msg.Time
		}
		return profiles.UpsertProfile(ctx, model.Profile{
			ID:          evt.ID,
			Role:        role,
			DisplayName: strings.TrimSpace(evt.DisplayName),
			Complete:    evt.Complete,
			UpdatedAt:   updatedAt.UTC(),
		})
	}
}
