package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Savotageofficial/capsule/libs/httpx"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/booking"
)

const (
	msgSlotTaken      = "this time was just taken, please choose another"
	msgStorage        = "storage unavailable, please retry"
	msgOutcomeUnknown = "the booking may or may not have been saved, check your appointments before retrying"
)

// writeServiceError maps service errors onto status codes. Validation messages
// are shown verbatim; storage details never leave the process.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		bad        *httpx.BadRequestError
		validation *booking.ValidationError
		conflict   *booking.ConflictError
		storage    *booking.StorageError
	)
	switch {
	case errors.As(err, &bad):
		httpx.WriteError(w, http.StatusBadRequest, bad.Msg)
	case errors.As(err, &validation):
		httpx.WriteError(w, http.StatusUnprocessableEntity, validation.Msg)
	case errors.As(err, &conflict):
		httpx.WriteError(w, http.StatusConflict, msgSlotTaken)
	case errors.Is(err, booking.ErrAppointmentNotFound):
		httpx.WriteError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, booking.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &storage):
		logger.Error("storage error",
			"op", storage.Op,
			"outcome_unknown", storage.OutcomeUnknown,
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"err", storage.Err,
		)
		if storage.OutcomeUnknown {
			httpx.WriteError(w, http.StatusServiceUnavailable, msgOutcomeUnknown, map[string]any{"outcome": "unknown"})
			return
		}
		httpx.WriteError(w, http.StatusServiceUnavailable, msgStorage)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		logger.Error("unhandled error", "request_id", httpx.RequestIDFromContext(r.Context()), "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
