package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Backend-neutral errors. Every store (postgres, mongo, memory) translates its
// driver errors into these so the booking service never sees driver types.
var (
	// ErrSlotTaken means an active appointment already holds the (doctor, date, start) key.
	ErrSlotTaken = errors.New("slot already booked")
	ErrNotFound  = errors.New("not found")
	// ErrStatusChanged means a conditional transition found the appointment no longer in the expected status.
	ErrStatusChanged = errors.New("appointment status changed")
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23P01")
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}
