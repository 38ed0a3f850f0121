package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Savotageofficial/capsule/libs/db"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/outbox"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const appointmentColumns = `
	id::text, doctor_id, patient_id, patient_name, doctor_name, appt_date, date_time_ms,
	slot_start, slot_end, appt_type, status, cancelled_at, COALESCE(cancelled_by, ''),
	COALESCE(cancel_reason, ''), created_at, updated_at`

// BookingRepository is the PostgreSQL appointment ledger. Every write also
// appends the matching lifecycle event to the outbox in the same transaction.
type BookingRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewBookingRepository(pool *db.Pool, events *outbox.Repository) *BookingRepository {
	return &BookingRepository{pool: pool, outbox: events}
}

// InsertIfAbsent relies on the partial unique index over active appointments:
// the insert and the conflict check are one statement.
func (r *BookingRepository) InsertIfAbsent(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	var saved model.Appointment
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO appointments
				(id, doctor_id, patient_id, patient_name, doctor_name, appt_date, date_time_ms,
				 slot_start, slot_end, appt_type, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (doctor_id, appt_date, slot_start) WHERE status <> 'Cancelled' DO NOTHING
			RETURNING `+appointmentColumns,
			appt.ID, appt.DoctorID, appt.PatientID, appt.PatientName, appt.DoctorName, appt.Date.String(), appt.DateTime,
			int(appt.Slot.Start), int(appt.Slot.End), string(appt.Type), string(appt.Status), appt.CreatedAt, appt.UpdatedAt)

		var err error
		saved, err = scanAppointment(row)
		switch {
		case errors.Is(err, pgx.ErrNoRows), IsUniqueViolation(err):
			return ErrSlotTaken
		case err != nil:
			return err
		}
		return r.appendEvent(ctx, tx, saved)
	})
	if err != nil {
		return model.Appointment{}, err
	}
	return saved, nil
}

func (r *BookingRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Appointment{}, ErrNotFound
	}
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, ErrNotFound
	}
	return appt, err
}

func (r *BookingRepository) ListActive(ctx context.Context, doctorID string, date model.Date) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
			AND appt_date = $2::date
			AND status <> 'Cancelled'
		ORDER BY slot_start ASC
	`, doctorID, date.String())
}

func (r *BookingRepository) ListByDoctor(ctx context.Context, doctorID string, from, to model.Date) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
			AND appt_date BETWEEN $2::date AND $3::date
		ORDER BY date_time_ms ASC, id ASC
	`, doctorID, from.String(), to.String())
}

func (r *BookingRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY date_time_ms DESC, id DESC
		LIMIT $2
	`, patientID, limit)
}

// Transition updates the row only while it is still in status from.
func (r *BookingRepository) Transition(ctx context.Context, id string, from model.Status, change model.StatusChange) (model.Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Appointment{}, ErrNotFound
	}
	var (
		cancelledAt  *time.Time
		cancelledBy  *string
		cancelReason *string
	)
	if change.To == model.StatusCancelled {
		cancelledAt, cancelledBy, cancelReason = &change.At, &change.By, &change.Reason
	}

	var updated model.Appointment
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		updated, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $3,
				updated_at = $4,
				cancelled_at = COALESCE($5, cancelled_at),
				cancelled_by = COALESCE($6, cancelled_by),
				cancel_reason = COALESCE($7, cancel_reason)
			WHERE id = $1 AND status = $2
			RETURNING `+appointmentColumns,
			id, string(from), string(change.To), change.At, cancelledAt, cancelledBy, cancelReason))
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrStatusChanged
		}
		if err != nil {
			return err
		}
		return r.appendEvent(ctx, tx, updated)
	})
	if err != nil {
		return model.Appointment{}, err
	}
	return updated, nil
}

func (r *BookingRepository) appendEvent(ctx context.Context, tx pgx.Tx, appt model.Appointment) error {
	if r.outbox == nil {
		return nil
	}
	evt, err := outbox.AppointmentEvent(appt)
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, evt)
}

func (r *BookingRepository) list(ctx context.Context, sql string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appts := make([]model.Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		appt        model.Appointment
		date        time.Time
		start, end  int16
		typ, status string
	)
	err := row.Scan(
		&appt.ID,
		&appt.DoctorID,
		&appt.PatientID,
		&appt.PatientName,
		&appt.DoctorName,
		&date,
		&appt.DateTime,
		&start,
		&end,
		&typ,
		&status,
		&appt.CancelledAt,
		&appt.CancelledBy,
		&appt.CancelReason,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Date = model.DateOf(date)
	appt.Slot = model.TimeSlot{Start: model.Clock(start), End: model.Clock(end)}
	appt.Type = model.AppointmentType(typ)
	appt.Status = model.Status(status)
	return appt, nil
}
