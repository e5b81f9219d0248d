package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"clinic-booking-service/internal/schedule"
)

// FetchAppointments returns appointments dated within
// [dateStart, dateEnd] inclusive, cancelled ones included; the matrix
// builder filters by status itself.
func (r *Repo) FetchAppointments(ctx context.Context, dateStart, dateEnd string) ([]schedule.Appointment, error) {
	q := `SELECT id, date, start_time, duration_minutes, patient_ref, status
	      FROM appointments
	      WHERE date >= $1 AND date <= $2 ORDER BY date, start_time`
	rows, err := r.DB.Query(ctx, q, dateStart, dateEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Appointment
	for rows.Next() {
		var a schedule.Appointment
		var date time.Time
		if err := rows.Scan(&a.ID, &date, &a.StartTime, &a.DurationMinutes, &a.PatientRef, &a.Status); err != nil {
			return nil, err
		}
		a.Date = schedule.FormatLocalDate(date)
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateAppointment books a session. The no-overlap invariant is owned
// here, not by the matrix core: the insert runs in a tx that locks and
// rejects any confirmed appointment overlapping the new interval.
func (r *Repo) CreateAppointment(ctx context.Context, a schedule.Appointment) (schedule.Appointment, error) {
	start, err := schedule.NormalizeTime(a.StartTime)
	if err != nil {
		return schedule.Appointment{}, err
	}
	if a.DurationMinutes <= 0 {
		return schedule.Appointment{}, fmt.Errorf("duration must be positive, got %d", a.DurationMinutes)
	}
	a.StartTime = start
	endMin := schedule.ToMinutes(start) + a.DurationMinutes

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return schedule.Appointment{}, err
	}
	defer tx.Rollback(ctx)

	checkQ := `SELECT id FROM appointments
	           WHERE date=$1 AND status='confirmed'
	           AND (EXTRACT(HOUR FROM start_time)*60 + EXTRACT(MINUTE FROM start_time)) < $3
	           AND (EXTRACT(HOUR FROM start_time)*60 + EXTRACT(MINUTE FROM start_time)) + duration_minutes > $2
	           FOR UPDATE`
	var existingID string
	err = tx.QueryRow(ctx, checkQ, a.Date, schedule.ToMinutes(start), endMin).Scan(&existingID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return schedule.Appointment{}, err
	}
	if existingID != "" {
		return schedule.Appointment{}, fmt.Errorf("%w: appointment %s", schedule.ErrOverlapConflict, existingID)
	}

	insQ := `INSERT INTO appointments (id, date, start_time, duration_minutes, patient_ref, status, created_at)
	         VALUES (gen_random_uuid(), $1, $2, $3, $4, 'confirmed', now())
	         RETURNING id`
	if err := tx.QueryRow(ctx, insQ, a.Date, a.StartTime, a.DurationMinutes, a.PatientRef).Scan(&a.ID); err != nil {
		return schedule.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return schedule.Appointment{}, err
	}
	a.Status = "confirmed"
	return a, nil
}

// CancelAppointment flips a confirmed appointment to cancelled. An
// unknown id is ErrNotFound; cancelling twice is a conflict the caller
// maps to 409.
func (r *Repo) CancelAppointment(ctx context.Context, id string) error {
	var status string
	err := r.DB.QueryRow(ctx, `SELECT status FROM appointments WHERE id=$1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: appointment %s", schedule.ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	if status == "cancelled" {
		return fmt.Errorf("%w: %s", schedule.ErrAlreadyCancelled, id)
	}

	res, err := r.DB.Exec(ctx, `UPDATE appointments SET status='cancelled' WHERE id=$1 AND status != 'cancelled'`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: appointment %s", schedule.ErrNotFound, id)
	}
	return nil
}
