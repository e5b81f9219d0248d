package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"clinic-booking-service/internal/schedule"
)

// FetchExceptions returns the manual exceptions dated within
// [dateStart, dateEnd], inclusive on both ends.
func (r *Repo) FetchExceptions(ctx context.Context, dateStart, dateEnd string) ([]schedule.ManualException, error) {
	q := `SELECT id, date, start_time, end_time, kind, description
	      FROM schedule_exceptions
	      WHERE date >= $1 AND date <= $2 ORDER BY created_at`
	rows, err := r.DB.Query(ctx, q, dateStart, dateEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.ManualException
	for rows.Next() {
		var e schedule.ManualException
		var date time.Time
		var start, end, kind string
		if err := rows.Scan(&e.ID, &date, &start, &end, &kind, &e.Description); err != nil {
			return nil, err
		}
		e.Date = schedule.FormatLocalDate(date)
		if e.Range.Start, err = schedule.NormalizeTime(start); err != nil {
			return nil, err
		}
		if e.Range.End, err = schedule.NormalizeTime(end); err != nil {
			return nil, err
		}
		e.Kind = schedule.ExceptionKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertException stores a new exception after checking the same-date
// duplicate and overlap rules, and returns the full created record so
// the optimistic-update path can reconcile without a re-fetch.
func (r *Repo) InsertException(ctx context.Context, e schedule.ManualException) (schedule.ManualException, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return schedule.ManualException{}, err
	}
	defer tx.Rollback(ctx)

	var dupID string
	dupQ := `SELECT id FROM schedule_exceptions
	         WHERE date=$1 AND start_time=$2 AND end_time=$3 AND kind=$4 LIMIT 1`
	err = tx.QueryRow(ctx, dupQ, e.Date, e.Range.Start, e.Range.End, string(e.Kind)).Scan(&dupID)
	if err == nil {
		return schedule.ManualException{}, fmt.Errorf("%w: existing %s", schedule.ErrDuplicateException, dupID)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return schedule.ManualException{}, err
	}

	// Half-open overlap on the same date, any kind pair.
	var conflictID, conflictStart, conflictEnd string
	ovQ := `SELECT id, start_time, end_time FROM schedule_exceptions
	        WHERE date=$1 AND start_time < $3 AND end_time > $2 LIMIT 1`
	err = tx.QueryRow(ctx, ovQ, e.Date, e.Range.Start, e.Range.End).Scan(&conflictID, &conflictStart, &conflictEnd)
	if err == nil {
		return schedule.ManualException{}, fmt.Errorf("%w: %s-%s (%s)",
			schedule.ErrOverlapConflict, conflictStart, conflictEnd, conflictID)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return schedule.ManualException{}, err
	}

	insQ := `INSERT INTO schedule_exceptions (id, date, start_time, end_time, kind, description, created_at)
	         VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, now())
	         RETURNING id`
	if err := tx.QueryRow(ctx, insQ, e.Date, e.Range.Start, e.Range.End, string(e.Kind), e.Description).Scan(&e.ID); err != nil {
		return schedule.ManualException{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return schedule.ManualException{}, err
	}
	return e, nil
}

// DeleteException removes by id. A missing id reports ErrNotFound so a
// repeated delete surfaces stale admin state instead of passing
// silently.
func (r *Repo) DeleteException(ctx context.Context, id string) error {
	res, err := r.DB.Exec(ctx, `DELETE FROM schedule_exceptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: exception %s", schedule.ErrNotFound, id)
	}
	return nil
}
