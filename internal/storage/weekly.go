package storage

import (
	"context"
	"time"

	"clinic-booking-service/internal/schedule"
)

// FetchWeeklyTemplate loads every weekly block grouped by weekday, in
// insertion (id) order within each day.
func (r *Repo) FetchWeeklyTemplate(ctx context.Context) (map[int][]schedule.WeeklyBlock, error) {
	q := `SELECT weekday, start_time, end_time, modality
	      FROM weekly_blocks ORDER BY id`
	rows, err := r.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int][]schedule.WeeklyBlock)
	for rows.Next() {
		var b schedule.WeeklyBlock
		var start, end, modality string
		if err := rows.Scan(&b.Weekday, &start, &end, &modality); err != nil {
			return nil, err
		}
		// DB times may carry seconds ("09:00:00"); the core works in HH:MM.
		if b.Range.Start, err = schedule.NormalizeTime(start); err != nil {
			return nil, err
		}
		if b.Range.End, err = schedule.NormalizeTime(end); err != nil {
			return nil, err
		}
		b.Modality = schedule.Modality(modality)
		out[b.Weekday] = append(out[b.Weekday], b)
	}
	return out, rows.Err()
}

// ReplaceWeekday swaps one weekday's blocks wholesale inside a tx,
// mirroring the admin UI's whole-day edit.
func (r *Repo) ReplaceWeekday(ctx context.Context, weekday int, blocks []schedule.WeeklyBlock) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM weekly_blocks WHERE weekday=$1`, weekday); err != nil {
		return err
	}

	now := time.Now().UTC()
	q := `INSERT INTO weekly_blocks (weekday, start_time, end_time, modality, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$5)`
	for _, b := range blocks {
		if _, err := tx.Exec(ctx, q, weekday, b.Range.Start, b.Range.End, string(b.Modality), now); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
