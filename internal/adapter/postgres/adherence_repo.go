package postgres

import (
	"context"
	"database/sql"
	"time"

	"medtrack/internal/domain"
)

const eventColumns = "id, reminder_id, user_id, scheduled_time, action_time, action_type, snooze_minutes, created_at"

// Append inserts an adherence event inside a transaction that locks the
// owning reminder row, so two concurrent toggles for the same instant
// serialize and the taken/not-taken alternation cannot race.
func (d *DB) Append(ctx context.Context, e *domain.AdherenceEvent) (*domain.AdherenceEvent, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var lockID int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM medication_reminders WHERE id = $1 FOR UPDATE;", e.ReminderID,
	).Scan(&lockID); err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx,
		`INSERT INTO adherence_events
			(reminder_id, user_id, scheduled_time, action_time, action_type, snooze_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+eventColumns+";",
		e.ReminderID, e.UserID, e.ScheduledTime, nullableTime(e.ActionTime),
		string(e.ActionType), e.SnoozeMinutes, time.Now(),
	)
	out, err := scanEvent(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendToggle reads the latest event for the instant and appends its
// alternation, all inside a transaction holding a row lock on the owning
// reminder. A concurrent toggle for the same instant blocks on the lock and
// then observes this call's event, so two taken events in a row cannot
// happen.
func (d *DB) AppendToggle(ctx context.Context, reminderID, userID int64, scheduled, now time.Time) (*domain.AdherenceEvent, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var lockID int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM medication_reminders WHERE id = $1 FOR UPDATE;", reminderID,
	).Scan(&lockID); err != nil {
		return nil, err
	}

	latest, err := scanEvent(tx.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM adherence_events WHERE reminder_id = $1 AND scheduled_time = $2 ORDER BY id DESC LIMIT 1;",
		reminderID, scheduled))
	if err == sql.ErrNoRows {
		latest = nil
	} else if err != nil {
		return nil, err
	}

	e := domain.AdherenceEvent{
		ReminderID:    reminderID,
		UserID:        userID,
		ScheduledTime: scheduled,
	}
	if latest == nil || latest.ActionType != domain.ActionTaken {
		e.ActionType = domain.ActionTaken
		t := now
		e.ActionTime = &t
	} else {
		e.ActionType = domain.ActionNotTaken
	}

	row := tx.QueryRowContext(ctx,
		`INSERT INTO adherence_events
			(reminder_id, user_id, scheduled_time, action_time, action_type, snooze_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+eventColumns+";",
		e.ReminderID, e.UserID, e.ScheduledTime, nullableTime(e.ActionTime),
		string(e.ActionType), e.SnoozeMinutes, time.Now(),
	)
	out, err := scanEvent(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestForInstant returns the newest event for a (reminder, instant) pair,
// or nil when the occurrence has never been acted on.
func (d *DB) LatestForInstant(ctx context.Context, reminderID int64, scheduled time.Time) (*domain.AdherenceEvent, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM adherence_events WHERE reminder_id = $1 AND scheduled_time = $2 ORDER BY id DESC LIMIT 1;",
		reminderID, scheduled)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// ListByReminder returns a reminder's events, newest scheduled time first.
func (d *DB) ListByReminder(ctx context.Context, reminderID int64, limit int) ([]domain.AdherenceEvent, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM adherence_events WHERE reminder_id = $1 ORDER BY scheduled_time DESC, id DESC LIMIT $2;",
		reminderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.AdherenceEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ListByReminderSince returns every event of a reminder with scheduled time
// at or after from, unbounded by count.
func (d *DB) ListByReminderSince(ctx context.Context, reminderID int64, from time.Time) ([]domain.AdherenceEvent, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM adherence_events WHERE reminder_id = $1 AND scheduled_time >= $2 ORDER BY scheduled_time;",
		reminderID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.AdherenceEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ListByUserBetween returns a user's events with scheduled time in [from, to).
func (d *DB) ListByUserBetween(ctx context.Context, userID int64, from, to time.Time) ([]domain.AdherenceEvent, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM adherence_events WHERE user_id = $1 AND scheduled_time >= $2 AND scheduled_time < $3 ORDER BY scheduled_time;",
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.AdherenceEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func scanEvent(row rowScanner) (*domain.AdherenceEvent, error) {
	var (
		e      domain.AdherenceEvent
		action sql.NullTime
	)
	err := row.Scan(&e.ID, &e.ReminderID, &e.UserID, &e.ScheduledTime, &action,
		&e.ActionType, &e.SnoozeMinutes, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if action.Valid {
		e.ActionTime = &action.Time
	}
	return &e, nil
}
