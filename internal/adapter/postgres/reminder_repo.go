package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"medtrack/internal/domain"
)

const reminderColumns = "id, user_id, medicine_id, medicine_name, dosage, unit, meal_timing, frequency, days_of_week, start_date, end_date, time_slots, is_active, notifications_enabled, notes, created_at, updated_at"

// Create inserts a new reminder and returns it with generated fields set.
func (d *DB) Create(ctx context.Context, r *domain.Reminder) (*domain.Reminder, error) {
	days, slots, err := marshalRule(r)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO medication_reminders
			(user_id, medicine_id, medicine_name, dosage, unit, meal_timing, frequency, days_of_week, start_date, end_date, time_slots, is_active, notifications_enabled, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		RETURNING `+reminderColumns+";",
		r.UserID, r.MedicineID, r.MedicineName, r.Dosage, r.Unit, r.MealTiming,
		string(r.Frequency), days, r.StartDate, nullableDate(r.EndDate), slots,
		r.IsActive, r.NotificationsEnabled, r.Notes, now,
	)
	return scanReminder(row)
}

// List returns the user's reminders newest first, plus the total count
// before pagination.
func (d *DB) List(ctx context.Context, userID int64, f domain.ReminderFilter) ([]domain.Reminder, int, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}
	if f.Active != nil {
		args = append(args, *f.Active)
		where += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	if f.Frequency != "" {
		args = append(args, string(f.Frequency))
		where += fmt.Sprintf(" AND frequency = $%d", len(args))
	}

	var total int
	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM medication_reminders "+where+";", args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Skip)
	query := fmt.Sprintf("SELECT %s FROM medication_reminders %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d;",
		reminderColumns, where, len(args)-1, len(args))
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close() //nolint:errcheck

	out, err := collectReminders(rows)
	return out, total, err
}

// ListByUser returns all of a user's reminders, unpaginated.
func (d *DB) ListByUser(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+reminderColumns+" FROM medication_reminders WHERE user_id = $1 ORDER BY id;", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck
	return collectReminders(rows)
}

// ListActive returns every active reminder across all users.
func (d *DB) ListActive(ctx context.Context) ([]domain.Reminder, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+reminderColumns+" FROM medication_reminders WHERE is_active ORDER BY id;")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck
	return collectReminders(rows)
}

// GetByID returns a reminder scoped to a user, or nil when absent.
func (d *DB) GetByID(ctx context.Context, id, userID int64) (*domain.Reminder, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+reminderColumns+" FROM medication_reminders WHERE id = $1 AND user_id = $2;", id, userID)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// Update replaces the mutable fields of a stored reminder.
func (d *DB) Update(ctx context.Context, r *domain.Reminder) error {
	days, slots, err := marshalRule(r)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx,
		`UPDATE medication_reminders SET
			medicine_id = $3, medicine_name = $4, dosage = $5, unit = $6, meal_timing = $7,
			frequency = $8, days_of_week = $9, start_date = $10, end_date = $11,
			time_slots = $12, is_active = $13, notifications_enabled = $14, notes = $15,
			updated_at = $16
		WHERE id = $1 AND user_id = $2;`,
		r.ID, r.UserID, r.MedicineID, r.MedicineName, r.Dosage, r.Unit, r.MealTiming,
		string(r.Frequency), days, r.StartDate, nullableDate(r.EndDate), slots,
		r.IsActive, r.NotificationsEnabled, r.Notes, time.Now(),
	)
	return err
}

// Delete removes a reminder; its adherence log goes with it via the
// ON DELETE CASCADE constraint.
func (d *DB) Delete(ctx context.Context, id, userID int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM medication_reminders WHERE id = $1 AND user_id = $2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func marshalRule(r *domain.Reminder) (days, slots []byte, err error) {
	if len(r.DaysOfWeek) > 0 {
		days, err = json.Marshal(r.DaysOfWeek)
		if err != nil {
			return nil, nil, err
		}
	}
	slots, err = json.Marshal(r.TimeSlots)
	if err != nil {
		return nil, nil, err
	}
	return days, slots, nil
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*domain.Reminder, error) {
	var (
		r     domain.Reminder
		days  []byte
		slots []byte
		end   sql.NullTime
	)
	err := row.Scan(&r.ID, &r.UserID, &r.MedicineID, &r.MedicineName, &r.Dosage, &r.Unit,
		&r.MealTiming, &r.Frequency, &days, &r.StartDate, &end, &slots,
		&r.IsActive, &r.NotificationsEnabled, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if end.Valid {
		r.EndDate = &end.Time
	}
	if len(days) > 0 {
		if err := json.Unmarshal(days, &r.DaysOfWeek); err != nil {
			return nil, fmt.Errorf("reminder %d: days_of_week: %w", r.ID, err)
		}
	}
	// TimeSlot.UnmarshalJSON also upgrades any legacy bare-string slots
	// that predate the one-time migration.
	if err := json.Unmarshal(slots, &r.TimeSlots); err != nil {
		return nil, fmt.Errorf("reminder %d: time_slots: %w", r.ID, err)
	}
	return &r, nil
}

func collectReminders(rows *sql.Rows) ([]domain.Reminder, error) {
	var out []domain.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
