package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, username TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, user_agent TEXT NOT NULL DEFAULT '', ip TEXT NOT NULL DEFAULT '', expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
		"CREATE TABLE IF NOT EXISTS medicines (id BIGSERIAL PRIMARY KEY, name TEXT NOT NULL, dosage TEXT NOT NULL DEFAULT '', unit TEXT NOT NULL DEFAULT '');",
		`CREATE TABLE IF NOT EXISTS medication_reminders (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			medicine_id BIGINT REFERENCES medicines(id),
			medicine_name TEXT NOT NULL,
			dosage TEXT NOT NULL DEFAULT '',
			unit TEXT NOT NULL DEFAULT '',
			meal_timing TEXT NOT NULL DEFAULT '',
			frequency TEXT NOT NULL,
			days_of_week JSONB,
			start_date DATE NOT NULL,
			end_date DATE,
			time_slots JSONB NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_reminders_user_id ON medication_reminders(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_reminders_active ON medication_reminders(is_active);",
		`CREATE TABLE IF NOT EXISTS adherence_events (
			id BIGSERIAL PRIMARY KEY,
			reminder_id BIGINT NOT NULL REFERENCES medication_reminders(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			scheduled_time TIMESTAMPTZ NOT NULL,
			action_time TIMESTAMPTZ,
			action_type TEXT NOT NULL,
			snooze_minutes INT,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_adherence_instant ON adherence_events(reminder_id, scheduled_time, id DESC);",
		"CREATE INDEX IF NOT EXISTS idx_adherence_user_time ON adherence_events(user_id, scheduled_time);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Legacy rows stored time slots as a JSON array of bare "HH:MM" strings.
	// Upgrade them once to the structured slot form.
	if _, err := d.sql.ExecContext(ctx, `
		UPDATE medication_reminders
		SET time_slots = (
			SELECT jsonb_agg(jsonb_build_object('time', elem))
			FROM jsonb_array_elements_text(time_slots) AS elem
		)
		WHERE jsonb_typeof(time_slots) = 'array'
		  AND jsonb_typeof(time_slots -> 0) = 'string';`); err != nil {
		return fmt.Errorf("migrate: upgrade legacy time slots: %w", err)
	}
	return nil
}
