package store

import (
	"context"
	"database/sql"
)

// statements are applied in order on startup; every one is idempotent so the
// migration can run on every boot.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS students (
		student_id TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		course_code   TEXT PRIMARY KEY,
		course_name   TEXT NOT NULL,
		instructor    TEXT,
		password_hash TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS lecture_schedule (
		id          BIGSERIAL PRIMARY KEY,
		course_code TEXT NOT NULL REFERENCES courses(course_code) ON DELETE CASCADE,
		room_number TEXT NOT NULL,
		day_of_week TEXT NOT NULL,
		start_time  TEXT NOT NULL,
		end_time    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_room_day ON lecture_schedule (room_number, day_of_week)`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id          BIGSERIAL PRIMARY KEY,
		student_id  TEXT NOT NULL REFERENCES students(student_id) ON DELETE CASCADE,
		course_code TEXT NOT NULL REFERENCES courses(course_code) ON DELETE CASCADE,
		UNIQUE (student_id, course_code)
	)`,
	// Same-day uniqueness of attendance is enforced by the service inside its
	// transaction, not by a constraint here.
	`CREATE TABLE IF NOT EXISTS attendance_log (
		id          TEXT PRIMARY KEY,
		student_id  TEXT NOT NULL REFERENCES students(student_id),
		course_code TEXT NOT NULL REFERENCES courses(course_code),
		marked_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		day         TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'Present',
		method      TEXT NOT NULL DEFAULT 'Camera'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_key ON attendance_log (student_id, course_code, day)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_day ON attendance_log (day)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
