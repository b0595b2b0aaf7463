package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rollcall/internal/schedule"
)

// PostgresStore persists attendance data in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store over an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// WindowsForRoom returns every schedule window for a room joined with its
// course name. Day and time filtering stays in the resolver.
func (s *PostgresStore) WindowsForRoom(ctx context.Context, room string) ([]schedule.Window, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ls.id, ls.course_code, c.course_name, ls.room_number, ls.day_of_week, ls.start_time, ls.end_time
		FROM lecture_schedule ls
		JOIN courses c ON c.course_code = ls.course_code
		WHERE ls.room_number = $1
		ORDER BY ls.id
	`, room)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []schedule.Window
	for rows.Next() {
		var w schedule.Window
		if err := rows.Scan(&w.ID, &w.CourseCode, &w.CourseName, &w.RoomNumber, &w.DayOfWeek, &w.Start, &w.End); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// Course looks a course up outside any transaction; used by the auth
// boundary for credential checks. Returns nil when the code is unknown.
func (s *PostgresStore) Course(ctx context.Context, code string) (*Course, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT course_code, course_name, COALESCE(instructor, ''), password_hash
		FROM courses WHERE course_code = $1
	`, code)
	var c Course
	if err := row.Scan(&c.Code, &c.Name, &c.Instructor, &c.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// InTx wraps fn in a transaction holding an advisory lock derived from key.
// The lock serializes check-then-insert per (student, course, day) and is
// released with the transaction, so concurrent marks for the same key queue up
// instead of racing the duplicate check.
func (s *PostgresStore) InTx(ctx context.Context, key DayKey, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	lockKey := fmt.Sprintf("%s|%s|%s", key.StudentID, key.CourseCode, key.Day)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return rbErr
		}
		return err
	}
	return tx.Commit()
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Student(ctx context.Context, id string) (*Student, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT student_id, name, COALESCE(email, '') FROM students WHERE student_id = $1`, id)
	var st Student
	if err := row.Scan(&st.ID, &st.Name, &st.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

func (t *pgTx) Course(ctx context.Context, code string) (*Course, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT course_code, course_name, COALESCE(instructor, ''), password_hash
		FROM courses WHERE course_code = $1
	`, code)
	var c Course
	if err := row.Scan(&c.Code, &c.Name, &c.Instructor, &c.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (t *pgTx) Registered(ctx context.Context, studentID, courseCode string) (bool, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM registrations WHERE student_id = $1 AND course_code = $2)
	`, studentID, courseCode)
	var ok bool
	err := row.Scan(&ok)
	return ok, err
}

func (t *pgTx) Exists(ctx context.Context, key DayKey) (bool, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM attendance_log WHERE student_id = $1 AND course_code = $2 AND day = $3)
	`, key.StudentID, key.CourseCode, key.Day)
	var ok bool
	err := row.Scan(&ok)
	return ok, err
}

func (t *pgTx) Insert(ctx context.Context, rec Record) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO attendance_log (id, student_id, course_code, marked_at, day, status, method)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, rec.ID, rec.StudentID, rec.CourseCode, rec.MarkedAt, rec.Day, rec.Status, rec.Method)
	return err
}

func (t *pgTx) Delete(ctx context.Context, key DayKey) error {
	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM attendance_log WHERE student_id = $1 AND course_code = $2 AND day = $3
	`, key.StudentID, key.CourseCode, key.Day)
	return err
}
