package reports

import (
	"context"
	"database/sql"
	"time"

	"rollcall/internal/attendance"
)

// Repository serves the read-only reporting queries. It never writes
// attendance; all mutation goes through the attendance service.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a reporting repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// LiveEntry is one row of today's feed.
type LiveEntry struct {
	StudentName string    `json:"name"`
	StudentID   string    `json:"student_id"`
	CourseName  string    `json:"course_name"`
	MarkedAt    time.Time `json:"timestamp"`
	Status      string    `json:"status"`
}

// Live returns today's records, newest first. Manual entries are included.
func (r *Repository) Live(ctx context.Context, now time.Time) ([]LiveEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.name, s.student_id, COALESCE(c.course_name, a.course_code), a.marked_at, a.status
		FROM attendance_log a
		JOIN students s ON s.student_id = a.student_id
		LEFT JOIN courses c ON c.course_code = a.course_code
		WHERE a.day = $1
		ORDER BY a.marked_at DESC
	`, attendance.DayOf(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LiveEntry
	for rows.Next() {
		var e LiveEntry
		if err := rows.Scan(&e.StudentName, &e.StudentID, &e.CourseName, &e.MarkedAt, &e.Status); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats aggregates the dashboard headline numbers over a date range filter.
type Stats struct {
	TotalAttendance int     `json:"total_attendance"`
	ActiveCourses   int     `json:"active_courses"`
	UniqueStudents  int     `json:"unique_students"`
	AvgAttendance   float64 `json:"avg_attendance"`
}

// Stats computes totals for the Today | Week | Month | All filter.
func (r *Repository) Stats(ctx context.Context, filter string, now time.Time) (Stats, error) {
	start, end := DateRange(filter, now)
	row := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'Present'),
			COUNT(DISTINCT course_code),
			COUNT(DISTINCT student_id)
		FROM attendance_log
		WHERE day BETWEEN $1 AND $2
	`, start, end)

	var s Stats
	if err := row.Scan(&s.TotalAttendance, &s.ActiveCourses, &s.UniqueStudents); err != nil {
		return Stats{}, err
	}
	if s.ActiveCourses > 0 {
		s.AvgAttendance = round1(float64(s.TotalAttendance) / float64(s.ActiveCourses))
	}
	return s, nil
}

// CourseCount is one chart bar: attendance volume per course.
type CourseCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ChartData returns per-course attendance counts over the filter range,
// including courses with zero.
func (r *Repository) ChartData(ctx context.Context, filter string, now time.Time) ([]CourseCount, error) {
	start, end := DateRange(filter, now)
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.course_code, COUNT(a.id)
		FROM courses c
		LEFT JOIN attendance_log a
			ON a.course_code = c.course_code AND a.day BETWEEN $1 AND $2
		GROUP BY c.course_code
		ORDER BY c.course_code
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CourseCount
	for rows.Next() {
		var c CourseCount
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// HistoryRow is one lecture day in a course's history.
type HistoryRow struct {
	Date       string  `json:"date"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Percentage float64 `json:"percentage"`
}

// History returns per-date presence against the course's registration count.
func (r *Repository) History(ctx context.Context, courseCode string) ([]HistoryRow, error) {
	var registered int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE course_code = $1`, courseCode,
	).Scan(&registered); err != nil {
		return nil, err
	}
	if registered == 0 {
		registered = 1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT day, COUNT(DISTINCT student_id)
		FROM attendance_log
		WHERE course_code = $1
		GROUP BY day
		ORDER BY day DESC
	`, courseCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.Date, &h.Present); err != nil {
			return nil, err
		}
		h.Absent = registered - h.Present
		h.Percentage = round1(float64(h.Present) / float64(registered) * 100)
		out = append(out, h)
	}
	return out, rows.Err()
}

// RollEntry is one student's Present/Absent state for a course+date.
type RollEntry struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}

// DailyDetail returns the full roll for a course on a date.
func (r *Repository) DailyDetail(ctx context.Context, courseCode, date string) ([]RollEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.student_id, s.name,
			CASE WHEN a.id IS NOT NULL THEN 'Present' ELSE 'Absent' END
		FROM students s
		JOIN registrations g ON g.student_id = s.student_id
		LEFT JOIN attendance_log a
			ON a.student_id = s.student_id AND a.course_code = $1 AND a.day = $2
		WHERE g.course_code = $1
		ORDER BY s.student_id
	`, courseCode, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RollEntry
	for rows.Next() {
		var e RollEntry
		if err := rows.Scan(&e.StudentID, &e.Name, &e.Status); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Dates lists the days a course has records for, newest first, always
// including today so the UI can open the current roll.
func (r *Repository) Dates(ctx context.Context, courseCode string, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT day FROM attendance_log WHERE course_code = $1 ORDER BY day DESC
	`, courseCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	today := attendance.DayOf(now)
	dates := []string{}
	seenToday := false
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		if d == today {
			seenToday = true
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !seenToday {
		dates = append([]string{today}, dates...)
	}
	return dates, nil
}

// RiskRow is one student's standing in the risk report.
type RiskRow struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	Attended int    `json:"attended"`
	Absent   int    `json:"absent"`
	Status   string `json:"status"`
}

// Risk classifies every registered student by absences against the number of
// distinct lecture days held so far.
func (r *Repository) Risk(ctx context.Context, courseCode string) ([]RiskRow, error) {
	var lectures int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT day) FROM attendance_log WHERE course_code = $1`, courseCode,
	).Scan(&lectures); err != nil {
		return nil, err
	}
	if lectures == 0 {
		lectures = 1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT s.name, s.student_id, COUNT(a.id)
		FROM students s
		JOIN registrations g ON g.student_id = s.student_id
		LEFT JOIN attendance_log a
			ON a.student_id = s.student_id AND a.course_code = $1
		WHERE g.course_code = $1
		GROUP BY s.student_id, s.name
		ORDER BY s.student_id
	`, courseCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RiskRow
	for rows.Next() {
		var row RiskRow
		if err := rows.Scan(&row.Name, &row.ID, &row.Attended); err != nil {
			return nil, err
		}
		row.Absent = lectures - row.Attended
		row.Status = Classify(row.Absent)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListStudents returns id and name for every student.
func (r *Repository) ListStudents(ctx context.Context) ([]attendance.Student, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT student_id, name, COALESCE(email, '') FROM students ORDER BY student_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []attendance.Student
	for rows.Next() {
		var s attendance.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Email); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListCourses returns every course without its credential hash.
func (r *Repository) ListCourses(ctx context.Context) ([]attendance.Course, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT course_code, course_name, COALESCE(instructor, '') FROM courses ORDER BY course_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []attendance.Course
	for rows.Next() {
		var c attendance.Course
		if err := rows.Scan(&c.Code, &c.Name, &c.Instructor); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Classify maps an absence count to a risk band.
func Classify(absent int) string {
	switch {
	case absent >= 3:
		return "Barred"
	case absent == 2:
		return "Warning"
	default:
		return "Safe"
	}
}

// DateRange converts a dashboard filter into an inclusive [start, end] day
// pair. Unknown filters mean "all time".
func DateRange(filter string, now time.Time) (string, string) {
	end := attendance.DayOf(now)
	switch filter {
	case "Today":
		return end, end
	case "Week":
		return attendance.DayOf(now.AddDate(0, 0, -7)), end
	case "Month":
		return attendance.DayOf(now.AddDate(0, 0, -30)), end
	default:
		return "0001-01-01", end
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
