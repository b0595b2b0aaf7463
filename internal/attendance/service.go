package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rollcall/internal/schedule"
)

// Status discriminates attendance outcomes. Every value except StatusError is
// an expected business result, not a failure.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusAlreadyMarked   Status = "already_marked"
	StatusNotRegistered   Status = "not_registered"
	StatusNotFound        Status = "not_found"
	StatusNoActiveLecture Status = "no_active_lecture"
	StatusError           Status = "error"
)

// Outcome is the structured result of a marking attempt. On success it carries
// everything the caller needs to schedule the confirmation email; the service
// itself never sends one.
type Outcome struct {
	Status      Status    `json:"status"`
	Message     string    `json:"message"`
	StudentName string    `json:"student_name,omitempty"`
	Email       string    `json:"-"`
	CourseName  string    `json:"course_name,omitempty"`
	MarkedAt    time.Time `json:"marked_at,omitempty"`
}

// Service runs the attendance decision pipeline: schedule resolution,
// eligibility and duplicate checks, and the record write, with the checks and
// the write inside one store transaction.
type Service struct {
	store Store
	clock func() time.Time
	log   zerolog.Logger
}

// NewService creates a service over the given store.
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		clock: time.Now,
		log:   log,
	}
}

// Mark records attendance for a student standing in a room right now.
func (s *Service) Mark(ctx context.Context, studentID, roomID string) Outcome {
	if studentID == "" || roomID == "" {
		return Outcome{Status: StatusError, Message: "student id and room number are required"}
	}

	now := s.clock()
	windows, err := s.store.WindowsForRoom(ctx, roomID)
	if err != nil {
		return s.internalError(err, "loading schedule", roomID)
	}
	active := schedule.Resolve(windows, now)
	if active == nil {
		return Outcome{Status: StatusNoActiveLecture, Message: "No active lecture found at this time!"}
	}

	key := DayKey{StudentID: studentID, CourseCode: active.CourseCode, Day: DayOf(now)}
	var out Outcome
	err = s.store.InTx(ctx, key, func(ctx context.Context, tx Tx) error {
		student, err := tx.Student(ctx, studentID)
		if err != nil {
			return err
		}
		if student == nil {
			s.log.Warn().Str("student_id", studentID).Msg("mark attempt with unknown student id")
			out = Outcome{Status: StatusNotFound, Message: "Student ID not found"}
			return nil
		}

		registered, err := tx.Registered(ctx, studentID, active.CourseCode)
		if err != nil {
			return err
		}
		if !registered {
			out = Outcome{
				Status:  StatusNotRegistered,
				Message: fmt.Sprintf("%s is not registered for %s", student.Name, active.CourseCode),
			}
			return nil
		}

		marked, err := tx.Exists(ctx, key)
		if err != nil {
			return err
		}
		if marked {
			out = Outcome{Status: StatusAlreadyMarked, Message: "Already marked: " + student.Name}
			return nil
		}

		rec := Record{
			ID:         uuid.NewString(),
			StudentID:  studentID,
			CourseCode: active.CourseCode,
			MarkedAt:   now,
			Day:        key.Day,
			Status:     StatusPresent,
			Method:     MethodCamera,
		}
		if err := tx.Insert(ctx, rec); err != nil {
			return err
		}

		out = Outcome{
			Status:      StatusSuccess,
			Message:     "Welcome " + student.Name,
			StudentName: student.Name,
			Email:       student.Email,
			CourseName:  active.CourseName,
			MarkedAt:    now,
		}
		return nil
	})
	if err != nil {
		return s.internalError(err, "marking attendance", studentID)
	}
	if out.Status == StatusSuccess {
		s.log.Info().Str("student_id", studentID).Str("course", active.CourseCode).Msg("attendance marked")
	}
	return out
}

// ManualEdit applies an operator correction for an arbitrary date. Schedule
// resolution and the registration gate are bypassed; the duplicate rule is
// not. date is "YYYY-MM-DD" and defaults to today when empty. Any status other
// than Present clears the day.
func (s *Service) ManualEdit(ctx context.Context, studentID, courseCode, status, date string) Outcome {
	if studentID == "" || courseCode == "" {
		return Outcome{Status: StatusError, Message: "student id and course code are required"}
	}

	now := s.clock()
	day := DayOf(now)
	markedAt := now
	if date != "" && date != day {
		parsed, err := time.ParseInLocation("2006-01-02", date, now.Location())
		if err != nil {
			return Outcome{Status: StatusError, Message: "invalid date, expected YYYY-MM-DD"}
		}
		day = date
		// The real event time is unknown for backdated edits; a nominal
		// mid-morning timestamp stands in.
		markedAt = parsed.Add(9 * time.Hour)
	}

	key := DayKey{StudentID: studentID, CourseCode: courseCode, Day: day}
	var out Outcome
	err := s.store.InTx(ctx, key, func(ctx context.Context, tx Tx) error {
		if status != StatusPresent {
			if err := tx.Delete(ctx, key); err != nil {
				return err
			}
			out = Outcome{Status: StatusSuccess, Message: fmt.Sprintf("Marked absent for %s", day)}
			return nil
		}

		student, err := tx.Student(ctx, studentID)
		if err != nil {
			return err
		}
		if student == nil {
			out = Outcome{Status: StatusNotFound, Message: "Student ID not found"}
			return nil
		}
		course, err := tx.Course(ctx, courseCode)
		if err != nil {
			return err
		}
		if course == nil {
			out = Outcome{Status: StatusNotFound, Message: "Course not found"}
			return nil
		}

		exists, err := tx.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			out = Outcome{Status: StatusSuccess, Message: "Already marked: " + student.Name}
			return nil
		}

		rec := Record{
			ID:         uuid.NewString(),
			StudentID:  studentID,
			CourseCode: courseCode,
			MarkedAt:   markedAt,
			Day:        day,
			Status:     StatusPresent,
			Method:     MethodManual,
		}
		if err := tx.Insert(ctx, rec); err != nil {
			return err
		}

		out = Outcome{
			Status:      StatusSuccess,
			Message:     fmt.Sprintf("Marked present for %s", day),
			StudentName: student.Name,
			Email:       student.Email,
			CourseName:  course.Name,
			MarkedAt:    markedAt,
		}
		return nil
	})
	if err != nil {
		return s.internalError(err, "applying manual edit", studentID)
	}
	return out
}

func (s *Service) internalError(err error, op, subject string) Outcome {
	s.log.Error().Err(err).Str("op", op).Str("subject", subject).Msg("store failure")
	return Outcome{Status: StatusError, Message: "Internal database error"}
}
