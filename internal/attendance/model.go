package attendance

import "time"

// Student is referenced, never owned, by attendance records.
type Student struct {
	ID    string `json:"student_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Course owns zero or more schedule windows.
type Course struct {
	Code         string `json:"course_code"`
	Name         string `json:"course_name"`
	Instructor   string `json:"instructor,omitempty"`
	PasswordHash string `json:"-"`
}

// Record is one attendance mark. At most one exists per
// (student, course, calendar day); the service enforces this, not the store.
type Record struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseCode string    `json:"course_code"`
	MarkedAt   time.Time `json:"marked_at"`
	Day        string    `json:"day"`
	Status     string    `json:"status"`
	Method     string    `json:"method"`
}

const (
	StatusPresent = "Present"

	MethodCamera = "Camera"
	MethodManual = "Manual"
	MethodAuto   = "Auto"
)

// DayOf formats t as the local calendar day records are keyed on.
func DayOf(t time.Time) string {
	return t.Format("2006-01-02")
}
