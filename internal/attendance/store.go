package attendance

import (
	"context"

	"rollcall/internal/schedule"
)

// DayKey identifies the unit the duplicate rule protects: one student, one
// course, one calendar day.
type DayKey struct {
	StudentID  string
	CourseCode string
	Day        string
}

// Store is the persistence contract the decision pipeline runs against.
// Schedule and record reads outside the critical section go through the Store
// directly; everything between the eligibility checks and the write happens
// inside InTx.
type Store interface {
	// WindowsForRoom returns every schedule window attached to a room.
	WindowsForRoom(ctx context.Context, room string) ([]schedule.Window, error)

	// InTx runs fn inside one transaction serialized on key: two concurrent
	// calls for the same key never interleave between check and insert.
	InTx(ctx context.Context, key DayKey, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the lookups and mutations available inside the critical section.
type Tx interface {
	// Student returns nil when the id is unknown.
	Student(ctx context.Context, id string) (*Student, error)
	// Course returns nil when the code is unknown.
	Course(ctx context.Context, code string) (*Course, error)
	// Registered reports whether the (student, course) link exists.
	Registered(ctx context.Context, studentID, courseCode string) (bool, error)
	// Exists reports whether an attendance record exists for key.
	Exists(ctx context.Context, key DayKey) (bool, error)
	// Insert writes a new attendance record.
	Insert(ctx context.Context, rec Record) error
	// Delete removes any record for key. Deleting nothing is not an error.
	Delete(ctx context.Context, key DayKey) error
}
