package attendance

import (
	"context"
	"sync"

	"rollcall/internal/schedule"
)

// MemoryStore is a mutex-guarded in-memory Store for dev and testing.
// InTx holds the store lock for the whole critical section, which is a
// superset of the per-key serialization the contract asks for.
type MemoryStore struct {
	mu            sync.Mutex
	students      map[string]Student
	courses       map[string]Course
	registrations map[[2]string]bool
	windows       []schedule.Window
	records       []Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students:      make(map[string]Student),
		courses:       make(map[string]Course),
		registrations: make(map[[2]string]bool),
	}
}

// AddStudent seeds a student.
func (s *MemoryStore) AddStudent(st Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[st.ID] = st
}

// AddCourse seeds a course.
func (s *MemoryStore) AddCourse(c Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.Code] = c
}

// Register seeds a (student, course) registration.
func (s *MemoryStore) Register(studentID, courseCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations[[2]string{studentID, courseCode}] = true
}

// AddWindow seeds a schedule window.
func (s *MemoryStore) AddWindow(w schedule.Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = append(s.windows, w)
}

// Records returns a copy of all stored records.
func (s *MemoryStore) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// WindowsForRoom returns the windows attached to room.
func (s *MemoryStore) WindowsForRoom(_ context.Context, room string) ([]schedule.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []schedule.Window
	for _, w := range s.windows {
		if w.RoomNumber == room {
			out = append(out, w)
		}
	}
	return out, nil
}

// InTx runs fn under the store lock.
func (s *MemoryStore) InTx(ctx context.Context, _ DayKey, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &memTx{store: s})
}

// memTx mutates the store directly; rollback is not modeled, memory callers
// only fail before their first write.
type memTx struct {
	store *MemoryStore
}

func (t *memTx) Student(_ context.Context, id string) (*Student, error) {
	if st, ok := t.store.students[id]; ok {
		return &st, nil
	}
	return nil, nil
}

func (t *memTx) Course(_ context.Context, code string) (*Course, error) {
	if c, ok := t.store.courses[code]; ok {
		return &c, nil
	}
	return nil, nil
}

func (t *memTx) Registered(_ context.Context, studentID, courseCode string) (bool, error) {
	return t.store.registrations[[2]string{studentID, courseCode}], nil
}

func (t *memTx) Exists(_ context.Context, key DayKey) (bool, error) {
	for _, r := range t.store.records {
		if r.StudentID == key.StudentID && r.CourseCode == key.CourseCode && r.Day == key.Day {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) Insert(_ context.Context, rec Record) error {
	t.store.records = append(t.store.records, rec)
	return nil
}

func (t *memTx) Delete(_ context.Context, key DayKey) error {
	kept := t.store.records[:0]
	for _, r := range t.store.records {
		if r.StudentID == key.StudentID && r.CourseCode == key.CourseCode && r.Day == key.Day {
			continue
		}
		kept = append(kept, r)
	}
	t.store.records = kept
	return nil
}
