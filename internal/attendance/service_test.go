package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/schedule"
)

// Monday 2026-03-02 09:30 local, inside the seeded CS101 window.
var lectureTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.Local)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	store.AddStudent(Student{ID: "S1", Name: "Amina Khalid", Email: "amina@example.com"})
	store.AddStudent(Student{ID: "S2", Name: "Omar Farouk", Email: "omar@uni.edu"})
	store.AddCourse(Course{Code: "CS101", Name: "Intro to Computing"})
	store.AddCourse(Course{Code: "MA201", Name: "Linear Algebra"})
	store.Register("S1", "CS101")
	store.AddWindow(schedule.Window{
		ID: 1, CourseCode: "CS101", CourseName: "Intro to Computing",
		RoomNumber: "Hall_1", DayOfWeek: "Monday", Start: "09:00", End: "10:00",
	})

	svc := NewService(store, zerolog.Nop())
	svc.clock = func() time.Time { return lectureTime }
	return svc, store
}

func TestMarkSuccess(t *testing.T) {
	svc, store := newTestService(t)

	out := svc.Mark(context.Background(), "S1", "Hall_1")
	require.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "Welcome Amina Khalid", out.Message)
	assert.Equal(t, "amina@example.com", out.Email)
	assert.Equal(t, "Intro to Computing", out.CourseName)
	assert.Equal(t, lectureTime, out.MarkedAt)

	recs := store.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "CS101", recs[0].CourseCode)
	assert.Equal(t, MethodCamera, recs[0].Method)
	assert.Equal(t, StatusPresent, recs[0].Status)
	assert.Equal(t, "2026-03-02", recs[0].Day)
}

func TestMarkTwiceSameDayIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)

	first := svc.Mark(context.Background(), "S1", "Hall_1")
	second := svc.Mark(context.Background(), "S1", "Hall_1")

	assert.Equal(t, StatusSuccess, first.Status)
	assert.Equal(t, StatusAlreadyMarked, second.Status)
	assert.Equal(t, "Already marked: Amina Khalid", second.Message)
	assert.Len(t, store.Records(), 1)
}

func TestMarkUnregisteredStudent(t *testing.T) {
	svc, store := newTestService(t)

	out := svc.Mark(context.Background(), "S2", "Hall_1")
	assert.Equal(t, StatusNotRegistered, out.Status)
	assert.Contains(t, out.Message, "Omar Farouk")
	assert.Contains(t, out.Message, "CS101")
	assert.Empty(t, store.Records())
}

func TestMarkUnknownStudent(t *testing.T) {
	svc, store := newTestService(t)

	out := svc.Mark(context.Background(), "ghost", "Hall_1")
	assert.Equal(t, StatusNotFound, out.Status)
	assert.Equal(t, "Student ID not found", out.Message)
	assert.Empty(t, store.Records())
}

func TestMarkNoActiveLecture(t *testing.T) {
	svc, store := newTestService(t)
	svc.clock = func() time.Time { return time.Date(2026, 3, 2, 13, 0, 0, 0, time.Local) }

	out := svc.Mark(context.Background(), "S1", "Hall_1")
	assert.Equal(t, StatusNoActiveLecture, out.Status)
	assert.Empty(t, store.Records())

	// An unknown room behaves the same way.
	out = svc.Mark(context.Background(), "S1", "Hall_99")
	assert.Equal(t, StatusNoActiveLecture, out.Status)
}

func TestMarkConcurrentSingleWinner(t *testing.T) {
	svc, store := newTestService(t)

	const n = 16
	outcomes := make([]Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = svc.Mark(context.Background(), "S1", "Hall_1")
		}(i)
	}
	wg.Wait()

	var successes, duplicates int
	for _, out := range outcomes {
		switch out.Status {
		case StatusSuccess:
			successes++
		case StatusAlreadyMarked:
			duplicates++
		default:
			t.Fatalf("unexpected outcome %q", out.Status)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, duplicates)
	assert.Len(t, store.Records(), 1)
}

func TestManualEditRoundTrip(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	present := svc.ManualEdit(ctx, "S2", "MA201", "Present", "2026-02-10")
	require.Equal(t, StatusSuccess, present.Status)
	require.Len(t, store.Records(), 1)

	absent := svc.ManualEdit(ctx, "S2", "MA201", "Absent", "2026-02-10")
	assert.Equal(t, StatusSuccess, absent.Status)
	assert.Empty(t, store.Records())

	// Clearing an already-clear day is a no-op success.
	again := svc.ManualEdit(ctx, "S2", "MA201", "Absent", "2026-02-10")
	assert.Equal(t, StatusSuccess, again.Status)
}

func TestManualEditBackdatedTimestamp(t *testing.T) {
	svc, store := newTestService(t)

	out := svc.ManualEdit(context.Background(), "S1", "CS101", "Present", "2026-02-10")
	require.Equal(t, StatusSuccess, out.Status)

	recs := store.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "2026-02-10", recs[0].Day)
	assert.Equal(t, time.Date(2026, 2, 10, 9, 0, 0, 0, time.Local), recs[0].MarkedAt)
	assert.Equal(t, MethodManual, recs[0].Method)
}

func TestManualEditTodayUsesNow(t *testing.T) {
	svc, store := newTestService(t)

	out := svc.ManualEdit(context.Background(), "S1", "CS101", "Present", "")
	require.Equal(t, StatusSuccess, out.Status)

	recs := store.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, lectureTime, recs[0].MarkedAt)
	assert.Equal(t, "2026-03-02", recs[0].Day)
}

func TestManualEditSkipsRegistrationGate(t *testing.T) {
	svc, store := newTestService(t)

	// S2 is not registered for CS101; the manual path does not care.
	out := svc.ManualEdit(context.Background(), "S2", "CS101", "Present", "")
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Len(t, store.Records(), 1)
}

func TestManualEditExistingRecordKeptOnce(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first := svc.ManualEdit(ctx, "S1", "CS101", "Present", "")
	second := svc.ManualEdit(ctx, "S1", "CS101", "Present", "")

	require.Equal(t, StatusSuccess, first.Status)
	assert.Equal(t, StatusSuccess, second.Status)
	// No second record, and no email handed back to re-notify with.
	assert.Len(t, store.Records(), 1)
	assert.Empty(t, second.Email)
}

func TestManualEditUnknownSubjects(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	assert.Equal(t, StatusNotFound, svc.ManualEdit(ctx, "ghost", "CS101", "Present", "").Status)
	assert.Equal(t, StatusNotFound, svc.ManualEdit(ctx, "S1", "XX999", "Present", "").Status)
	assert.Empty(t, store.Records())
}

func TestManualEditRejectsBadDate(t *testing.T) {
	svc, _ := newTestService(t)

	out := svc.ManualEdit(context.Background(), "S1", "CS101", "Present", "10-02-2026")
	assert.Equal(t, StatusError, out.Status)
}
