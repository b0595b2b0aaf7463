package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a recurring weekly slot during which a course occupies a room.
// Start and End are wall-clock times ("09:00" or "09:00:00"), inclusive on
// both ends and always within a single day.
type Window struct {
	ID         int64
	CourseCode string
	CourseName string
	RoomNumber string
	DayOfWeek  string
	Start      string
	End        string
}

// Match identifies the course a resolved window belongs to.
type Match struct {
	WindowID   int64
	CourseCode string
	CourseName string
}

// Resolve picks the window covering now from the given room's windows, or nil
// when no lecture is in session. Overlapping windows are a data-quality issue,
// not an error: the lowest window ID wins so the result is deterministic.
func Resolve(windows []Window, now time.Time) *Match {
	day := now.Weekday().String()
	at := secondOfDay(now)

	var best *Window
	for i := range windows {
		w := &windows[i]
		if !strings.EqualFold(w.DayOfWeek, day) {
			continue
		}
		start, err := parseClock(w.Start)
		if err != nil {
			continue
		}
		end, err := parseClock(w.End)
		if err != nil {
			continue
		}
		if at < start || at > end {
			continue
		}
		if best == nil || w.ID < best.ID {
			best = w
		}
	}
	if best == nil {
		return nil
	}
	return &Match{WindowID: best.ID, CourseCode: best.CourseCode, CourseName: best.CourseName}
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// parseClock accepts "HH:MM" and "HH:MM:SS".
func parseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("bad clock value %q", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("bad clock value %q", s)
		}
		vals[i] = n
	}
	if vals[0] < 0 || vals[0] > 23 || vals[1] < 0 || vals[1] > 59 || vals[2] < 0 || vals[2] > 59 {
		return 0, fmt.Errorf("bad clock value %q", s)
	}
	return vals[0]*3600 + vals[1]*60 + vals[2], nil
}
