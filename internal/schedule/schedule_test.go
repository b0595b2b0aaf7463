package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Monday 2026-03-02
func monday(hour, min, sec int) time.Time {
	return time.Date(2026, 3, 2, hour, min, sec, 0, time.Local)
}

func TestResolveBoundariesInclusive(t *testing.T) {
	windows := []Window{
		{ID: 1, CourseCode: "CS101", CourseName: "Intro", RoomNumber: "Hall_1", DayOfWeek: "Monday", Start: "09:00", End: "10:00"},
	}

	cases := []struct {
		at    time.Time
		match bool
	}{
		{monday(8, 59, 59), false},
		{monday(9, 0, 0), true},
		{monday(9, 30, 0), true},
		{monday(10, 0, 0), true},
		{monday(10, 0, 1), false},
	}
	for _, tc := range cases {
		m := Resolve(windows, tc.at)
		if tc.match {
			assert.NotNil(t, m, "expected match at %s", tc.at)
			assert.Equal(t, "CS101", m.CourseCode)
		} else {
			assert.Nil(t, m, "expected no match at %s", tc.at)
		}
	}
}

func TestResolveWrongDay(t *testing.T) {
	windows := []Window{
		{ID: 1, CourseCode: "CS101", DayOfWeek: "Tuesday", Start: "09:00", End: "10:00"},
	}
	assert.Nil(t, Resolve(windows, monday(9, 30, 0)))
}

func TestResolveOverlapPicksLowestID(t *testing.T) {
	windows := []Window{
		{ID: 7, CourseCode: "MA201", DayOfWeek: "Monday", Start: "09:00", End: "11:00"},
		{ID: 3, CourseCode: "CS101", DayOfWeek: "Monday", Start: "08:00", End: "10:00"},
	}
	m := Resolve(windows, monday(9, 30, 0))
	assert.NotNil(t, m)
	assert.Equal(t, "CS101", m.CourseCode)
	assert.EqualValues(t, 3, m.WindowID)
}

func TestResolveSkipsMalformedTimes(t *testing.T) {
	windows := []Window{
		{ID: 1, CourseCode: "BAD", DayOfWeek: "Monday", Start: "nine", End: "10:00"},
		{ID: 2, CourseCode: "CS101", DayOfWeek: "Monday", Start: "09:00:00", End: "10:00:00"},
	}
	m := Resolve(windows, monday(9, 15, 0))
	assert.NotNil(t, m)
	assert.Equal(t, "CS101", m.CourseCode)
}

func TestResolveNoWindows(t *testing.T) {
	assert.Nil(t, Resolve(nil, monday(9, 0, 0)))
}
