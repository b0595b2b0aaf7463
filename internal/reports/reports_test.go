package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, "Safe", Classify(0))
	assert.Equal(t, "Safe", Classify(1))
	assert.Equal(t, "Warning", Classify(2))
	assert.Equal(t, "Barred", Classify(3))
	assert.Equal(t, "Barred", Classify(7))
}

func TestDateRange(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.Local)

	start, end := DateRange("Today", now)
	assert.Equal(t, "2026-03-02", start)
	assert.Equal(t, "2026-03-02", end)

	start, _ = DateRange("Week", now)
	assert.Equal(t, "2026-02-23", start)

	start, _ = DateRange("Month", now)
	assert.Equal(t, "2026-01-31", start)

	start, end = DateRange("anything", now)
	assert.Equal(t, "0001-01-01", start)
	assert.Equal(t, "2026-03-02", end)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 66.7, round1(66.666))
	assert.Equal(t, 0.0, round1(0))
	assert.Equal(t, 100.0, round1(100))
}
