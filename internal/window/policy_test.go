package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      float64
	}{
		{"empty", 0, 20, 0},
		{"half", 10, 20, 50},
		{"full", 20, 20, 100},
		{"over capacity clamps", 25, 20, 100},
		{"zero total", 5, 0, 0},
		{"negative completed", -3, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentage(tt.completed, tt.total), 1e-9)
		})
	}
}

func TestPercentage_Monotonic(t *testing.T) {
	prev := -1.0
	for completed := 0; completed <= 2*TotalDays; completed++ {
		p := Percentage(completed, TotalDays)
		assert.GreaterOrEqual(t, p, prev, "completed=%d", completed)
		assert.LessOrEqual(t, p, 100.0)
		prev = p
	}
}

func TestIsComplete(t *testing.T) {
	assert.False(t, IsComplete(19, 20))
	assert.True(t, IsComplete(20, 20))
	assert.True(t, IsComplete(21, 20))
	assert.Equal(t, 20, Days())
}

func TestCompletedDays(t *testing.T) {
	assert.Equal(t, 0, CompletedDays(-1, 20))
	assert.Equal(t, 7, CompletedDays(7, 20))
	assert.Equal(t, 20, CompletedDays(26, 20))
}

func TestInRange(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, InRange(start, start))
	assert.True(t, InRange(start, time.Date(2024, 5, 20, 23, 59, 0, 0, time.UTC)))
	assert.False(t, InRange(start, time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC)))
	assert.False(t, InRange(start, time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-20", DateKey(EndDate(start)))
}

func TestDates(t *testing.T) {
	start := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)
	dates := Dates(start)

	require.Len(t, dates, TotalDays)
	assert.Equal(t, "2024-05-01", DateKey(dates[0]))
	assert.Equal(t, "2024-05-20", DateKey(dates[TotalDays-1]))
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, 24*time.Hour, dates[i].Sub(dates[i-1]))
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-05-22")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("22/05/2024")
	assert.Error(t, err)
}
