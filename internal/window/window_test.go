package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/symptrack/internal/contracts"
)

var may1 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func dailyEntries(start time.Time, n int) []contracts.Entry {
	entries := make([]contracts.Entry, n)
	for i := range entries {
		entries[i] = contracts.Entry{
			Date:    start.AddDate(0, 0, i),
			Metrics: map[string]float64{"fatigue": float64(i % 10)},
		}
	}
	return entries
}

func TestIngest_FullWindow(t *testing.T) {
	w := New("u-1", may1, may1)

	next, res := Ingest(w, dailyEntries(may1, 20), may1)
	assert.Equal(t, 20, res.Accepted)
	assert.Equal(t, 0, res.Rejected)

	p := Progress(next)
	assert.Equal(t, 20, p.CompletedDays)
	assert.True(t, p.IsComplete)
	assert.Equal(t, 100.0, p.Percentage)
	assert.Equal(t, contracts.StateComplete, p.State)
	assert.Equal(t, 0, p.RemainingDays)

	// 21st entry for 2024-05-22 is rejected
	next2, res2 := Ingest(next, []contracts.Entry{{Date: time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC)}}, may1)
	assert.Equal(t, 0, res2.Accepted)
	assert.Equal(t, 1, res2.Rejected)
	assert.Equal(t, 20, next2.Count())

	// original value untouched
	assert.Equal(t, 0, w.Count())
}

func TestIngest_DuplicatesFirstWriteWins(t *testing.T) {
	w := New("u-1", may1, may1)
	first := contracts.Entry{Date: may1, Note: "first", Metrics: map[string]float64{"headache": 2}}
	second := contracts.Entry{Date: may1.Add(6 * time.Hour), Note: "second"}

	next, res := Ingest(w, []contracts.Entry{first, second}, may1)
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 1, res.Duplicate)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, "first", next.Entries["2024-05-01"].Note)

	// re-ingesting the same entry is a no-op on state
	again, res := Ingest(next, []contracts.Entry{first}, may1)
	assert.Equal(t, 0, res.Accepted)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 1, again.Count())
}

func TestIngest_OutOfRange(t *testing.T) {
	w := New("u-1", may1, may1)
	entries := []contracts.Entry{
		{Date: may1.AddDate(0, 0, -1)},
		{Date: may1.AddDate(0, 0, 20)},
		{Date: may1.AddDate(0, 0, 3)},
	}

	next, res := Ingest(w, entries, may1)
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 2, res.OutOfRange)
	assert.Equal(t, 2, res.Rejected)
	assert.True(t, next.Has("2024-05-04"))
}

func TestIngest_NeverExceedsCapacity(t *testing.T) {
	w := New("u-1", may1, may1)
	for round := 0; round < 5; round++ {
		w, _ = Ingest(w, dailyEntries(may1.AddDate(0, 0, round*3-2), 9), may1)
		assert.LessOrEqual(t, w.Count(), TotalDays)
	}
}

func TestIngest_OverCapacity(t *testing.T) {
	// a window carrying a smaller capacity still stops at its cap
	w := New("u-1", may1, may1)
	w.TotalDays = 3

	next, res := Ingest(w, dailyEntries(may1, 5), may1)
	assert.Equal(t, 3, res.Accepted)
	assert.Equal(t, 2, res.OverCapacity)
	assert.Equal(t, 3, next.Count())
}

func TestCleared(t *testing.T) {
	w, _ := Ingest(New("u-1", may1, may1), dailyEntries(may1, 5), may1)

	c := Cleared(w, may1)
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, w.StartDate, c.StartDate)
	assert.Equal(t, w.ID, c.ID)
	assert.Equal(t, 5, w.Count())
}

func TestClamp(t *testing.T) {
	raw := &contracts.Window{
		UserID:    "u-1",
		StartDate: may1.Add(9 * time.Hour),
		TotalDays: 30,
		Entries:   map[string]contracts.Entry{},
	}
	// 25 days from Apr 29: two before start, 20 in range, three after
	for _, e := range dailyEntries(may1.AddDate(0, 0, -2), 25) {
		raw.Entries[DateKey(e.Date)] = e
	}

	w := Clamp(raw)
	require.NotEmpty(t, w.ID)
	assert.Equal(t, TotalDays, w.TotalDays)
	assert.Equal(t, may1, w.StartDate)
	assert.Equal(t, TotalDays, w.Count())
	assert.False(t, w.Has("2024-04-30"))
	assert.False(t, w.Has("2024-05-21"))
	assert.True(t, w.Has("2024-05-01"))
	assert.True(t, w.Has("2024-05-20"))
}

func TestSortedEntries(t *testing.T) {
	w, _ := Ingest(New("u-1", may1, may1), []contracts.Entry{
		{Date: may1.AddDate(0, 0, 4)},
		{Date: may1},
		{Date: may1.AddDate(0, 0, 2)},
	}, may1)

	entries := SortedEntries(w)
	require.Len(t, entries, 3)
	assert.Equal(t, "2024-05-01", DateKey(entries[0].Date))
	assert.Equal(t, "2024-05-05", DateKey(entries[2].Date))
	assert.Len(t, Keys(w), 3)
}
