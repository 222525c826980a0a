package window

import (
	"time"

	"github.com/wonny/symptrack/internal/contracts"
)

// Ingest returns the window that results from recording entries into w, and
// the per-entry outcome. w itself is never modified.
//
// An entry is accepted when its date is in range and not yet present; the
// first write for a date wins, including duplicates within the same call.
// Once TotalDays dates are recorded every later entry is rejected.
func Ingest(w *contracts.Window, entries []contracts.Entry, now time.Time) (*contracts.Window, contracts.IngestResult) {
	var result contracts.IngestResult
	next := Clone(w)

	for _, e := range entries {
		key := DateKey(e.Date)
		switch {
		case !InRange(next.StartDate, e.Date):
			result.OutOfRange++
		case next.Has(key):
			result.Duplicate++
		case next.Count() >= next.TotalDays:
			result.OverCapacity++
		default:
			e = cloneEntry(e)
			e.Date = Day(e.Date)
			next.Entries[key] = e
			result.Accepted++
			continue
		}
		result.Rejected++
	}

	if result.Accepted > 0 {
		next.UpdatedAt = now
	}
	return next, result
}
