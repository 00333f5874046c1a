package monitor

import "time"

// HistoryEntry is one recorded check outcome.
type HistoryEntry struct {
	// Timestamp is when the check was performed.
	Timestamp time.Time

	// Status is the reported status after the check was applied.
	Status Status

	// ResponseTime is the total elapsed time of the logical check.
	ResponseTime time.Duration

	// Error is the failure message, empty for successful checks.
	Error string
}

// HistorySummary aggregates a service's retained history window.
type HistorySummary struct {
	// Checks is the number of retained entries.
	Checks int

	// Failures is the number of retained entries that failed.
	Failures int

	// Uptime is the fraction of retained checks that succeeded, in [0, 1].
	// Zero when no checks are retained.
	Uptime float64

	// AvgResponseTime is the mean response time across retained entries.
	AvgResponseTime time.Duration
}

// ring is a fixed-capacity FIFO buffer of history entries. Appending beyond
// capacity evicts the oldest entry. Not safe for concurrent use; the Monitor
// guards each ring with its registry lock.
type ring struct {
	entries []HistoryEntry
	head    int // next write index
	size    int
}

func newRing(capacity int) *ring {
	return &ring{entries: make([]HistoryEntry, capacity)}
}

func (r *ring) append(e HistoryEntry) {
	r.entries[r.head] = e
	r.head = (r.head + 1) % len(r.entries)
	if r.size < len(r.entries) {
		r.size++
	}
}

func (r *ring) len() int {
	return r.size
}

// tail returns the most recent n entries in chronological order, oldest
// first. n larger than the retained size returns everything retained.
func (r *ring) tail(n int) []HistoryEntry {
	if n > r.size {
		n = r.size
	}
	if n <= 0 {
		return []HistoryEntry{}
	}

	out := make([]HistoryEntry, n)
	start := r.head - n
	if start < 0 {
		start += len(r.entries)
	}
	for i := 0; i < n; i++ {
		out[i] = r.entries[(start+i)%len(r.entries)]
	}
	return out
}

// summarize folds the retained window into a HistorySummary.
func (r *ring) summarize() HistorySummary {
	s := HistorySummary{Checks: r.size}
	if r.size == 0 {
		return s
	}

	var total time.Duration
	for _, e := range r.tail(r.size) {
		if e.Error != "" {
			s.Failures++
		}
		total += e.ResponseTime
	}

	s.Uptime = float64(s.Checks-s.Failures) / float64(s.Checks)
	s.AvgResponseTime = total / time.Duration(s.Checks)
	return s
}
