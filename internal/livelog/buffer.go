package livelog

import "cs2-telemetry/internal/domain"

// DefaultCapacity is the number of entries a Log retains.
const DefaultCapacity = 50

// ring is a fixed-capacity FIFO. Appending to a full ring evicts the oldest entry.
type ring struct {
	entries []domain.LogEntry
	start   int
	size    int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ring{entries: make([]domain.LogEntry, capacity)}
}

func (r *ring) push(e domain.LogEntry) {
	if r.size < len(r.entries) {
		r.entries[(r.start+r.size)%len(r.entries)] = e
		r.size++
		return
	}
	r.entries[r.start] = e
	r.start = (r.start + 1) % len(r.entries)
}

// snapshot returns the entries oldest first.
func (r *ring) snapshot() []domain.LogEntry {
	out := make([]domain.LogEntry, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.entries[(r.start+i)%len(r.entries)]
	}
	return out
}

func (r *ring) reset() {
	r.start = 0
	r.size = 0
	clear(r.entries)
}
