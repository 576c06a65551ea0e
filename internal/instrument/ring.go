package instrument

import "sync"

// SpanRing keeps the most recent finished spans in a fixed-size ring.
// There is no persistence; this exists for live debugging of a running
// validator instance.
type SpanRing struct {
	mu      sync.Mutex
	records []SpanRecord
	next    int
	full    bool
}

func NewSpanRing(size int) *SpanRing {
	if size <= 0 {
		size = 500
	}
	return &SpanRing{records: make([]SpanRecord, size)}
}

// Add appends a record, overwriting the oldest when full.
func (r *SpanRing) Add(record SpanRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[r.next] = record
	r.next = (r.next + 1) % len(r.records)
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns up to limit records, newest first.
func (r *SpanRing) Recent(limit int) []SpanRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = len(r.records)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]SpanRecord, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (r.next - 1 - i + len(r.records)) % len(r.records)
		out = append(out, r.records[idx])
	}
	return out
}
