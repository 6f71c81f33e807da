package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is the in-process append-only repository used when no database
// is configured, and in tests. It keeps at most limit events.
type MemoryRepo struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

const defaultMemoryLimit = 1000

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{limit: defaultMemoryLimit} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if over := len(r.events) - r.limit; r.limit > 0 && over > 0 {
		r.events = append(r.events[:0:0], r.events[over:]...)
	}
	return nil
}

// Recent returns up to n events, newest first.
func (r *MemoryRepo) Recent(ctx context.Context, n int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n > len(r.events) {
		n = len(r.events)
	}
	out := make([]Event, 0, n)
	for i := len(r.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}

func (r *MemoryRepo) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
