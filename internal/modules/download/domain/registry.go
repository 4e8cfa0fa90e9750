package domain

import (
	"slices"
	"sync"
)

// FailureRegistry collects the ids of messages that permanently failed during
// a run. It is owned by the run and handed into each download, never a
// process-wide singleton; ids are merged into the persisted config once, at
// shutdown. Adding the same id twice is a no-op.
type FailureRegistry struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

// NewFailureRegistry creates an empty registry.
func NewFailureRegistry() *FailureRegistry {
	return &FailureRegistry{ids: make(map[int64]struct{})}
}

// Add records a permanently failed message id.
func (r *FailureRegistry) Add(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[id] = struct{}{}
}

// Contains reports whether the id has been recorded.
func (r *FailureRegistry) Contains(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// IDs returns the recorded ids in ascending order.
func (r *FailureRegistry) IDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of recorded ids.
func (r *FailureRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}
