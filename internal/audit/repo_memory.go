package audit

import (
    "context"
    "sync"
)

// MemoryRepo is an in-memory append-only repository useful for tests.  It
// is not intended for production use.
type MemoryRepo struct {
    mu      sync.Mutex
    entries []Entry
}

// NewMemoryRepo returns an empty in-memory repository.
func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

// Append stores the entry.  It never fails.
func (r *MemoryRepo) Append(ctx context.Context, e Entry) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.entries = append(r.entries, e)
    return nil
}

// Entries returns a copy of everything appended so far, in append order.
func (r *MemoryRepo) Entries() []Entry {
    r.mu.Lock()
    defer r.mu.Unlock()
    out := make([]Entry, len(r.entries))
    copy(out, r.entries)
    return out
}

// ByAction returns the appended entries carrying the given action.
func (r *MemoryRepo) ByAction(action Action) []Entry {
    r.mu.Lock()
    defer r.mu.Unlock()
    var out []Entry
    for _, e := range r.entries {
        if e.Action == action {
            out = append(out, e)
        }
    }
    return out
}
