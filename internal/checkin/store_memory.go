package checkin

import (
    "context"
    "sync"
    "time"

    "github.com/gatekit/checkin/internal/model"
    "github.com/gatekit/checkin/internal/repository"
)

// In-memory store implementations useful for tests.  They are not intended
// for production use.  MemoryAttendanceStore enforces the same
// (event, ticket) uniqueness the database does, under a mutex, so the
// processor's concurrency behaviour can be exercised in-process.

type ticketEntry struct {
    ticket      model.Ticket
    participant model.Participant
}

// MemoryTicketStore is an in-memory TicketStore.
type MemoryTicketStore struct {
    mu      sync.Mutex
    tickets map[uint64]*ticketEntry
}

// NewMemoryTicketStore returns an empty in-memory ticket store.
func NewMemoryTicketStore() *MemoryTicketStore {
    return &MemoryTicketStore{tickets: make(map[uint64]*ticketEntry)}
}

// Add seeds one ticket with its owning participant.
func (s *MemoryTicketStore) Add(t model.Ticket, p model.Participant) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.tickets[t.ID] = &ticketEntry{ticket: t, participant: p}
}

// Lookup implements TicketStore.
func (s *MemoryTicketStore) Lookup(ctx context.Context, eventID, ticketID uint64) (*model.Ticket, *model.Participant, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.tickets[ticketID]
    if !ok || e.ticket.EventID != eventID {
        return nil, nil, repository.ErrNotFound
    }
    t := e.ticket
    p := e.participant
    return &t, &p, nil
}

// MarkAttended implements TicketStore.
func (s *MemoryTicketStore) MarkAttended(ctx context.Context, ticketID uint64, at time.Time) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.tickets[ticketID]
    if !ok {
        return repository.ErrNotFound
    }
    e.ticket.Attended = true
    ts := at.UTC()
    e.ticket.AttendanceTimestamp = &ts
    return nil
}

// Get returns the current state of one ticket, for test assertions.
func (s *MemoryTicketStore) Get(ticketID uint64) (model.Ticket, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.tickets[ticketID]
    if !ok {
        return model.Ticket{}, false
    }
    return e.ticket, true
}

type eventTicketKey struct {
    eventID  uint64
    ticketID uint64
}

// MemoryAttendanceStore is an in-memory AttendanceStore with the
// (event, ticket) uniqueness constraint of the real table.
type MemoryAttendanceStore struct {
    mu      sync.Mutex
    nextID  uint64
    byKey   map[eventTicketKey]*model.AttendanceRecord
    byID    map[uint64]*model.AttendanceRecord
}

// NewMemoryAttendanceStore returns an empty in-memory attendance store.
func NewMemoryAttendanceStore() *MemoryAttendanceStore {
    return &MemoryAttendanceStore{
        byKey: make(map[eventTicketKey]*model.AttendanceRecord),
        byID:  make(map[uint64]*model.AttendanceRecord),
    }
}

// Create implements AttendanceStore.  The first insert for a key wins;
// later inserts observe repository.ErrDuplicate, mirroring the unique key.
func (s *MemoryAttendanceStore) Create(ctx context.Context, rec *model.AttendanceRecord) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    key := eventTicketKey{rec.EventID, rec.TicketID}
    if _, exists := s.byKey[key]; exists {
        return repository.ErrDuplicate
    }
    s.nextID++
    rec.ID = s.nextID
    stored := *rec
    s.byKey[key] = &stored
    s.byID[rec.ID] = &stored
    return nil
}

// GetByEventAndTicket implements AttendanceStore.
func (s *MemoryAttendanceStore) GetByEventAndTicket(ctx context.Context, eventID, ticketID uint64) (*model.AttendanceRecord, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    rec, ok := s.byKey[eventTicketKey{eventID, ticketID}]
    if !ok {
        return nil, repository.ErrNotFound
    }
    out := *rec
    out.DuplicateAttempts = append([]model.DuplicateAttempt(nil), rec.DuplicateAttempts...)
    return &out, nil
}

// AppendDuplicateAttempt implements AttendanceStore.
func (s *MemoryAttendanceStore) AppendDuplicateAttempt(ctx context.Context, attendanceID uint64, staffID *uint64, attemptedAt time.Time) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    rec, ok := s.byID[attendanceID]
    if !ok {
        return repository.ErrNotFound
    }
    rec.DuplicateAttempts = append(rec.DuplicateAttempts, model.DuplicateAttempt{
        AttemptedAt: attemptedAt.UTC(),
        StaffID:     staffID,
    })
    return nil
}

// AppendNote implements AttendanceStore.
func (s *MemoryAttendanceStore) AppendNote(ctx context.Context, attendanceID uint64, note string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    rec, ok := s.byID[attendanceID]
    if !ok {
        return repository.ErrNotFound
    }
    if rec.Notes == "" {
        rec.Notes = note
    } else {
        rec.Notes += "\n" + note
    }
    return nil
}

// ListByEvent returns the event's records ordered by check-in time.
func (s *MemoryAttendanceStore) ListByEvent(ctx context.Context, eventID uint64) ([]model.AttendanceRecord, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.AttendanceRecord, 0, len(s.byKey))
    for key, rec := range s.byKey {
        if key.eventID == eventID {
            out = append(out, *rec)
        }
    }
    for i := 1; i < len(out); i++ {
        for j := i; j > 0 && out[j].CheckInTime.Before(out[j-1].CheckInTime); j-- {
            out[j], out[j-1] = out[j-1], out[j]
        }
    }
    return out, nil
}

// CheckedInTimes returns ticket ID to check-in time for one event.
func (s *MemoryAttendanceStore) CheckedInTimes(ctx context.Context, eventID uint64) (map[uint64]time.Time, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make(map[uint64]time.Time)
    for key, rec := range s.byKey {
        if key.eventID == eventID {
            out[key.ticketID] = rec.CheckInTime
        }
    }
    return out, nil
}

// Count returns the number of records for one event, for test assertions.
func (s *MemoryAttendanceStore) Count(eventID uint64) int {
    s.mu.Lock()
    defer s.mu.Unlock()
    n := 0
    for key := range s.byKey {
        if key.eventID == eventID {
            n++
        }
    }
    return n
}
