package report

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/gatekit/checkin/internal/model"
)

// minQueryLen is the shortest participant query accepted; anything shorter
// would sweep most of the registration list into the response.
const minQueryLen = 2

// ErrQueryTooShort is returned when a participant search query has fewer
// than two characters after trimming.
var ErrQueryTooShort = errors.New("search query must be at least 2 characters")

// TicketSearchSource finds non-cancelled tickets whose participant name or
// e-mail matches a query, case-insensitively.
type TicketSearchSource interface {
    Search(ctx context.Context, eventID uint64, query string) ([]model.ParticipantHit, error)
}

// CheckInSource reports which of an event's tickets are checked in and
// when.
type CheckInSource interface {
    CheckedInTimes(ctx context.Context, eventID uint64) (map[uint64]time.Time, error)
}

// Search locates participants for manual override: staff type a name or
// e-mail fragment and get matching tickets annotated with their current
// check-in state.
type Search struct {
    tickets    TicketSearchSource
    attendance CheckInSource
}

// NewSearch constructs a Search over the given sources.
func NewSearch(tickets TicketSearchSource, attendance CheckInSource) *Search {
    if tickets == nil || attendance == nil {
        panic("nil source passed to NewSearch")
    }
    return &Search{tickets: tickets, attendance: attendance}
}

// Participants runs the search and cross-references the attendance set so
// each hit carries its check-in status.
func (s *Search) Participants(ctx context.Context, eventID uint64, query string) ([]model.ParticipantHit, error) {
    query = strings.TrimSpace(query)
    if len(query) < minQueryLen {
        return nil, ErrQueryTooShort
    }
    hits, err := s.tickets.Search(ctx, eventID, query)
    if err != nil {
        return nil, err
    }
    checkedIn, err := s.attendance.CheckedInTimes(ctx, eventID)
    if err != nil {
        return nil, err
    }
    for i := range hits {
        if t, ok := checkedIn[hits[i].TicketID]; ok {
            hits[i].IsCheckedIn = true
            ts := t
            hits[i].CheckInTime = &ts
        }
    }
    return hits, nil
}
