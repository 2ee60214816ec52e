package repository

import (
    "context"
    "database/sql"

    "github.com/gatekit/checkin/internal/model"
)

// EventRepo reads event metadata owned by the event-management
// collaborator.  The check-in service never creates or mutates events.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Get loads one event together with its registration count, computed fresh
// as the number of non-cancelled tickets.  Returns ErrNotFound when the
// event does not exist.
func (r *EventRepo) Get(ctx context.Context, eventID uint64) (*model.Event, error) {
    const q = `SELECT e.id, e.name, e.starts_at, e.ends_at,
                      (SELECT COUNT(*) FROM tickets t WHERE t.event_id = e.id AND t.status <> 'CANCELLED')
               FROM events e
               WHERE e.id = ?`
    var ev model.Event
    var startsAt, endsAt sql.NullTime
    err := r.db.QueryRowContext(ctx, q, eventID).Scan(&ev.ID, &ev.Name, &startsAt, &endsAt, &ev.RegisteredCount)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, ErrNotFound
        }
        return nil, err
    }
    if startsAt.Valid {
        t := startsAt.Time.UTC()
        ev.StartsAt = &t
    }
    if endsAt.Valid {
        t := endsAt.Time.UTC()
        ev.EndsAt = &t
    }
    return &ev, nil
}
