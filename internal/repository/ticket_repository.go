package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/gatekit/checkin/internal/model"
)

// TicketRepo reads tickets and their owning participants from the external
// ticketing tables.  The only write this service ever performs on a ticket
// is the pair of derived attendance fields, set once after a successful
// check-in.  Ticket status is never modified here.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// Lookup resolves a (event, ticket) pair to the ticket's current state and
// its owning participant.  Returns ErrNotFound when no such ticket exists
// for the event.
func (r *TicketRepo) Lookup(ctx context.Context, eventID, ticketID uint64) (*model.Ticket, *model.Participant, error) {
    const q = `SELECT t.id, t.event_id, t.user_id, t.status, t.attended, t.attendance_timestamp, t.created_at,
                      u.id, u.full_name, u.email, u.phone, u.affiliation
               FROM tickets t
               JOIN users u ON u.id = t.user_id
               WHERE t.id = ? AND t.event_id = ?`
    var tk model.Ticket
    var p model.Participant
    var attTS sql.NullTime
    var createdAt time.Time
    err := r.db.QueryRowContext(ctx, q, ticketID, eventID).Scan(
        &tk.ID, &tk.EventID, &tk.UserID, &tk.Status, &tk.Attended, &attTS, &createdAt,
        &p.ID, &p.FullName, &p.Email, &p.Phone, &p.Affiliation,
    )
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil, ErrNotFound
        }
        return nil, nil, err
    }
    tk.CreatedAt = createdAt.UTC()
    if attTS.Valid {
        t := attTS.Time.UTC()
        tk.AttendanceTimestamp = &t
    }
    return &tk, &p, nil
}

// MarkAttended sets the derived attended flag and timestamp on a ticket.
// The caller treats this write as best-effort: the attendance record, not
// the ticket flag, is the source of truth for a check-in.
func (r *TicketRepo) MarkAttended(ctx context.Context, ticketID uint64, at time.Time) error {
    const q = `UPDATE tickets SET attended = 1, attendance_timestamp = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, at.UTC(), ticketID)
    return err
}

// CountRegistered counts the event's non-cancelled tickets.  The count is
// always computed fresh so dashboard denominators track the actual ticket
// set rather than a cached counter.
func (r *TicketRepo) CountRegistered(ctx context.Context, eventID uint64) (int64, error) {
    const q = `SELECT COUNT(*) FROM tickets WHERE event_id = ? AND status <> 'CANCELLED'`
    var n int64
    if err := r.db.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// Search performs a case-insensitive substring match over participant name
// and e-mail among the event's non-cancelled tickets.  Check-in annotation
// is cross-referenced by the caller against the attendance set.  Results
// are capped to keep the staff lookup snappy.
func (r *TicketRepo) Search(ctx context.Context, eventID uint64, query string) ([]model.ParticipantHit, error) {
    pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
    const q = `SELECT t.id, u.id, u.full_name, u.email, u.phone, u.affiliation
               FROM tickets t
               JOIN users u ON u.id = t.user_id
               WHERE t.event_id = ? AND t.status <> 'CANCELLED'
                 AND (LOWER(u.full_name) LIKE ? OR LOWER(u.email) LIKE ?)
               ORDER BY u.full_name, t.id
               LIMIT 50`
    rows, err := r.db.QueryContext(ctx, q, eventID, pattern, pattern)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ParticipantHit, 0, 16)
    for rows.Next() {
        var hit model.ParticipantHit
        if err := rows.Scan(&hit.TicketID, &hit.Participant.ID, &hit.Participant.FullName,
            &hit.Participant.Email, &hit.Participant.Phone, &hit.Participant.Affiliation); err != nil {
            return nil, err
        }
        out = append(out, hit)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// CheckedInRows loads one export row per attendance record for the event,
// including the scanning staff member's name when one is recorded.
func (r *TicketRepo) CheckedInRows(ctx context.Context, eventID uint64) ([]model.ExportRow, error) {
    const q = `SELECT u.id, u.full_name, u.email, u.phone, u.affiliation,
                      a.check_in_time, a.check_in_method, a.override_reason,
                      COALESCE(s.full_name, '')
               FROM attendance_records a
               JOIN users u ON u.id = a.user_id
               LEFT JOIN users s ON s.id = a.staff_id
               WHERE a.event_id = ?
               ORDER BY a.check_in_time, a.id`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ExportRow, 0, 64)
    for rows.Next() {
        var row model.ExportRow
        var checkInTime time.Time
        var reason sql.NullString
        if err := rows.Scan(&row.Participant.ID, &row.Participant.FullName, &row.Participant.Email,
            &row.Participant.Phone, &row.Participant.Affiliation,
            &checkInTime, &row.Method, &reason, &row.StaffName); err != nil {
            return nil, err
        }
        t := checkInTime.UTC()
        row.CheckInTime = &t
        if reason.Valid {
            row.OverrideReason = reason.String
        }
        row.CheckedIn = true
        out = append(out, row)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// NotCheckedInRows loads one export row per registered-but-absent ticket:
// non-cancelled tickets with no attendance record.
func (r *TicketRepo) NotCheckedInRows(ctx context.Context, eventID uint64) ([]model.ExportRow, error) {
    const q = `SELECT u.id, u.full_name, u.email, u.phone, u.affiliation
               FROM tickets t
               JOIN users u ON u.id = t.user_id
               LEFT JOIN attendance_records a ON a.event_id = t.event_id AND a.ticket_id = t.id
               WHERE t.event_id = ? AND t.status <> 'CANCELLED' AND a.id IS NULL
               ORDER BY u.full_name, t.id`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ExportRow, 0, 64)
    for rows.Next() {
        var row model.ExportRow
        if err := rows.Scan(&row.Participant.ID, &row.Participant.FullName, &row.Participant.Email,
            &row.Participant.Phone, &row.Participant.Affiliation); err != nil {
            return nil, err
        }
        out = append(out, row)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
