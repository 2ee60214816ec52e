package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/gatekit/checkin/internal/audit"
)

// AuditRepo persists audit entries.  The table is INSERT-only: besides
// Append, the repository exposes only scanning retrieval.  There is
// deliberately no update or delete method.
type AuditRepo struct {
    db *sql.DB
}

// NewAuditRepo returns a new AuditRepo bound to the given database.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Append inserts one audit entry.  It implements audit.Repository.
func (r *AuditRepo) Append(ctx context.Context, e audit.Entry) error {
    const q = `INSERT INTO audit_entries
        (id, attendance_id, event_id, action, performed_by, details, ip, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q,
        e.ID, e.AttendanceID, e.EventID, string(e.Action),
        e.PerformedBy, nullIfEmpty(e.Details), e.IP, e.CreatedAt.UTC(),
    )
    return err
}

// ListByEvent returns one page of the event's audit trail in
// reverse-chronological order, plus the total number of entries for the
// event.  limit/offset are assumed to be pre-clamped by the caller.
func (r *AuditRepo) ListByEvent(ctx context.Context, eventID uint64, limit, offset int) ([]audit.Entry, int64, error) {
    var total int64
    const countQ = `SELECT COUNT(*) FROM audit_entries WHERE event_id = ?`
    if err := r.db.QueryRowContext(ctx, countQ, eventID).Scan(&total); err != nil {
        return nil, 0, err
    }

    const q = `SELECT id, attendance_id, event_id, action, performed_by, details, ip, created_at
               FROM audit_entries
               WHERE event_id = ?
               ORDER BY created_at DESC, id DESC
               LIMIT ? OFFSET ?`
    rows, err := r.db.QueryContext(ctx, q, eventID, limit, offset)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    out := make([]audit.Entry, 0, limit)
    for rows.Next() {
        var e audit.Entry
        var attendanceID, performedBy sql.NullInt64
        var details sql.NullString
        var createdAt time.Time
        if err := rows.Scan(&e.ID, &attendanceID, &e.EventID, &e.Action, &performedBy, &details, &e.IP, &createdAt); err != nil {
            return nil, 0, err
        }
        if attendanceID.Valid {
            v := uint64(attendanceID.Int64)
            e.AttendanceID = &v
        }
        if performedBy.Valid {
            v := uint64(performedBy.Int64)
            e.PerformedBy = &v
        }
        if details.Valid {
            e.Details = details.String
        }
        e.CreatedAt = createdAt.UTC()
        out = append(out, e)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}
