package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/gatekit/checkin/internal/model"
)

// AttendanceRepo provides persistence for attendance records and their
// duplicate-attempt log.  The attendance_records table carries a unique key
// on (event_id, ticket_id); Create relies on it instead of any
// application-level locking, so two concurrent check-ins for the same
// ticket race to insert and exactly one wins.  All timestamps are stored
// in UTC.
type AttendanceRepo struct {
    db *sql.DB
}

// NewAttendanceRepo returns a new AttendanceRepo bound to the given database.
func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{db: db} }

// Create inserts a new attendance record and populates the generated ID on
// the provided value.  When the (event, ticket) pair already has a record,
// the unique key rejects the insert and ErrDuplicate is returned; the
// record is otherwise untouched.
func (r *AttendanceRepo) Create(ctx context.Context, rec *model.AttendanceRecord) error {
    const q = `INSERT INTO attendance_records
        (event_id, ticket_id, user_id, staff_id, check_in_time, check_in_method,
         override_reason, override_staff_id, device_agent, device_ip, notes)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := r.db.ExecContext(ctx, q,
        rec.EventID, rec.TicketID, rec.UserID, rec.StaffID,
        rec.CheckInTime.UTC(), string(rec.Method),
        rec.OverrideReason, rec.OverrideStaffID,
        rec.DeviceAgent, rec.DeviceIP, nullIfEmpty(rec.Notes),
    )
    if err != nil {
        if isDuplicateEntry(err) {
            return ErrDuplicate
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    return nil
}

// GetByEventAndTicket loads the attendance record for one (event, ticket)
// pair together with its duplicate-attempt entries in recorded order.
// Returns ErrNotFound when the ticket has not been checked in.
func (r *AttendanceRepo) GetByEventAndTicket(ctx context.Context, eventID, ticketID uint64) (*model.AttendanceRecord, error) {
    const q = `SELECT id, event_id, ticket_id, user_id, staff_id, check_in_time,
                      check_in_method, override_reason, override_staff_id,
                      device_agent, device_ip, notes, created_at
               FROM attendance_records
               WHERE event_id = ? AND ticket_id = ?`
    rec, err := scanAttendance(r.db.QueryRowContext(ctx, q, eventID, ticketID))
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, ErrNotFound
        }
        return nil, err
    }
    const dupQ = `SELECT attempted_at, staff_id
                  FROM attendance_duplicate_attempts
                  WHERE attendance_id = ?
                  ORDER BY attempted_at, id`
    rows, err := r.db.QueryContext(ctx, dupQ, rec.ID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var at time.Time
        var staff sql.NullInt64
        if err := rows.Scan(&at, &staff); err != nil {
            return nil, err
        }
        da := model.DuplicateAttempt{AttemptedAt: at.UTC()}
        if staff.Valid {
            sid := uint64(staff.Int64)
            da.StaffID = &sid
        }
        rec.DuplicateAttempts = append(rec.DuplicateAttempts, da)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return rec, nil
}

// AppendDuplicateAttempt records one repeat scan against an existing
// attendance record.  Appends are commutative; no ordering is enforced
// among concurrent duplicates.
func (r *AttendanceRepo) AppendDuplicateAttempt(ctx context.Context, attendanceID uint64, staffID *uint64, attemptedAt time.Time) error {
    const q = `INSERT INTO attendance_duplicate_attempts (attendance_id, staff_id, attempted_at) VALUES (?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q, attendanceID, staffID, attemptedAt.UTC())
    return err
}

// AppendNote appends a note line to the record's free-form notes field.
// Existing note text is never rewritten, only extended.
func (r *AttendanceRepo) AppendNote(ctx context.Context, attendanceID uint64, note string) error {
    const q = `UPDATE attendance_records
               SET notes = CONCAT(COALESCE(CONCAT(notes, '\n'), ''), ?)
               WHERE id = ?`
    result, err := r.db.ExecContext(ctx, q, note, attendanceID)
    if err != nil {
        return err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}

// ListByEvent returns all attendance records for one event ordered by
// check-in time.  Duplicate-attempt entries are not loaded; aggregation
// paths do not need them.
func (r *AttendanceRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.AttendanceRecord, error) {
    const q = `SELECT id, event_id, ticket_id, user_id, staff_id, check_in_time,
                      check_in_method, override_reason, override_staff_id,
                      device_agent, device_ip, notes, created_at
               FROM attendance_records
               WHERE event_id = ?
               ORDER BY check_in_time, id`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.AttendanceRecord, 0, 64)
    for rows.Next() {
        rec, err := scanAttendance(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *rec)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// CheckedInTimes returns a map from ticket ID to check-in time for one
// event.  Participant search uses it to annotate hits with their current
// check-in state.
func (r *AttendanceRepo) CheckedInTimes(ctx context.Context, eventID uint64) (map[uint64]time.Time, error) {
    const q = `SELECT ticket_id, check_in_time FROM attendance_records WHERE event_id = ?`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64]time.Time)
    for rows.Next() {
        var ticketID uint64
        var t time.Time
        if err := rows.Scan(&ticketID, &t); err != nil {
            return nil, err
        }
        out[ticketID] = t.UTC()
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// rowScanner lets scanAttendance work with both *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...any) error
}

func scanAttendance(s rowScanner) (*model.AttendanceRecord, error) {
    var rec model.AttendanceRecord
    var staffID, overrideStaffID sql.NullInt64
    var overrideReason, notes sql.NullString
    var checkInTime, createdAt time.Time
    err := s.Scan(
        &rec.ID, &rec.EventID, &rec.TicketID, &rec.UserID, &staffID,
        &checkInTime, &rec.Method, &overrideReason, &overrideStaffID,
        &rec.DeviceAgent, &rec.DeviceIP, &notes, &createdAt,
    )
    if err != nil {
        return nil, err
    }
    rec.CheckInTime = checkInTime.UTC()
    rec.CreatedAt = createdAt.UTC()
    if staffID.Valid {
        v := uint64(staffID.Int64)
        rec.StaffID = &v
    }
    if overrideStaffID.Valid {
        v := uint64(overrideStaffID.Int64)
        rec.OverrideStaffID = &v
    }
    if overrideReason.Valid {
        rec.OverrideReason = &overrideReason.String
    }
    if notes.Valid {
        rec.Notes = notes.String
    }
    return &rec, nil
}

func nullIfEmpty(s string) any {
    if s == "" {
        return nil
    }
    return s
}
