package model

import "time"

// Ticket status values as issued by the ticketing collaborator.  The
// check-in service only ever reads the status; it never transitions it.
const (
    TicketStatusActive    = "ACTIVE"
    TicketStatusPending   = "PENDING"
    TicketStatusCancelled = "CANCELLED"
)

// Ticket mirrors the subset of the external tickets table the check-in
// service needs.  The service reads status and ownership and writes back
// attended/attendance_timestamp exactly once as a best-effort side effect of
// a successful check-in; the attendance record remains the source of truth.
//
// Fields:
//  ID                  – primary key identifier.
//  EventID             – event this ticket admits to.
//  UserID              – participant who owns the ticket.
//  Status              – ACTIVE, PENDING or CANCELLED.
//  Attended            – derived flag set after a successful check-in.
//  AttendanceTimestamp – derived timestamp set alongside Attended.
//  CreatedAt           – issuance timestamp.
type Ticket struct {
    ID                  uint64     `json:"id"`
    EventID             uint64     `json:"event_id"`
    UserID              uint64     `json:"user_id"`
    Status              string     `json:"status"`
    Attended            bool       `json:"attended"`
    AttendanceTimestamp *time.Time `json:"attendance_timestamp,omitempty"`
    CreatedAt           time.Time  `json:"created_at"`
}

// Participant is the profile surfaced to staff when a check-in or search
// resolves a ticket to its holder.
type Participant struct {
    ID          uint64 `json:"id"`
    FullName    string `json:"full_name"`
    Email       string `json:"email"`
    Phone       string `json:"phone,omitempty"`
    Affiliation string `json:"affiliation,omitempty"`
}

// ParticipantHit is one row of a participant search: a non-cancelled ticket
// matching the query, annotated with its current check-in state.
type ParticipantHit struct {
    TicketID    uint64      `json:"ticket_id"`
    Participant Participant `json:"participant"`
    IsCheckedIn bool        `json:"is_checked_in"`
    CheckInTime *time.Time  `json:"check_in_time,omitempty"`
}

// ExportRow is one line of the attendance CSV export.  CheckInTime, Method,
// StaffName and OverrideReason are empty for registered-but-absent rows.
type ExportRow struct {
    Participant    Participant
    CheckInTime    *time.Time
    Method         CheckInMethod
    StaffName      string
    OverrideReason string
    CheckedIn      bool
}
