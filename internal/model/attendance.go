package model

import "time"

// CheckInMethod identifies the channel through which a check-in was
// recorded.  The values are stored verbatim in the
// attendance_records.check_in_method enum column.
type CheckInMethod string

const (
    MethodQRScan         CheckInMethod = "qr_scan"         // automated QR scan at the door
    MethodManualOverride CheckInMethod = "manual_override" // staff-justified manual check-in
    MethodFileUpload     CheckInMethod = "file_upload"     // bulk import by the external upload tool
)

// AttendanceRecord is the authoritative proof that a ticket's holder was
// checked in to an event.  At most one record may exist per (event, ticket)
// pair; the uq_attendance_event_ticket unique key enforces this and the
// check-in processor translates the resulting duplicate-key conflict into a
// duplicate outcome instead of a second record.
//
// Fields:
//  ID              – primary key identifier.
//  EventID         – event the check-in belongs to.
//  TicketID        – ticket that was checked in.
//  UserID          – participant owning the ticket.
//  StaffID         – staff member who performed the scan (nil for
//                    system-originated records such as file uploads).
//  CheckInTime     – when the check-in happened; set once, never updated.
//  Method          – qr_scan, manual_override or file_upload.
//  OverrideReason  – justification text, present only for manual overrides.
//  OverrideStaffID – staff member who approved the override.  Kept separate
//                    from StaffID even though both are the same principal
//                    today, so approval can be delegated later.
//  DeviceAgent     – client user agent captured for forensic use.
//  DeviceIP        – network origin captured for forensic use.
//  Notes           – free-form staff notes; append-only.
//  DuplicateAttempts – repeat scans observed against this record, in the
//                    order they were recorded.
//  CreatedAt       – row creation timestamp.
type AttendanceRecord struct {
    ID                uint64             `json:"id"`
    EventID           uint64             `json:"event_id"`
    TicketID          uint64             `json:"ticket_id"`
    UserID            uint64             `json:"user_id"`
    StaffID           *uint64            `json:"staff_id,omitempty"`
    CheckInTime       time.Time          `json:"check_in_time"`
    Method            CheckInMethod      `json:"check_in_method"`
    OverrideReason    *string            `json:"override_reason,omitempty"`
    OverrideStaffID   *uint64            `json:"override_staff_id,omitempty"`
    DeviceAgent       string             `json:"device_agent,omitempty"`
    DeviceIP          string             `json:"device_ip,omitempty"`
    Notes             string             `json:"notes,omitempty"`
    DuplicateAttempts []DuplicateAttempt `json:"duplicate_attempts,omitempty"`
    CreatedAt         time.Time          `json:"created_at"`
}

// DuplicateAttempt records one repeat scan against an already checked-in
// ticket.  Entries are append-only and their relative order among
// themselves carries no business meaning.
type DuplicateAttempt struct {
    AttemptedAt time.Time `json:"attempted_at"`
    StaffID     *uint64   `json:"staff_id,omitempty"`
}
