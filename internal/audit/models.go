package audit

import "time"

// Entry is an immutable, append-only record of one check-in decision.
//
// Invariants:
// - Entries are never updated or deleted; the audit_entries table is
//   INSERT-only and no repository exposes a mutation path.
// - An entry is authoritative only when its attendance record exists;
//   reporting treats an orphan entry as informational noise, never as
//   proof of a check-in.
// - Actor and IP capture are best-effort; audit failures never block the
//   attendance write.
type Entry struct {
    ID           string  `json:"id"`
    AttendanceID *uint64 `json:"attendance_id,omitempty"`
    EventID      uint64  `json:"event_id"`

    // Action is the decision this entry documents.
    Action Action `json:"action"`

    // PerformedBy is the staff member who triggered the decision, when one
    // is known.  System-originated entries leave it nil.
    PerformedBy *uint64 `json:"performed_by,omitempty"`

    // Details is an opaque JSON payload (override reason, attempt time,
    // note text).  The check-in core stores and replays it without
    // interpreting it.
    Details string `json:"details,omitempty"`

    // IP is the origin address of the request that caused the decision.
    IP string `json:"ip,omitempty"`

    CreatedAt time.Time `json:"created_at"`
}

// Action enumerates the auditable check-in decisions.
type Action string

const (
    ActionCheckIn          Action = "check_in"
    ActionManualOverride   Action = "manual_override"
    ActionDuplicateAttempt Action = "duplicate_attempt"
    ActionNotesAdded       Action = "notes_added"
)
