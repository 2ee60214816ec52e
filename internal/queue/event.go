// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer that move them.
package queue

// CheckInConfirmedEvent is published after each successful check-in.  It
// carries enough information for downstream consumers to log, notify, or
// feed analytics without querying the primary database.
type CheckInConfirmedEvent struct {
    AttendanceID    uint64 `json:"attendance_id"`
    EventID         uint64 `json:"event_id"`
    TicketID        uint64 `json:"ticket_id"`
    ParticipantID   uint64 `json:"participant_id"`
    ParticipantName string `json:"participant_name"`
    Method          string `json:"method"`
    StaffID         uint64 `json:"staff_id"`
    CheckedInAt     string `json:"checked_in_at"`
}
