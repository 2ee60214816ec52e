// Package checkin implements the check-in processor: it validates scan and
// manual-override requests, enforces the at-most-once (event, ticket)
// invariant through the storage layer's unique key, and emits one audit
// entry per decision.  The attendance insert is the single authoritative
// write; everything after it (ticket flag, audit entry, broker event) is
// best-effort and individually logged.
package checkin

import (
    "context"
    "errors"
    "log"
    "strings"
    "time"

    "github.com/gatekit/checkin/internal/audit"
    "github.com/gatekit/checkin/internal/model"
    "github.com/gatekit/checkin/internal/qr"
    "github.com/gatekit/checkin/internal/queue"
    "github.com/gatekit/checkin/internal/repository"
)

// minOverrideReasonLen is the minimum length of a manual-override
// justification after trimming surrounding whitespace.
const minOverrideReasonLen = 10

// TicketStore resolves tickets and writes back the derived attendance
// fields.  The production implementation is repository.TicketRepo.
type TicketStore interface {
    Lookup(ctx context.Context, eventID, ticketID uint64) (*model.Ticket, *model.Participant, error)
    MarkAttended(ctx context.Context, ticketID uint64, at time.Time) error
}

// AttendanceStore persists attendance records.  Create must return
// repository.ErrDuplicate when the (event, ticket) pair already has a
// record; that conflict is the duplicate guard this processor builds on.
type AttendanceStore interface {
    Create(ctx context.Context, rec *model.AttendanceRecord) error
    GetByEventAndTicket(ctx context.Context, eventID, ticketID uint64) (*model.AttendanceRecord, error)
    AppendDuplicateAttempt(ctx context.Context, attendanceID uint64, staffID *uint64, attemptedAt time.Time) error
    AppendNote(ctx context.Context, attendanceID uint64, note string) error
}

// Publisher emits a broker event after each successful check-in so
// downstream consumers (logging, notifications, analytics) can react
// without querying the primary database.  Publishing is best-effort.
type Publisher interface {
    PublishCheckInConfirmed(ctx context.Context, ev queue.CheckInConfirmedEvent) error
}

// RequestContext carries the capture context of one staff request.  It is
// stored on the attendance record for forensic use and is not part of any
// invariant.
type RequestContext struct {
    UserAgent string
    IP        string
}

// Result is the outcome of a scan or manual override.  Duplicate marks the
// reported already-checked-in condition: the record and participant then
// describe the original check-in so staff can see who already entered.
type Result struct {
    Duplicate        bool                    `json:"duplicate"`
    Record           *model.AttendanceRecord `json:"record"`
    Participant      model.Participant       `json:"participant"`
    AttemptsRecorded int                     `json:"attempts_recorded,omitempty"`
}

// Processor coordinates ticket lookup, the attendance insert, audit
// logging and event publishing.  All collaborators are injected so the
// processor is testable without a database or a broker.
type Processor struct {
    tickets    TicketStore
    attendance AttendanceStore
    auditor    *audit.Service
    publisher  Publisher
    clock      func() time.Time
}

// NewProcessor constructs a Processor.  publisher may be nil when no
// broker is configured; every other dependency is required.
func NewProcessor(tickets TicketStore, attendance AttendanceStore, auditor *audit.Service, publisher Publisher) *Processor {
    if tickets == nil || attendance == nil || auditor == nil {
        panic("nil dependency passed to NewProcessor")
    }
    return &Processor{
        tickets:    tickets,
        attendance: attendance,
        auditor:    auditor,
        publisher:  publisher,
        clock:      time.Now,
    }
}

// ProcessScan validates a scanned QR payload and checks the ticket in.  A
// payload that cannot be decoded fails with qr.ErrInvalidPayload before any
// lookup occurs.  A repeat scan of an already-checked-in ticket returns a
// duplicate Result instead of an error.
func (p *Processor) ProcessScan(ctx context.Context, eventID uint64, staffID uint64, rawPayload string, reqCtx RequestContext) (*Result, error) {
    payload, err := qr.Decode(rawPayload)
    if err != nil {
        return nil, err
    }
    return p.checkIn(ctx, eventID, staffID, payload.TicketID, model.MethodQRScan, "", reqCtx)
}

// ProcessManualOverride checks a ticket in without a scan.  It requires a
// justification of at least ten characters and records the approving staff
// identity alongside the scanning one.  Validation happens before any
// store round-trip.
func (p *Processor) ProcessManualOverride(ctx context.Context, eventID uint64, staffID uint64, ticketID uint64, reason string, reqCtx RequestContext) (*Result, error) {
    if len(strings.TrimSpace(reason)) < minOverrideReasonLen {
        return nil, ErrInvalidOverrideReason
    }
    return p.checkIn(ctx, eventID, staffID, ticketID, model.MethodManualOverride, strings.TrimSpace(reason), reqCtx)
}

// checkIn is the shared path behind scans and overrides.  It looks the
// ticket up, attempts the atomic insert, and resolves the unique-key
// conflict into the duplicate outcome.
func (p *Processor) checkIn(ctx context.Context, eventID, staffID, ticketID uint64, method model.CheckInMethod, reason string, reqCtx RequestContext) (*Result, error) {
    ticket, participant, err := p.tickets.Lookup(ctx, eventID, ticketID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, ErrTicketNotFound
        }
        return nil, err
    }
    if ticket.Status == model.TicketStatusCancelled {
        return nil, ErrTicketCancelled
    }

    now := p.clock().UTC()
    sid := staffID
    rec := &model.AttendanceRecord{
        EventID:     eventID,
        TicketID:    ticketID,
        UserID:      ticket.UserID,
        StaffID:     &sid,
        CheckInTime: now,
        Method:      method,
        DeviceAgent: reqCtx.UserAgent,
        DeviceIP:    reqCtx.IP,
    }
    if method == model.MethodManualOverride {
        rec.OverrideReason = &reason
        osid := staffID
        rec.OverrideStaffID = &osid
    }

    err = p.attendance.Create(ctx, rec)
    if errors.Is(err, repository.ErrDuplicate) {
        return p.recordDuplicate(ctx, eventID, ticketID, *participant, &sid, now, reqCtx)
    }
    if err != nil {
        return nil, err
    }

    // The record is authoritative from here on; secondary writes must not
    // fail the check-in.
    if err := p.tickets.MarkAttended(ctx, ticketID, now); err != nil {
        log.Printf("checkin: mark attended failed for ticket %d: %v", ticketID, err)
    }

    details := map[string]any{"method": string(method), "ticket_id": ticketID}
    var auditErr error
    if method == model.MethodManualOverride {
        details["reason"] = reason
        auditErr = p.auditor.LogManualOverride(ctx, eventID, rec.ID, &sid, reqCtx.IP, details)
    } else {
        auditErr = p.auditor.LogCheckIn(ctx, eventID, rec.ID, &sid, reqCtx.IP, details)
    }
    if auditErr != nil {
        log.Printf("checkin: audit append failed for attendance %d: %v", rec.ID, auditErr)
    }

    if p.publisher != nil {
        ev := queue.CheckInConfirmedEvent{
            AttendanceID:    rec.ID,
            EventID:         eventID,
            TicketID:        ticketID,
            ParticipantID:   participant.ID,
            ParticipantName: participant.FullName,
            Method:          string(method),
            StaffID:         staffID,
            CheckedInAt:     now.Format(time.RFC3339),
        }
        if err := p.publisher.PublishCheckInConfirmed(ctx, ev); err != nil {
            log.Printf("checkin: publish confirmed event failed for attendance %d: %v", rec.ID, err)
        }
    }

    return &Result{Record: rec, Participant: *participant}, nil
}

// recordDuplicate handles the losing side of the insert race: it loads the
// winning record, appends a duplicate-attempt entry and audits the repeat.
// The caller receives the original check-in details, never an error.
func (p *Processor) recordDuplicate(ctx context.Context, eventID, ticketID uint64, participant model.Participant, staffID *uint64, attemptedAt time.Time, reqCtx RequestContext) (*Result, error) {
    existing, err := p.attendance.GetByEventAndTicket(ctx, eventID, ticketID)
    if err != nil {
        return nil, err
    }
    if err := p.attendance.AppendDuplicateAttempt(ctx, existing.ID, staffID, attemptedAt); err != nil {
        log.Printf("checkin: append duplicate attempt failed for attendance %d: %v", existing.ID, err)
    } else {
        existing.DuplicateAttempts = append(existing.DuplicateAttempts, model.DuplicateAttempt{
            AttemptedAt: attemptedAt,
            StaffID:     staffID,
        })
    }
    details := map[string]any{
        "attempted_at":      attemptedAt.Format(time.RFC3339),
        "original_check_in": existing.CheckInTime.Format(time.RFC3339),
        "ticket_id":         ticketID,
    }
    if err := p.auditor.LogDuplicateAttempt(ctx, eventID, existing.ID, staffID, reqCtx.IP, details); err != nil {
        log.Printf("checkin: audit append failed for attendance %d: %v", existing.ID, err)
    }

    return &Result{
        Duplicate:        true,
        Record:           existing,
        Participant:      participant,
        AttemptsRecorded: len(existing.DuplicateAttempts),
    }, nil
}

// AddNote appends a free-form note to an existing attendance record and
// audits it as notes_added.  The note must be non-empty; a ticket that has
// not been checked in yet yields ErrTicketNotFound.
func (p *Processor) AddNote(ctx context.Context, eventID, ticketID, staffID uint64, note string, reqCtx RequestContext) (*model.AttendanceRecord, error) {
    note = strings.TrimSpace(note)
    if note == "" {
        return nil, ErrEmptyNote
    }
    rec, err := p.attendance.GetByEventAndTicket(ctx, eventID, ticketID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, ErrTicketNotFound
        }
        return nil, err
    }
    if err := p.attendance.AppendNote(ctx, rec.ID, note); err != nil {
        return nil, err
    }
    if rec.Notes == "" {
        rec.Notes = note
    } else {
        rec.Notes += "\n" + note
    }
    sid := staffID
    if err := p.auditor.LogNotesAdded(ctx, eventID, rec.ID, &sid, reqCtx.IP, map[string]any{"note": note}); err != nil {
        log.Printf("checkin: audit append failed for attendance %d: %v", rec.ID, err)
    }
    return rec, nil
}
