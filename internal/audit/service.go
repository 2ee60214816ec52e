package audit

import (
    "context"
    "encoding/json"
    "errors"
    "time"

    "github.com/google/uuid"
)

// Repository is the persistence contract for audit entries.
//
// It MUST be append-only.  No Update/Delete methods are provided.
type Repository interface {
    Append(ctx context.Context, e Entry) error
}

// Service writes one audit entry per check-in decision.  Callers treat the
// write as best-effort: a failed append is logged by the caller and the
// check-in outcome stands regardless.
type Service struct {
    repo  Repository
    clock func() time.Time
}

// NewService returns a Service appending through the given repository.
func NewService(repo Repository) *Service {
    return &Service{repo: repo, clock: time.Now}
}

// ErrInvalidEntry is returned when an entry is missing its event scope or
// action and therefore cannot be attributed.
var ErrInvalidEntry = errors.New("audit: invalid entry")

// Append validates and persists one entry, filling in the generated ID and
// timestamp when the caller left them empty.
func (s *Service) Append(ctx context.Context, e Entry) error {
    if s.repo == nil {
        return errors.New("audit: repository not configured")
    }
    if e.EventID == 0 {
        return ErrInvalidEntry
    }
    if e.Action == "" {
        return ErrInvalidEntry
    }
    if e.ID == "" {
        e.ID = uuid.NewString()
    }
    if e.CreatedAt.IsZero() {
        e.CreatedAt = s.clock().UTC()
    }
    return s.repo.Append(ctx, e)
}

// LogCheckIn records a successful check-in (automated or file-based).
func (s *Service) LogCheckIn(ctx context.Context, eventID, attendanceID uint64, staffID *uint64, ip string, details map[string]any) error {
    return s.Append(ctx, Entry{
        EventID:      eventID,
        AttendanceID: &attendanceID,
        Action:       ActionCheckIn,
        PerformedBy:  staffID,
        IP:           ip,
        Details:      encodeDetails(details),
    })
}

// LogManualOverride records a staff-justified check-in.  Overrides are
// audited under their own action so they stand out from routine scans.
func (s *Service) LogManualOverride(ctx context.Context, eventID, attendanceID uint64, staffID *uint64, ip string, details map[string]any) error {
    return s.Append(ctx, Entry{
        EventID:      eventID,
        AttendanceID: &attendanceID,
        Action:       ActionManualOverride,
        PerformedBy:  staffID,
        IP:           ip,
        Details:      encodeDetails(details),
    })
}

// LogDuplicateAttempt records a repeat scan against an existing attendance
// record.
func (s *Service) LogDuplicateAttempt(ctx context.Context, eventID, attendanceID uint64, staffID *uint64, ip string, details map[string]any) error {
    return s.Append(ctx, Entry{
        EventID:      eventID,
        AttendanceID: &attendanceID,
        Action:       ActionDuplicateAttempt,
        PerformedBy:  staffID,
        IP:           ip,
        Details:      encodeDetails(details),
    })
}

// LogNotesAdded records a note appended to an attendance record.
func (s *Service) LogNotesAdded(ctx context.Context, eventID, attendanceID uint64, staffID *uint64, ip string, details map[string]any) error {
    return s.Append(ctx, Entry{
        EventID:      eventID,
        AttendanceID: &attendanceID,
        Action:       ActionNotesAdded,
        PerformedBy:  staffID,
        IP:           ip,
        Details:      encodeDetails(details),
    })
}

// encodeDetails marshals the free-form detail bag into the opaque JSON
// stored on the entry.  Marshal failures degrade to an empty payload rather
// than failing the audit write.
func encodeDetails(details map[string]any) string {
    if len(details) == 0 {
        return ""
    }
    b, err := json.Marshal(details)
    if err != nil {
        return ""
    }
    return string(b)
}
