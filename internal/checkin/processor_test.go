package checkin

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "testing"
    "time"

    "github.com/gatekit/checkin/internal/audit"
    "github.com/gatekit/checkin/internal/model"
    "github.com/gatekit/checkin/internal/qr"
    "github.com/gatekit/checkin/internal/queue"
)

// fakePublisher records published events and can be told to fail.
type fakePublisher struct {
    mu     sync.Mutex
    events []queue.CheckInConfirmedEvent
    fail   bool
}

func (f *fakePublisher) PublishCheckInConfirmed(ctx context.Context, ev queue.CheckInConfirmedEvent) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.fail {
        return errors.New("broker unavailable")
    }
    f.events = append(f.events, ev)
    return nil
}

type fixture struct {
    tickets    *MemoryTicketStore
    attendance *MemoryAttendanceStore
    auditRepo  *audit.MemoryRepo
    publisher  *fakePublisher
    processor  *Processor
}

func newFixture() *fixture {
    f := &fixture{
        tickets:    NewMemoryTicketStore(),
        attendance: NewMemoryAttendanceStore(),
        auditRepo:  audit.NewMemoryRepo(),
        publisher:  &fakePublisher{},
    }
    f.processor = NewProcessor(f.tickets, f.attendance, audit.NewService(f.auditRepo), f.publisher)
    return f
}

func (f *fixture) seedTicket(eventID, ticketID, userID uint64, status string) {
    f.tickets.Add(
        model.Ticket{ID: ticketID, EventID: eventID, UserID: userID, Status: status},
        model.Participant{ID: userID, FullName: fmt.Sprintf("Person %d", userID), Email: fmt.Sprintf("p%d@example.com", userID)},
    )
}

func payload(ticketID uint64) string {
    return fmt.Sprintf(`{"ticket_id": %d, "issued_at": "2025-06-01T09:00:00Z"}`, ticketID)
}

var reqCtx = RequestContext{UserAgent: "scanner/1.0", IP: "192.168.1.20"}

func TestProcessScan_Success(t *testing.T) {
    f := newFixture()
    f.seedTicket(1, 10, 100, model.TicketStatusActive)

    res, err := f.processor.ProcessScan(context.Background(), 1, 5, payload(10), reqCtx)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if res.Duplicate {
        t.Fatalf("expected a fresh check-in, got duplicate")
    }
    if res.Record.Method != model.MethodQRScan {
        t.Fatalf("expected qr_scan, got %s", res.Record.Method)
    }
    if res.Record.StaffID == nil || *res.Record.StaffID != 5 {
        t.Fatalf("expected staff id 5")
    }
    if res.Participant.ID != 100 {
        t.Fatalf("expected participant 100, got %d", res.Participant.ID)
    }
    if res.Record.DeviceIP != "192.168.1.20" {
        t.Fatalf("expected device ip captured")
    }

    // Ticket flag flipped as a side effect.
    tk, _ := f.tickets.Get(10)
    if !tk.Attended || tk.AttendanceTimestamp == nil {
        t.Fatalf("expected ticket marked attended")
    }

    // Exactly one check_in audit entry.
    if n := len(f.auditRepo.ByAction(audit.ActionCheckIn)); n != 1 {
        t.Fatalf("expected 1 check_in audit entry, got %d", n)
    }
    if n := len(f.publisher.events); n != 1 {
        t.Fatalf("expected 1 published event, got %d", n)
    }
}

func TestProcessScan_InvalidPayload(t *testing.T) {
    f := newFixture()
    f.seedTicket(1, 10, 100, model.TicketStatusActive)

    if _, err := f.processor.ProcessScan(context.Background(), 1, 5, "garbage", reqCtx); !errors.Is(err, qr.ErrInvalidPayload) {
        t.Fatalf("expected ErrInvalidPayload, got %v", err)
    }
    if f.attendance.Count(1) != 0 {
        t.Fatalf("expected no attendance record")
    }
    if len(f.auditRepo.Entries()) != 0 {
        t.Fatalf("expected no audit entries")
    }
}

func TestProcessScan_TicketNotFound(t *testing.T) {
    f := newFixture()

    if _, err := f.processor.ProcessScan(context.Background(), 1, 5, payload(99), reqCtx); !errors.Is(err, ErrTicketNotFound) {
        t.Fatalf("expected ErrTicketNotFound, got %v", err)
    }
}

func TestProcessScan_WrongEventIsNotFound(t *testing.T) {
    f := newFixture()
    f.seedTicket(2, 10, 100, model.TicketStatusActive)

    if _, err := f.processor.ProcessScan(context.Background(), 1, 5, payload(10), reqCtx); !errors.Is(err, ErrTicketNotFound) {
        t.Fatalf("expected ErrTicketNotFound for ticket of another event, got %v", err)
    }
}

func TestProcessScan_CancelledTicket(t *testing.T) {
    f := newFixture()
    f.seedTicket(1, 10, 100, model.TicketStatusCancelled)

    if _, err := f.processor.ProcessScan(context.Background(), 1, 5, payload(10), reqCtx); !errors.Is(err, ErrTicketCancelled) {
        t.Fatalf("expected ErrTicketCancelled, got %v", err)
    }
    if f.attendance.Count(1) != 0 {
        t.Fatalf("expected no attendance record")
    }
}

func TestProcessScan_DuplicateReportsOriginal(t *testing.T) {
    f := newFixture()
    f.seedTicket(1, 10, 100, model.TicketStatusActive)
    ctx := context.Background()

    first, err := f.processor.ProcessScan(ctx, 1, 5, payload(10), reqCtx)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }

    second, err := f.processor.ProcessScan(ctx, 1, 6, payload(10), reqCtx)
    if err != nil {
        t.Fatalf("duplicate must be an outcome, not an error: %v", err)
    }
    if !second.Duplicate {
        t.Fatalf("expected duplicate outcome")
    }
    if !second.Record.CheckInTime.Equal(first.Record.CheckInTime) {
        t.Fatalf("expected original check-in time to be reported")
    }
    if second.Participant.ID != 100 {
        t.Fatalf("expected original participant to be reported")
    }
    if second.AttemptsRecorded != 1 {
        t.Fatalf("expected 1 recorded attempt, got %d", second.AttemptsRecorded)
    }
    if f.attendance.Count(1) != 1 {
        t.Fatalf("expected exactly one attendance record, got %d", f.attendance.Count(1))
    }

    // One audit entry per decision.
    if n := len(f.auditRepo.ByAction(audit.ActionCheckIn)); n != 1 {
        t.Fatalf("expected 1 check_in entry, got %d", n)
    }
    if n := len(f.auditRepo.ByAction(audit.ActionDuplicateAttempt)); n != 1 {
        t.Fatalf("expected 1 duplicate_attempt entry, got %d", n)
    }
    // No second broker event for a duplicate.
    if n := len(f.publisher.events); n != 1 {
        t.Fatalf("expected 1 published event, got %d", n)
    }
}

func TestProcessScan_RetryAfterTimeoutIsIdempotent(t *testing.T) {
    f := newFixture()
    f.seedTicket(1, 10, 100, model.TicketStatusActive)
    ctx := context.Background()

    // First attempt succeeds server-side even though the client timed out.
    if _, err := f.processor.ProcessScan(ctx, 1, 5, payload(10), reqCtx); err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    // The retried identical scan classifies as duplicate, never a second record.
    res, err := f.processor.ProcessScan(ctx, 1, 5, payload(10), reqCtx)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if !res.Duplicate {
        t.Fatalf("expected retry to be classified as duplicate")
    }
    if f.attendance.Count(1) != 1 {
        t.Fatalf("expected exactly one attendance record after retry")
    }
}

func TestProcessScan_ConcurrentScansOneWinner(t *testing.T) {
    f := newFixture()
    f.seedTicket(1, 30, 300, model.TicketStatusActive)
    ctx := context.Background()

    const n = 16
    results := make([]*Result, n)
    errs := make([]error, n)
    var wg sync.WaitGroup
    start := make(chan struct{})
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            <-start
            results[i], errs[i] = f.processor.ProcessScan(ctx, 1, uint64(i+1), payload(30), reqCtx)
        }(i)
    }
    close(start)
    wg.Wait()

    winners := 0
    duplicates := 0
    for i := 0; i < n; i++ {
        if errs[i] != nil {
            t.Fatalf("scan %d failed: %v", i, errs[i])
        }
        if results[i].Duplicate {
            duplicates++
        } else {
            winners++
        }
    }
    if winners != 1 {
        t.Fatalf("expected exactly one winner, got %d", winners)
    }
    if duplicates != n-1 {
        t.Fatalf("expected %d duplicates, got %d", n-1, duplicates)
    }
    if f.attendance.Count(1) != 1 {
        t.Fatalf("invariant violated: %d attendance records for one ticket", f.attendance.Count(1))
    }
    if got := len(f.auditRepo.ByAction(audit.ActionDuplicateAttempt)); got != n-1 {
        t.Fatalf("expected %d duplicate_attempt audit entries, got %d", n-1, got)
    }
}

func TestProcessManualOverride_ReasonGate(t *testing.T) {
    f := newFixture()
    f.seedTicket(1, 10, 100, model.TicketStatusActive)
    ctx := context.Background()

    // "broken" is too short.
    if _, err := f.processor.ProcessManualOverride(ctx, 1, 5, 10, "broken", reqCtx); !errors.Is(err, ErrInvalidOverrideReason) {
        t.Fatalf("expected ErrInvalidOverrideReason, got %v", err)
    }
    // Padding with whitespace does not help.
    if _, err := f.processor.ProcessManualOverride(ctx, 1, 5, 10, "  broken  ", reqCtx); !errors.Is(err, ErrInvalidOverrideReason) {
        t.Fatalf("expected ErrInvalidOverrideReason for padded reason, got %v", err)
    }
    if f.attendance.Count(1) != 0 {
        t.Fatalf("rejected override must create no attendance record")
    }
    if len(f.auditRepo.Entries()) != 0 {
        t.Fatalf("rejected override must create no audit entry")
    }

    // "damaged QR" is 10 characters, which is enough.
    res, err := f.processor.ProcessManualOverride(ctx, 1, 5, 10, "damaged QR", reqCtx)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if res.Record.Method != model.MethodManualOverride {
        t.Fatalf("expected manual_override, got %s", res.Record.Method)
    }
    if res.Record.OverrideReason == nil || *res.Record.OverrideReason != "damaged QR" {
        t.Fatalf("expected override reason recorded")
    }
    if res.Record.OverrideStaffID == nil || *res.Record.OverrideStaffID != 5 {
        t.Fatalf("expected approving staff id recorded")
    }
    if n := len(f.auditRepo.ByAction(audit.ActionManualOverride)); n != 1 {
        t.Fatalf("expected 1 manual_override audit entry, got %d", n)
    }
}

func TestProcessScan_PublisherFailureDoesNotFailCheckIn(t *testing.T) {
    f := newFixture()
    f.publisher.fail = true
    f.seedTicket(1, 10, 100, model.TicketStatusActive)

    res, err := f.processor.ProcessScan(context.Background(), 1, 5, payload(10), reqCtx)
    if err != nil {
        t.Fatalf("publish failure must not fail the check-in: %v", err)
    }
    if res.Duplicate {
        t.Fatalf("expected success outcome")
    }
    if f.attendance.Count(1) != 1 {
        t.Fatalf("expected attendance record despite publish failure")
    }
}

func TestAddNote(t *testing.T) {
    f := newFixture()
    f.seedTicket(1, 10, 100, model.TicketStatusActive)
    ctx := context.Background()

    if _, err := f.processor.AddNote(ctx, 1, 10, 5, "  ", reqCtx); !errors.Is(err, ErrEmptyNote) {
        t.Fatalf("expected ErrEmptyNote, got %v", err)
    }
    if _, err := f.processor.AddNote(ctx, 1, 10, 5, "left bag at desk", reqCtx); !errors.Is(err, ErrTicketNotFound) {
        t.Fatalf("expected ErrTicketNotFound before check-in, got %v", err)
    }

    if _, err := f.processor.ProcessScan(ctx, 1, 5, payload(10), reqCtx); err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    rec, err := f.processor.AddNote(ctx, 1, 10, 5, "left bag at desk", reqCtx)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if rec.Notes != "left bag at desk" {
        t.Fatalf("expected note stored, got %q", rec.Notes)
    }
    rec, err = f.processor.AddNote(ctx, 1, 10, 5, "bag collected", reqCtx)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if rec.Notes != "left bag at desk\nbag collected" {
        t.Fatalf("expected appended notes, got %q", rec.Notes)
    }
    if n := len(f.auditRepo.ByAction(audit.ActionNotesAdded)); n != 2 {
        t.Fatalf("expected 2 notes_added audit entries, got %d", n)
    }
}

func TestProcessScan_CheckInTimeIsUTC(t *testing.T) {
    f := newFixture()
    f.seedTicket(1, 10, 100, model.TicketStatusActive)
    fixed := time.Date(2025, 6, 1, 14, 30, 0, 0, time.FixedZone("X", 3*3600))
    f.processor.clock = func() time.Time { return fixed }

    res, err := f.processor.ProcessScan(context.Background(), 1, 5, payload(10), reqCtx)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if res.Record.CheckInTime.Location() != time.UTC {
        t.Fatalf("expected UTC check-in time")
    }
    if !res.Record.CheckInTime.Equal(fixed) {
        t.Fatalf("expected clock time to be used")
    }
}
