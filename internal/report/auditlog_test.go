package report

import (
    "context"
    "fmt"
    "testing"
    "time"

    "github.com/gatekit/checkin/internal/audit"
)

// fakeAuditSource pages over an in-memory slice sorted newest first.
type fakeAuditSource struct {
    entries []audit.Entry
}

func (f *fakeAuditSource) ListByEvent(ctx context.Context, eventID uint64, limit, offset int) ([]audit.Entry, int64, error) {
    total := int64(len(f.entries))
    if offset >= len(f.entries) {
        return nil, total, nil
    }
    end := offset + limit
    if end > len(f.entries) {
        end = len(f.entries)
    }
    return f.entries[offset:end], total, nil
}

func auditEntries(n int) []audit.Entry {
    base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
    out := make([]audit.Entry, 0, n)
    // Newest first, as the SQL source returns them.
    for i := n - 1; i >= 0; i-- {
        out = append(out, audit.Entry{
            ID:        fmt.Sprintf("e%d", i),
            EventID:   1,
            Action:    audit.ActionCheckIn,
            CreatedAt: base.Add(time.Duration(i) * time.Minute),
        })
    }
    return out
}

func TestAuditPage_Pagination(t *testing.T) {
    a := NewAuditLog(&fakeAuditSource{entries: auditEntries(45)})

    page, err := a.Page(context.Background(), 1, 2, 20)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if page.Total != 45 {
        t.Fatalf("expected total 45, got %d", page.Total)
    }
    if len(page.Entries) != 20 {
        t.Fatalf("expected 20 entries, got %d", len(page.Entries))
    }
    // Second page continues where the first left off, still newest first.
    if page.Entries[0].ID != "e24" {
        t.Fatalf("unexpected first entry on page 2: %s", page.Entries[0].ID)
    }

    last, err := a.Page(context.Background(), 1, 3, 20)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if len(last.Entries) != 5 {
        t.Fatalf("expected 5 entries on final page, got %d", len(last.Entries))
    }
}

func TestAuditPage_ClampsParameters(t *testing.T) {
    a := NewAuditLog(&fakeAuditSource{entries: auditEntries(3)})

    page, err := a.Page(context.Background(), 1, 0, -5)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if page.Page != 1 || page.PageSize != defaultPageSize {
        t.Fatalf("expected clamped page/pageSize, got %d/%d", page.Page, page.PageSize)
    }

    page, err = a.Page(context.Background(), 1, 1, 10_000)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if page.PageSize != maxPageSize {
        t.Fatalf("expected pageSize clamped to %d, got %d", maxPageSize, page.PageSize)
    }
}

func TestAuditPage_EmptyLog(t *testing.T) {
    a := NewAuditLog(&fakeAuditSource{})

    page, err := a.Page(context.Background(), 1, 1, 20)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if page.Total != 0 || len(page.Entries) != 0 {
        t.Fatalf("expected empty page, got %+v", page)
    }
    if page.Entries == nil {
        t.Fatalf("expected non-nil entries slice for json encoding")
    }
}
