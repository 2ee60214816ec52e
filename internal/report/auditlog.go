package report

import (
    "context"

    "github.com/gatekit/checkin/internal/audit"
)

const (
    defaultPageSize = 20
    maxPageSize     = 100
)

// AuditSource retrieves pages of the immutable audit trail.  Retrieval is
// always scan-filter-sort over the log; there is no key-based mutation
// path anywhere in the service.
type AuditSource interface {
    ListByEvent(ctx context.Context, eventID uint64, limit, offset int) ([]audit.Entry, int64, error)
}

// AuditPage is one page of an event's audit trail, newest first.
type AuditPage struct {
    Entries  []audit.Entry `json:"entries"`
    Total    int64         `json:"total"`
    Page     int           `json:"page"`
    PageSize int           `json:"page_size"`
}

// AuditLog serves paginated, reverse-chronological audit retrieval.
type AuditLog struct {
    source AuditSource
}

// NewAuditLog constructs an AuditLog over the given source.
func NewAuditLog(source AuditSource) *AuditLog {
    if source == nil {
        panic("nil source passed to NewAuditLog")
    }
    return &AuditLog{source: source}
}

// Page returns the requested page.  Page numbers start at 1; out-of-range
// values are clamped rather than rejected so a polling dashboard cannot
// wedge itself on bad parameters.
func (a *AuditLog) Page(ctx context.Context, eventID uint64, page, pageSize int) (*AuditPage, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = defaultPageSize
    }
    if pageSize > maxPageSize {
        pageSize = maxPageSize
    }
    entries, total, err := a.source.ListByEvent(ctx, eventID, pageSize, (page-1)*pageSize)
    if err != nil {
        return nil, err
    }
    if entries == nil {
        entries = []audit.Entry{}
    }
    return &AuditPage{Entries: entries, Total: total, Page: page, PageSize: pageSize}, nil
}
