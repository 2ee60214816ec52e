package report

import (
    "bytes"
    "context"
    "encoding/csv"
    "errors"
    "time"

    "github.com/gatekit/checkin/internal/model"
)

// ErrNoData is returned when an export is requested and the resulting row
// set is empty.
var ErrNoData = errors.New("no attendance data to export")

// ExportSource provides the rows the CSV export materializes.
type ExportSource interface {
    CheckedInRows(ctx context.Context, eventID uint64) ([]model.ExportRow, error)
    NotCheckedInRows(ctx context.Context, eventID uint64) ([]model.ExportRow, error)
}

// csvHeader is the fixed column set of the attendance export.
var csvHeader = []string{
    "Name", "Email", "Phone", "Affiliation",
    "Check-in Time", "Method", "Checked In By", "Override Reason", "Status",
}

// Export materializes the attendance CSV for offline reporting.
type Export struct {
    source ExportSource
}

// NewExport constructs an Export over the given source.
func NewExport(source ExportSource) *Export {
    if source == nil {
        panic("nil source passed to NewExport")
    }
    return &Export{source: source}
}

// CSV writes one row per checked-in ticket and, when includeNotCheckedIn is
// set, one row per registered-but-absent ticket with a distinct status
// marker.  An empty row set yields ErrNoData.
func (e *Export) CSV(ctx context.Context, eventID uint64, includeNotCheckedIn bool) ([]byte, error) {
    rows, err := e.source.CheckedInRows(ctx, eventID)
    if err != nil {
        return nil, err
    }
    if includeNotCheckedIn {
        absent, err := e.source.NotCheckedInRows(ctx, eventID)
        if err != nil {
            return nil, err
        }
        rows = append(rows, absent...)
    }
    if len(rows) == 0 {
        return nil, ErrNoData
    }

    var buf bytes.Buffer
    w := csv.NewWriter(&buf)
    if err := w.Write(csvHeader); err != nil {
        return nil, err
    }
    for _, row := range rows {
        checkInTime := ""
        if row.CheckInTime != nil {
            checkInTime = row.CheckInTime.UTC().Format(time.RFC3339)
        }
        status := "Not Checked In"
        if row.CheckedIn {
            status = "Checked In"
        }
        record := []string{
            row.Participant.FullName,
            row.Participant.Email,
            row.Participant.Phone,
            row.Participant.Affiliation,
            checkInTime,
            string(row.Method),
            row.StaffName,
            row.OverrideReason,
            status,
        }
        if err := w.Write(record); err != nil {
            return nil, err
        }
    }
    w.Flush()
    if err := w.Error(); err != nil {
        return nil, err
    }
    return buf.Bytes(), nil
}
