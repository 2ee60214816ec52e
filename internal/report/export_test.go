package report

import (
    "bytes"
    "context"
    "encoding/csv"
    "errors"
    "testing"
    "time"

    "github.com/gatekit/checkin/internal/model"
)

type fakeExportSource struct {
    checkedIn    []model.ExportRow
    notCheckedIn []model.ExportRow
}

func (f *fakeExportSource) CheckedInRows(ctx context.Context, eventID uint64) ([]model.ExportRow, error) {
    return f.checkedIn, nil
}

func (f *fakeExportSource) NotCheckedInRows(ctx context.Context, eventID uint64) ([]model.ExportRow, error) {
    return f.notCheckedIn, nil
}

func checkedInRow(name string, method model.CheckInMethod, reason string) model.ExportRow {
    at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
    return model.ExportRow{
        Participant:    model.Participant{FullName: name, Email: name + "@example.com"},
        CheckInTime:    &at,
        Method:         method,
        StaffName:      "Door Staff",
        OverrideReason: reason,
        CheckedIn:      true,
    }
}

func absentRow(name string) model.ExportRow {
    return model.ExportRow{Participant: model.Participant{FullName: name, Email: name + "@example.com"}}
}

func parseCSV(t *testing.T, data []byte) [][]string {
    t.Helper()
    rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
    if err != nil {
        t.Fatalf("export is not valid csv: %v", err)
    }
    return rows
}

func TestCSV_CheckedInAndAbsentRows(t *testing.T) {
    src := &fakeExportSource{
        checkedIn: []model.ExportRow{
            checkedInRow("alice", model.MethodQRScan, ""),
            checkedInRow("bob", model.MethodManualOverride, "damaged QR"),
            checkedInRow("carol", model.MethodQRScan, ""),
        },
        notCheckedIn: []model.ExportRow{absentRow("dave"), absentRow("erin")},
    }
    e := NewExport(src)

    data, err := e.CSV(context.Background(), 1, true)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    rows := parseCSV(t, data)
    // Header plus 3 checked-in plus 2 absent.
    if len(rows) != 6 {
        t.Fatalf("expected 6 csv rows, got %d", len(rows))
    }
    if rows[0][0] != "Name" || rows[0][len(rows[0])-1] != "Status" {
        t.Fatalf("unexpected header: %v", rows[0])
    }
    statusCol := len(rows[0]) - 1
    for _, r := range rows[1:4] {
        if r[statusCol] != "Checked In" {
            t.Fatalf("expected Checked In status, got %q", r[statusCol])
        }
        if r[4] == "" {
            t.Fatalf("expected check-in time for checked-in row")
        }
    }
    for _, r := range rows[4:] {
        if r[statusCol] != "Not Checked In" {
            t.Fatalf("expected Not Checked In status, got %q", r[statusCol])
        }
        if r[4] != "" || r[5] != "" {
            t.Fatalf("expected empty time and method for absent row, got %v", r)
        }
    }
    if rows[2][7] != "damaged QR" {
        t.Fatalf("expected override reason in export, got %q", rows[2][7])
    }
}

func TestCSV_ExcludesAbsentByDefault(t *testing.T) {
    src := &fakeExportSource{
        checkedIn:    []model.ExportRow{checkedInRow("alice", model.MethodQRScan, "")},
        notCheckedIn: []model.ExportRow{absentRow("dave")},
    }
    e := NewExport(src)

    data, err := e.CSV(context.Background(), 1, false)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if rows := parseCSV(t, data); len(rows) != 2 {
        t.Fatalf("expected header plus 1 row, got %d", len(rows))
    }
}

func TestCSV_NoData(t *testing.T) {
    e := NewExport(&fakeExportSource{})

    if _, err := e.CSV(context.Background(), 1, true); !errors.Is(err, ErrNoData) {
        t.Fatalf("expected ErrNoData, got %v", err)
    }
}

func TestCSV_NoDataWithoutAbsentRows(t *testing.T) {
    // Absent tickets exist but are not requested; the export is still empty.
    e := NewExport(&fakeExportSource{notCheckedIn: []model.ExportRow{absentRow("dave")}})

    if _, err := e.CSV(context.Background(), 1, false); !errors.Is(err, ErrNoData) {
        t.Fatalf("expected ErrNoData, got %v", err)
    }
}
