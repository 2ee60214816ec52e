package report

import (
    "context"
    "testing"
    "time"

    "github.com/gatekit/checkin/internal/model"
)

type fakeEventSource struct {
    event *model.Event
    err   error
}

func (f *fakeEventSource) Get(ctx context.Context, eventID uint64) (*model.Event, error) {
    if f.err != nil {
        return nil, f.err
    }
    return f.event, nil
}

type fakeAttendanceSource struct {
    records []model.AttendanceRecord
}

func (f *fakeAttendanceSource) ListByEvent(ctx context.Context, eventID uint64) ([]model.AttendanceRecord, error) {
    return f.records, nil
}

func record(method model.CheckInMethod, at time.Time) model.AttendanceRecord {
    return model.AttendanceRecord{Method: method, CheckInTime: at}
}

func TestLiveStats_CountsAndRate(t *testing.T) {
    now := time.Date(2025, 6, 1, 18, 45, 0, 0, time.UTC)
    attendance := &fakeAttendanceSource{records: []model.AttendanceRecord{
        record(model.MethodQRScan, now.Add(-10*time.Minute)),
        record(model.MethodQRScan, now.Add(-70*time.Minute)),
        record(model.MethodManualOverride, now.Add(-30*time.Minute)),
    }}
    d := NewDashboard(&fakeEventSource{event: &model.Event{ID: 1, Name: "GopherCon", RegisteredCount: 10}}, attendance)
    d.clock = func() time.Time { return now }

    stats, err := d.LiveStats(context.Background(), 1, 0)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if stats.CheckedIn != 3 || stats.NotCheckedIn != 7 {
        t.Fatalf("expected 3/7 split, got %d/%d", stats.CheckedIn, stats.NotCheckedIn)
    }
    if stats.CheckedIn+stats.NotCheckedIn != stats.TotalRegistered {
        t.Fatalf("checkedIn + notCheckedIn must equal totalRegistered")
    }
    if stats.CheckInRate != 30.0 {
        t.Fatalf("expected rate 30.0, got %v", stats.CheckInRate)
    }
    if stats.ByMethod["qr_scan"] != 2 || stats.ByMethod["manual_override"] != 1 {
        t.Fatalf("unexpected method breakdown: %#v", stats.ByMethod)
    }
}

func TestLiveStats_HourlyHistogram(t *testing.T) {
    now := time.Date(2025, 6, 1, 18, 45, 0, 0, time.UTC)
    attendance := &fakeAttendanceSource{records: []model.AttendanceRecord{
        record(model.MethodQRScan, time.Date(2025, 6, 1, 18, 5, 0, 0, time.UTC)),
        record(model.MethodQRScan, time.Date(2025, 6, 1, 18, 59, 0, 0, time.UTC)),
        record(model.MethodQRScan, time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)),
        // Outside the 3-hour window; must not appear.
        record(model.MethodQRScan, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
    }}
    d := NewDashboard(&fakeEventSource{event: &model.Event{ID: 1, Name: "GopherCon", RegisteredCount: 10}}, attendance)
    d.clock = func() time.Time { return now }

    stats, err := d.LiveStats(context.Background(), 1, 3)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if len(stats.Hourly) != 3 {
        t.Fatalf("expected 3 buckets, got %d", len(stats.Hourly))
    }
    if stats.Hourly[0].Hour != "2025-06-01 16:00" || stats.Hourly[0].Count != 0 {
        t.Fatalf("unexpected first bucket: %+v", stats.Hourly[0])
    }
    if stats.Hourly[1].Hour != "2025-06-01 17:00" || stats.Hourly[1].Count != 1 {
        t.Fatalf("unexpected middle bucket: %+v", stats.Hourly[1])
    }
    if stats.Hourly[2].Hour != "2025-06-01 18:00" || stats.Hourly[2].Count != 2 {
        t.Fatalf("unexpected last bucket: %+v", stats.Hourly[2])
    }
}

func TestLiveStats_ClampsHistogramWindow(t *testing.T) {
    d := NewDashboard(&fakeEventSource{event: &model.Event{ID: 1, RegisteredCount: 0}}, &fakeAttendanceSource{})

    stats, err := d.LiveStats(context.Background(), 1, 1000)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if len(stats.Hourly) != maxHistogramHours {
        t.Fatalf("expected window clamped to %d, got %d", maxHistogramHours, len(stats.Hourly))
    }
    if stats.CheckInRate != 0 {
        t.Fatalf("expected zero rate for empty event, got %v", stats.CheckInRate)
    }
}
