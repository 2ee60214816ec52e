// Package report implements the read paths over the attendance set: the
// live dashboard, participant search, paginated audit retrieval and the
// CSV export.  Every figure is recomputed from the records on each call;
// the package holds no derived state of its own, so the numbers can never
// drift from the underlying records.  Staff clients poll these endpoints;
// consistency within one polling interval is the design target.
package report

import (
    "context"
    "fmt"
    "math"
    "time"

    "github.com/gatekit/checkin/internal/model"
)

const (
    defaultHistogramHours = 12
    maxHistogramHours     = 48
)

// EventSource resolves event metadata and the fresh registration count.
type EventSource interface {
    Get(ctx context.Context, eventID uint64) (*model.Event, error)
}

// AttendanceSource provides the raw attendance rows aggregation works on.
type AttendanceSource interface {
    ListByEvent(ctx context.Context, eventID uint64) ([]model.AttendanceRecord, error)
}

// HourlyBucket is one bar of the check-in histogram.  Hour is the start of
// the bucket in UTC.
type HourlyBucket struct {
    Hour  string `json:"hour"`
    Count int64  `json:"count"`
}

// Stats is the dashboard payload for one event.  CheckedIn plus
// NotCheckedIn always equals TotalRegistered.
type Stats struct {
    EventID         uint64           `json:"event_id"`
    EventName       string           `json:"event_name"`
    TotalRegistered int64            `json:"total_registered"`
    CheckedIn       int64            `json:"checked_in"`
    NotCheckedIn    int64            `json:"not_checked_in"`
    CheckInRate     float64          `json:"check_in_rate"`
    ByMethod        map[string]int64 `json:"by_method"`
    Hourly          []HourlyBucket   `json:"hourly"`
    GeneratedAt     time.Time        `json:"generated_at"`
}

// Dashboard computes live occupancy statistics for one event.
type Dashboard struct {
    events     EventSource
    attendance AttendanceSource
    clock      func() time.Time
}

// NewDashboard constructs a Dashboard reading from the given sources.
func NewDashboard(events EventSource, attendance AttendanceSource) *Dashboard {
    if events == nil || attendance == nil {
        panic("nil source passed to NewDashboard")
    }
    return &Dashboard{events: events, attendance: attendance, clock: time.Now}
}

// LiveStats aggregates the event's attendance set.  hours bounds the
// histogram to the most recent buckets; zero selects the default window and
// oversized values are clamped.
func (d *Dashboard) LiveStats(ctx context.Context, eventID uint64, hours int) (*Stats, error) {
    if hours <= 0 {
        hours = defaultHistogramHours
    }
    if hours > maxHistogramHours {
        hours = maxHistogramHours
    }

    ev, err := d.events.Get(ctx, eventID)
    if err != nil {
        return nil, err
    }
    records, err := d.attendance.ListByEvent(ctx, eventID)
    if err != nil {
        return nil, err
    }

    now := d.clock().UTC()
    stats := &Stats{
        EventID:         ev.ID,
        EventName:       ev.Name,
        TotalRegistered: ev.RegisteredCount,
        CheckedIn:       int64(len(records)),
        ByMethod:        make(map[string]int64),
        GeneratedAt:     now,
    }
    stats.NotCheckedIn = stats.TotalRegistered - stats.CheckedIn
    if stats.TotalRegistered > 0 {
        rate := float64(stats.CheckedIn) / float64(stats.TotalRegistered) * 100
        stats.CheckInRate = math.Round(rate*100) / 100
    }

    for _, rec := range records {
        stats.ByMethod[string(rec.Method)]++
    }
    stats.Hourly = hourlyHistogram(records, now, hours)
    return stats, nil
}

// hourlyHistogram buckets check-in times by hour over the window ending at
// the current hour.  Empty buckets are emitted so the dashboard can render
// a continuous series.
func hourlyHistogram(records []model.AttendanceRecord, now time.Time, hours int) []HourlyBucket {
    end := now.Truncate(time.Hour)
    start := end.Add(-time.Duration(hours-1) * time.Hour)

    counts := make(map[time.Time]int64, hours)
    for _, rec := range records {
        bucket := rec.CheckInTime.UTC().Truncate(time.Hour)
        if bucket.Before(start) || bucket.After(end) {
            continue
        }
        counts[bucket]++
    }

    out := make([]HourlyBucket, 0, hours)
    for h := 0; h < hours; h++ {
        bucket := start.Add(time.Duration(h) * time.Hour)
        out = append(out, HourlyBucket{
            Hour:  fmt.Sprintf("%s %02d:00", bucket.Format("2006-01-02"), bucket.Hour()),
            Count: counts[bucket],
        })
    }
    return out
}
