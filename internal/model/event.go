package model

import "time"

// Event mirrors the subset of the external events table used for
// authorization and reporting.  RegisteredCount is always computed fresh
// from the ticket set (non-cancelled tickets only) rather than read from a
// cached counter, so dashboard denominators cannot drift from reality.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – display name used in dashboards and exports.
//  StartsAt        – scheduled start, if known.
//  EndsAt          – scheduled end, if known.
//  RegisteredCount – count of non-cancelled tickets at read time.
type Event struct {
    ID              uint64     `json:"id"`
    Name            string     `json:"name"`
    StartsAt        *time.Time `json:"starts_at,omitempty"`
    EndsAt          *time.Time `json:"ends_at,omitempty"`
    RegisteredCount int64      `json:"registered_count"`
}
