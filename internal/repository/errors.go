// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// check-in processor and the HTTP handlers to distinguish between
// different failure scenarios. ErrDuplicate in particular is how the
// storage layer's unique-key conflict surfaces to the processor, which
// reinterprets it as an already-checked-in outcome rather than a hard
// error.
package repository

import (
    "errors"
    "strings"
)

// ErrNotFound is returned when a lookup matches no row. Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, most
// importantly the (event_id, ticket_id) key on attendance_records. The
// check-in processor maps this to a duplicate check-in outcome.
var ErrDuplicate = errors.New("duplicate")

// isDuplicateEntry reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicateEntry(err error) bool {
    if err == nil {
        return false
    }
    return strings.Contains(strings.ToLower(err.Error()), "1062")
}
