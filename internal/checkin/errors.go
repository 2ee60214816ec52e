package checkin

import "errors"

// Validation failures detected at the processor boundary.  All of them are
// terminal for the request and leave no partial state behind: they are
// raised before the attendance insert is attempted.
var (
    // ErrTicketNotFound means no ticket with the given ID exists for the
    // event.  Handlers translate this into an HTTP 404 response.
    ErrTicketNotFound = errors.New("ticket not found for event")

    // ErrTicketCancelled means the ticket exists but has been voided by
    // the ticketing collaborator.  This is a clear rejection, distinct
    // from a duplicate.
    ErrTicketCancelled = errors.New("ticket is cancelled")

    // ErrInvalidOverrideReason means a manual override was requested
    // without a meaningful justification.  Staff must correct and resend.
    ErrInvalidOverrideReason = errors.New("override reason must be at least 10 characters")

    // ErrEmptyNote means a note append was requested with no note text.
    ErrEmptyNote = errors.New("note must not be empty")
)
