// Package qr decodes the payload embedded in ticket QR codes.  The payload
// is produced and signed by the external ticketing collaborator; this
// package only parses it.  Decoding happens before any database lookup so a
// malformed scan is rejected without touching the store.
package qr

import (
    "encoding/json"
    "errors"
    "strings"
    "time"
)

// ErrInvalidPayload is returned when a scanned payload cannot be decoded
// into a usable ticket reference.  Staff are expected to rescan; the
// request is never retried automatically.
var ErrInvalidPayload = errors.New("invalid qr payload")

// Payload is the decoded content of a ticket QR code.
//
// Fields:
//  TicketID – the ticket the code was issued for.
//  IssuedAt – when the ticketing system generated the code.
type Payload struct {
    TicketID uint64    `json:"ticket_id"`
    IssuedAt time.Time `json:"issued_at"`
}

// rawPayload mirrors the wire format.  issued_at arrives as an RFC3339
// string and is validated separately so a bad timestamp is reported as an
// invalid payload rather than a JSON type error.
type rawPayload struct {
    TicketID uint64 `json:"ticket_id"`
    IssuedAt string `json:"issued_at"`
}

// Decode parses the raw string captured from a QR scan.  It returns
// ErrInvalidPayload when the input is not JSON, names no ticket, or carries
// an unparsable issue timestamp.
func Decode(raw string) (Payload, error) {
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return Payload{}, ErrInvalidPayload
    }
    var rp rawPayload
    if err := json.Unmarshal([]byte(raw), &rp); err != nil {
        return Payload{}, ErrInvalidPayload
    }
    if rp.TicketID == 0 {
        return Payload{}, ErrInvalidPayload
    }
    issued, err := time.Parse(time.RFC3339, rp.IssuedAt)
    if err != nil {
        return Payload{}, ErrInvalidPayload
    }
    return Payload{TicketID: rp.TicketID, IssuedAt: issued.UTC()}, nil
}
