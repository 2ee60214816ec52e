package qr

import (
    "errors"
    "testing"
)

func TestDecode_ValidPayload(t *testing.T) {
    p, err := Decode(`{"ticket_id": 42, "issued_at": "2025-06-01T10:00:00Z"}`)
    if err != nil {
        t.Fatalf("unexpected err: %v", err)
    }
    if p.TicketID != 42 {
        t.Fatalf("expected ticket 42, got %d", p.TicketID)
    }
    if p.IssuedAt.IsZero() {
        t.Fatalf("expected issued_at to be set")
    }
}

func TestDecode_RejectsMalformedInput(t *testing.T) {
    cases := []struct {
        name string
        raw  string
    }{
        {"empty", ""},
        {"whitespace", "   "},
        {"not json", "TICKET-42"},
        {"missing ticket id", `{"issued_at": "2025-06-01T10:00:00Z"}`},
        {"zero ticket id", `{"ticket_id": 0, "issued_at": "2025-06-01T10:00:00Z"}`},
        {"missing issued_at", `{"ticket_id": 42}`},
        {"bad issued_at", `{"ticket_id": 42, "issued_at": "yesterday"}`},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if _, err := Decode(tc.raw); !errors.Is(err, ErrInvalidPayload) {
                t.Fatalf("expected ErrInvalidPayload, got %v", err)
            }
        })
    }
}
