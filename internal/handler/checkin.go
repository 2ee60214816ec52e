package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/gatekit/checkin/internal/checkin"
    "github.com/gatekit/checkin/internal/qr"
)

// CheckInHandler exposes the scan, manual-override and note endpoints.  It
// assumes JWT authentication and role validation have already been
// performed by middleware; methods return 401 Unauthorized if the staff ID
// cannot be extracted from the context.
type CheckInHandler struct {
    Processor *checkin.Processor
}

// NewCheckInHandler constructs a CheckInHandler.  The processor must be
// non-nil.
func NewCheckInHandler(processor *checkin.Processor) *CheckInHandler {
    if processor == nil {
        panic("nil processor passed to NewCheckInHandler")
    }
    return &CheckInHandler{Processor: processor}
}

// scanRequest is the body of POST /v1/events/:id/checkin/scan.
type scanRequest struct {
    QRPayload string `json:"qr_payload" validate:"required"`
}

// manualRequest is the body of POST /v1/events/:id/checkin/manual.  The
// reason minimum mirrors the processor's own gate so obviously bad
// requests are rejected before reaching it.
type manualRequest struct {
    TicketID uint64 `json:"ticket_id" validate:"required"`
    Reason   string `json:"reason" validate:"required,min=10"`
}

// noteRequest is the body of POST /v1/events/:id/checkin/:ticketId/notes.
type noteRequest struct {
    Note string `json:"note" validate:"required"`
}

// requestContext captures the forensic device info of the current request.
func requestContext(c echo.Context) checkin.RequestContext {
    return checkin.RequestContext{
        UserAgent: c.Request().UserAgent(),
        IP:        c.RealIP(),
    }
}

// Scan handles POST /v1/events/:id/checkin/scan.  Staff see one of three
// outcomes: a confirmed check-in with the participant's identity, a
// duplicate warning carrying the original check-in details, or a rejection
// with a specific reason.
func (h *CheckInHandler) Scan(c echo.Context) error {
    staffID, err := getStaffID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    eventID, err := eventIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    var body scanRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr_payload is required"})
    }

    res, err := h.Processor.ProcessScan(c.Request().Context(), eventID, staffID, body.QRPayload, requestContext(c))
    if err != nil {
        return checkInError(c, err)
    }
    return checkInResponse(c, res)
}

// ManualCheckIn handles POST /v1/events/:id/checkin/manual.  It requires a
// justification of at least ten characters and is audited as a manual
// override.
func (h *CheckInHandler) ManualCheckIn(c echo.Context) error {
    staffID, err := getStaffID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    eventID, err := eventIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    var body manualRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id and a reason of at least 10 characters are required"})
    }

    res, err := h.Processor.ProcessManualOverride(c.Request().Context(), eventID, staffID, body.TicketID, body.Reason, requestContext(c))
    if err != nil {
        return checkInError(c, err)
    }
    return checkInResponse(c, res)
}

// AddNote handles POST /v1/events/:id/checkin/:ticketId/notes.  Notes are
// append-only and each append is audited.
func (h *CheckInHandler) AddNote(c echo.Context) error {
    staffID, err := getStaffID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    eventID, err := eventIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ticketID, err := strconv.ParseUint(c.Param("ticketId"), 10, 64)
    if err != nil || ticketID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }
    var body noteRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "note is required"})
    }

    rec, err := h.Processor.AddNote(c.Request().Context(), eventID, ticketID, staffID, body.Note, requestContext(c))
    if err != nil {
        return checkInError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"record": rec})
}

// checkInResponse renders a processor result.  Duplicates are a reported
// condition, not a failure, so they go out as 200 with the original
// check-in details; fresh check-ins are 201.
func checkInResponse(c echo.Context, res *checkin.Result) error {
    if res.Duplicate {
        return c.JSON(http.StatusOK, echo.Map{
            "duplicate":         true,
            "participant":       res.Participant,
            "check_in_time":     res.Record.CheckInTime,
            "check_in_method":   res.Record.Method,
            "attempts_recorded": res.AttemptsRecorded,
        })
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "duplicate":   false,
        "record":      res.Record,
        "participant": res.Participant,
    })
}

// checkInError maps processor errors onto HTTP responses.  Validation
// failures carry their message verbatim; anything unrecognized is a 500.
func checkInError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, qr.ErrInvalidPayload):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid qr payload"})
    case errors.Is(err, checkin.ErrInvalidOverrideReason):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": checkin.ErrInvalidOverrideReason.Error()})
    case errors.Is(err, checkin.ErrEmptyNote):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": checkin.ErrEmptyNote.Error()})
    case errors.Is(err, checkin.ErrTicketNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found for this event"})
    case errors.Is(err, checkin.ErrTicketCancelled):
        return c.JSON(http.StatusConflict, echo.Map{"error": "ticket is cancelled"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
}
