package handler

import (
    "errors"
    "fmt"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/gatekit/checkin/internal/report"
    "github.com/gatekit/checkin/internal/repository"
)

// ReportHandler exposes the read paths over the attendance set: the live
// dashboard, participant search, audit retrieval and the CSV export.  All
// of them are pure reads; staff clients poll the dashboard at their own
// cadence.
type ReportHandler struct {
    Dashboard *report.Dashboard
    Search    *report.Search
    AuditLog  *report.AuditLog
    Export    *report.Export
}

// NewReportHandler constructs a ReportHandler.  All dependencies must be
// non-nil.
func NewReportHandler(dashboard *report.Dashboard, search *report.Search, auditLog *report.AuditLog, export *report.Export) *ReportHandler {
    if dashboard == nil || search == nil || auditLog == nil || export == nil {
        panic("nil service passed to NewReportHandler")
    }
    return &ReportHandler{Dashboard: dashboard, Search: search, AuditLog: auditLog, Export: export}
}

// GetDashboard handles GET /v1/events/:id/checkin/dashboard.  The optional
// ?hours= parameter bounds the hourly histogram window.
func (h *ReportHandler) GetDashboard(c echo.Context) error {
    eventID, err := eventIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    hours := 0
    if v := c.QueryParam("hours"); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            hours = n
        }
    }
    stats, err := h.Dashboard.LiveStats(c.Request().Context(), eventID, hours)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, stats)
}

// SearchParticipants handles GET /v1/events/:id/checkin/search?q=.  Staff
// use it to locate a participant by name or e-mail before a manual
// override.
func (h *ReportHandler) SearchParticipants(c echo.Context) error {
    eventID, err := eventIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    hits, err := h.Search.Participants(c.Request().Context(), eventID, c.QueryParam("q"))
    if err != nil {
        if errors.Is(err, report.ErrQueryTooShort) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": report.ErrQueryTooShort.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": hits})
}

// GetAuditLog handles GET /v1/events/:id/checkin/audit?page=&page_size=.
// Entries come back newest first; invalid paging parameters are clamped.
func (h *ReportHandler) GetAuditLog(c echo.Context) error {
    eventID, err := eventIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    page, _ := strconv.Atoi(c.QueryParam("page"))
    pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
    out, err := h.AuditLog.Page(c.Request().Context(), eventID, page, pageSize)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, out)
}

// ExportCSV handles GET /v1/events/:id/checkin/export.  The response is a
// CSV attachment; ?include_not_checked_in=true appends rows for
// registered-but-absent tickets.
func (h *ReportHandler) ExportCSV(c echo.Context) error {
    eventID, err := eventIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    includeNotCheckedIn := c.QueryParam("include_not_checked_in") == "true"
    data, err := h.Export.CSV(c.Request().Context(), eventID, includeNotCheckedIn)
    if err != nil {
        if errors.Is(err, report.ErrNoData) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no attendance data to export"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    filename := fmt.Sprintf("attendance-event-%d.csv", eventID)
    c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
    return c.Blob(http.StatusOK, "text/csv", data)
}
