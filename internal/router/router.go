package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/gatekit/checkin/internal/config"
    "github.com/gatekit/checkin/internal/handler"    // import the handlers that implement business logic
    "github.com/gatekit/checkin/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Map the GET request at path "/healthz" to the Health handler.  This
    // endpoint can be used by load balancers or monitoring systems to verify
    // that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterCheckIn registers the attendance verification endpoints and their
// middleware.  Every route requires a valid staff access token; both door
// staff and organizers may check participants in and read reports.  The
// scan endpoints additionally pass through the Redis token bucket, and the
// dashboard is served from the short-lived response cache when Redis is
// available.
func RegisterCheckIn(
    e *echo.Echo,
    ch *handler.CheckInHandler,
    rh *handler.ReportHandler,
    jwtSecret string,
    rdb *redis.Client,
) {
    g := e.Group(
        "/v1/events/:id/checkin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("STAFF", "ORGANIZER"),
    )

    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    // Check-in writes.  Scan and manual override share the rate limiter
    // because both hit the same attendance hot path.
    g.POST("/scan", ch.Scan, limiter)
    g.POST("/manual", ch.ManualCheckIn, limiter)
    g.POST("/:ticketId/notes", ch.AddNote)

    // Reads.  Only the dashboard is cached; search, audit and export must
    // always reflect the latest writes.
    g.GET("/dashboard", rh.GetDashboard, cache)
    g.GET("/search", rh.SearchParticipants)
    g.GET("/audit", rh.GetAuditLog)
    g.GET("/export", rh.ExportCSV)
}
