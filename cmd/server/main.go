package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/gatekit/checkin/internal/audit"
	"github.com/gatekit/checkin/internal/checkin"
	"github.com/gatekit/checkin/internal/config" // Internal config loader
	"github.com/gatekit/checkin/internal/database"
	"github.com/gatekit/checkin/internal/handler"
	"github.com/gatekit/checkin/internal/queue"
	"github.com/gatekit/checkin/internal/report"
	"github.com/gatekit/checkin/internal/repository"
	"github.com/gatekit/checkin/internal/router" // Internal router setup
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis backs the scan rate limiter and the dashboard cache.  A nil
	// client disables both; check-in itself never depends on Redis.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	// Repositories over the shared connection pool.
	attendanceRepo := repository.NewAttendanceRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	eventRepo := repository.NewEventRepo(db)

	// Broker publisher for downstream consumers (badge printers, live
	// screens).  Publishing is best effort; the consumer below is the
	// reference subscriber that archives confirmations to a log file.
	brokerURL := queue.BrokerURLFromEnv()
	publisher := queue.NewPublisher(brokerURL)
	go func() {
		if err := queue.StartCheckInConsumer(brokerURL); err != nil {
			log.Printf("queue consumer: %v", err)
		}
	}()

	auditor := audit.NewService(auditRepo)
	processor := checkin.NewProcessor(ticketRepo, attendanceRepo, auditor, publisher)

	dashboard := report.NewDashboard(eventRepo, attendanceRepo)
	search := report.NewSearch(ticketRepo, attendanceRepo)
	auditLog := report.NewAuditLog(auditRepo)
	export := report.NewExport(ticketRepo)

	e := echo.New() // Create Echo instance
	e.Validator = handler.NewRequestValidator()

	router.RegisterRoutes(e) // Health check
	router.RegisterCheckIn(e, handler.NewCheckInHandler(processor), handler.NewReportHandler(dashboard, search, auditLog, export), cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
