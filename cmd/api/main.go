package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/dojoflow/tuition-api/docs" // Swagger docs
	"github.com/dojoflow/tuition-api/internal/config"
	"github.com/dojoflow/tuition-api/internal/database"
	"github.com/dojoflow/tuition-api/internal/handlers"
	"github.com/dojoflow/tuition-api/internal/jobs"
	"github.com/dojoflow/tuition-api/internal/middleware"
	"github.com/dojoflow/tuition-api/internal/repository"
	"github.com/dojoflow/tuition-api/internal/services"
	"github.com/dojoflow/tuition-api/internal/storage"
	"github.com/dojoflow/tuition-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Tuition API
// @version 1.0
// @description REST API for academy tuition billing and payment reconciliation

// @contact.name API Support

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, store, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, store)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// Billing configuration and manual runs
				admin.PUT("/organizations/:organization_id/settings", h.Organization.UpdateSettings)
				admin.PUT("/organizations/:organization_id/rank-requirements", h.Organization.SetRankRequirement)
				admin.POST("/organizations/:organization_id/billing/run", h.Billing.Run)

				// Debt record lifecycle decisions
				admin.POST("/debts/:debt_id/approve", h.Debt.Approve)
				admin.POST("/debts/:debt_id/reject", h.Debt.Reject)
				admin.POST("/debts/:debt_id/adjust", h.Debt.Adjust)
				admin.DELETE("/debts/:debt_id", h.Debt.Delete)

				// Batch payment decisions
				admin.POST("/payments/batch/:batch_id/approve", h.Batch.Approve)
				admin.POST("/payments/batch/:batch_id/reject", h.Batch.Reject)

				// Member lifecycle
				admin.POST("/members/:member_id/inactive", h.Member.SetInactive)
			}

			// Instructor + Admin routes (day-to-day desk operations)
			staff := protected.Group("")
			staff.Use(middleware.RequireRole("admin", "instructor"))
			{
				// Roster
				staff.GET("/organizations/:organization_id/members", h.Member.Index)
				staff.POST("/members", h.Member.Create)
				staff.GET("/members/:member_id/account", h.Member.Account)
				staff.GET("/members/:member_id/statement", h.Ledger.Statement)
				staff.POST("/members/:member_id/attendance", h.Member.RecordAttendance)
				staff.POST("/members/:member_id/promote", h.Member.Promote)

				// Charges and payments
				staff.GET("/organizations/:organization_id/debts", h.Debt.Index)
				staff.GET("/debts/:debt_id", h.Debt.Show)
				staff.POST("/debts", h.Debt.Create)
				staff.POST("/debts/:debt_id/payments", h.Debt.ApplyPayment)
				staff.POST("/debts/:debt_id/submit", h.Debt.Submit)

				// Batch payments
				staff.POST("/payments/batch/validate", h.Batch.Validate)
				staff.POST("/payments/batch", h.Batch.Create)
				staff.GET("/organizations/:organization_id/payments/batch", h.Batch.Index)
				staff.GET("/payments/batch/:batch_id", h.Batch.Show)
				staff.GET("/payments/batch/:batch_id/proof", h.Batch.DownloadProof)

				// Ledger
				staff.GET("/organizations/:organization_id/ledger", h.Ledger.Index)
				staff.GET("/organizations/:organization_id/ledger/export", h.Ledger.Export)

				// Organization
				staff.GET("/organizations/:organization_id", h.Organization.Show)
				staff.GET("/organizations/:organization_id/settings", h.Organization.GetSettings)

				// Audits and jobs
				staff.GET("/audits", h.Audit.Index)
				staff.GET("/jobs/status", h.Job.Status)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Billing tick every hour. The per-organization day markers and per-member
	// month checks make the frequency safe; the hourly cadence just bounds how
	// late a billing day can start after a restart.
	worker.ScheduleEveryImmediate(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Running billing tick...")
		svcs.Billing.RunDaily(ctx)
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
