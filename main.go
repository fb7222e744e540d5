package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrispray/config"
	"agrispray/controllers"
	"agrispray/database"
	"agrispray/events"
	"agrispray/gateway"
	"agrispray/jobs"
	"agrispray/repository"
	"agrispray/routes"
	"agrispray/services"
	"agrispray/storage"
	"agrispray/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize application
	app, err := NewApplication()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize application")
	}

	// Start the application
	if err := app.Start(); err != nil {
		app.logger.WithError(err).Fatal("Failed to start application")
	}
}

// Application represents the main application structure
type Application struct {
	config    *config.Config
	logger    *logrus.Logger
	server    *http.Server
	dbManager *database.Manager
	publisher events.Publisher
	scheduler *jobs.Scheduler
	router    *gin.Engine
}

// NewApplication creates and initializes a new application instance
func NewApplication() (*Application, error) {
	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := utils.InitLogger(cfg.LogLevel, cfg.IsProduction())

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	utils.InitJWT(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	utils.SetBcryptCost(cfg.BcryptCost)

	router := gin.New()
	// Trust proxies for proper client IP detection
	router.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Application{
		config: cfg,
		logger: logger,
		router: router,
		server: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

// Start initializes all components and starts the HTTP server
func (app *Application) Start() error {
	app.logStartupInfo()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accounts, bookings, storeCheck, err := app.initializeStores(ctx)
	if err != nil {
		return err
	}

	archive, err := storage.NewArchive(app.config)
	if err != nil {
		return err
	}
	app.logger.WithField("archive", archive.Name()).Info("Webhook archive ready")

	app.publisher = events.NewPublisher(app.config.AMQPURL, app.config.EventsExchange, app.logger)

	gw, err := app.newGateway()
	if err != nil {
		return err
	}

	deps := services.Dependencies{
		Accounts:  accounts,
		Bookings:  bookings,
		Publisher: app.publisher,
		Logger:    app.logger,
	}
	authService := services.NewAuthService(deps)
	planService := services.NewPlanService(deps)
	paymentService := services.NewPaymentService(deps, gw, archive, services.PaymentConfig{
		KeyID:         app.config.RazorpayKeyID,
		KeySecret:     app.config.RazorpayKeySecret,
		WebhookSecret: app.config.RazorpayWebhookSecret,
		Currency:      app.config.PaymentCurrency,
	})

	if err := authService.EnsureDefaultAdmin(ctx, app.config.AdminDefaultEmail, app.config.AdminDefaultPass); err != nil {
		return err
	}

	routes.SetupRoutes(app.router, routes.Dependencies{
		Auth:               authService,
		Users:              services.NewUserService(deps),
		Plans:              planService,
		Bookings:           services.NewBookingService(deps),
		Payments:           paymentService,
		Logger:             app.logger,
		CORSAllowedOrigins: app.config.CORSAllowedOrigins,
		RateLimitEnabled:   app.config.RateLimitEnabled,
		AppName:            app.config.AppName,
		AppVersion:         app.config.AppVersion,
		HealthChecks: map[string]controllers.HealthCheck{
			"database": storeCheck,
			"archive":  archive,
		},
	})

	// Start background jobs
	app.scheduler = jobs.NewScheduler(
		jobs.NewJobs(planService, paymentService, app.config.PendingPaymentTTL, app.logger),
		jobs.Schedules{
			PlanExpiry:     app.config.PlanExpirySchedule,
			PendingCleanup: app.config.PendingCleanupSchedule,
		},
		app.logger,
	)
	if _, err := app.scheduler.Register(); err != nil {
		return err
	}
	app.scheduler.Start()

	// Start server in a goroutine
	go func() {
		app.logger.WithField("addr", app.server.Addr).Info("Server starting")
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for shutdown signal
	app.waitForShutdown()
	return nil
}

// initializeStores connects the configured store driver
func (app *Application) initializeStores(ctx context.Context) (repository.AccountStore, repository.BookingStore, controllers.HealthCheck, error) {
	if app.config.DBDriver == "memory" {
		app.logger.Warn("Using the in-memory store, data is lost on restart")
		accounts := repository.NewMemoryAccountStore()
		return accounts, repository.NewMemoryBookingStore(), controllers.HealthCheckFunc(accounts.Ping), nil
	}

	app.logger.Info("Initializing database...")
	app.dbManager = database.NewManager()
	if err := app.dbManager.Connect(ctx, database.DefaultConfig(app.config.MongoURI, app.config.DBName)); err != nil {
		return nil, nil, nil, err
	}

	collections := database.NewCollections(app.dbManager)
	if err := database.CreateIndexes(ctx, collections); err != nil {
		return nil, nil, nil, err
	}
	if err := database.RunMigrations(ctx, collections); err != nil {
		return nil, nil, nil, err
	}

	app.logger.Info("Database initialization completed successfully")
	return repository.NewMongoAccountStore(collections), repository.NewMongoBookingStore(collections), app.dbManager, nil
}

// newGateway returns the Razorpay client, or an in-memory sandbox when keys
// are absent outside production.
func (app *Application) newGateway() (gateway.Gateway, error) {
	if app.config.RazorpayKeyID != "" && app.config.RazorpayKeySecret != "" {
		return gateway.NewRazorpayGateway(app.config.RazorpayKeyID, app.config.RazorpayKeySecret), nil
	}
	if app.config.IsProduction() {
		return nil, errors.New("razorpay credentials are required in production")
	}
	app.logger.Warn("Razorpay keys not set, using the sandbox gateway")
	return gateway.NewSandboxGateway(), nil
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	app.logger.Info("Shutdown signal received...")
	app.shutdown()
}

// shutdown gracefully shuts down the application
func (app *Application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.WithError(err).Warn("Server forced to shutdown")
	}

	if app.scheduler != nil {
		select {
		case <-app.scheduler.Stop().Done():
		case <-ctx.Done():
			app.logger.Warn("Timed out waiting for running jobs")
		}
	}

	if app.publisher != nil {
		app.publisher.Close()
	}

	if app.dbManager != nil {
		if err := app.dbManager.Close(ctx); err != nil {
			app.logger.WithError(err).Warn("Error closing database")
		}
	}

	app.logger.Info("Server shutdown complete")
}

// logStartupInfo logs important startup information
func (app *Application) logStartupInfo() {
	app.logger.WithFields(logrus.Fields{
		"app":         app.config.AppName,
		"version":     app.config.AppVersion,
		"environment": app.config.Environment,
		"db_driver":   app.config.DBDriver,
		"database":    app.config.DBName,
		"archive":     app.config.ArchiveDriver,
		"rate_limit":  app.config.RateLimitEnabled,
		"events":      app.config.AMQPURL != "",
		"plan_expiry": app.config.PlanExpirySchedule,
		"pending_ttl": app.config.PendingPaymentTTL.String(),
	}).Info("Starting application")
}
