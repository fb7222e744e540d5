package routes

import (
	"time"

	"agrispray/controllers"
	"agrispray/middleware"
	"agrispray/services"
	"agrispray/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Dependencies are the services and settings the HTTP layer is built from.
type Dependencies struct {
	Auth     *services.AuthService
	Users    *services.UserService
	Plans    *services.PlanService
	Bookings *services.BookingService
	Payments *services.PaymentService

	Logger             *logrus.Logger
	CORSAllowedOrigins []string
	RateLimitEnabled   bool
	AppName            string
	AppVersion         string
	HealthChecks       map[string]controllers.HealthCheck
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	// Global middleware
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.LoggingMiddleware(deps.Logger))
	r.Use(gin.Recovery())

	if deps.RateLimitEnabled {
		r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(time.Minute, 120)))
	}

	HealthRoutes(r, deps)
	AuthRoutes(r, deps)
	PaymentRoutes(r, deps)

	// Everything below requires a bearer token
	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.Auth))
	{
		UserRoutes(protected, deps)
		PlanRoutes(protected, deps)
		BookingRoutes(protected, deps)
		SprayerRoutes(protected, deps)
	}

	r.NoRoute(func(c *gin.Context) {
		utils.NotFoundResponse(c, "Route not found")
	})
}

func HealthRoutes(r *gin.Engine, deps Dependencies) {
	healthController := controllers.NewHealthController(deps.AppName, deps.AppVersion, deps.HealthChecks)

	r.GET("/health", healthController.Health)
	r.GET("/version", healthController.Version)
}
