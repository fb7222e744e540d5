package routes

import (
	"time"

	"agrispray/controllers"
	"agrispray/middleware"

	"github.com/gin-gonic/gin"
)

func AuthRoutes(r *gin.Engine, deps Dependencies) {
	authController := controllers.NewAuthController(deps.Auth)

	auth := r.Group("/")
	if deps.RateLimitEnabled {
		auth.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(time.Minute, 10)))
	}
	{
		// Public authentication routes
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
	}

	r.GET("/me", middleware.AuthMiddleware(deps.Auth), authController.Me)
}
