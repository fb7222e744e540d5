package routes

import (
	"agrispray/controllers"
	"agrispray/middleware"
	"agrispray/models"

	"github.com/gin-gonic/gin"
)

func SprayerRoutes(r *gin.RouterGroup, deps Dependencies) {
	sprayerController := controllers.NewSprayerController(deps.Bookings)

	sprayer := r.Group("/sprayer")
	sprayer.Use(middleware.RequireRoles(models.RoleSprayer, models.RoleAdmin))
	{
		sprayer.GET("/services", sprayerController.ListServices)
		sprayer.POST("/assign-slot", sprayerController.AssignSlot)
		sprayer.POST("/accept-service", sprayerController.AcceptService)
		sprayer.POST("/complete-service", sprayerController.CompleteService)
	}
}
