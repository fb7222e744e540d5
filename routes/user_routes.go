package routes

import (
	"agrispray/controllers"
	"agrispray/middleware"
	"agrispray/models"

	"github.com/gin-gonic/gin"
)

func UserRoutes(r *gin.RouterGroup, deps Dependencies) {
	userController := controllers.NewUserController(deps.Users)

	r.GET("/users", middleware.RequireRoles(models.RoleAdmin), userController.ListUsers)

	users := r.Group("/users/:id")
	users.Use(middleware.RequireSelfOrAdmin("id"))
	{
		users.GET("", userController.GetUser)
		users.PUT("", userController.UpdateUser)
		users.GET("/purchases", userController.GetPurchases)
	}
}
