package routes

import (
	"agrispray/controllers"
	"agrispray/middleware"

	"github.com/gin-gonic/gin"
)

func PlanRoutes(r *gin.RouterGroup, deps Dependencies) {
	planController := controllers.NewPlanController(deps.Plans)

	r.POST("/purchase-plan/:userId", middleware.RequireSelfOrAdmin("userId"), planController.PurchasePlan)
}
