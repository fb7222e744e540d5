package controllers

import (
	"agrispray/models"
	"agrispray/services"
	"agrispray/utils"

	"github.com/gin-gonic/gin"
)

type PlanController struct {
	planService *services.PlanService
}

func NewPlanController(planService *services.PlanService) *PlanController {
	return &PlanController{planService: planService}
}

// PurchasePlan activates a plan on a farmer account
func (pc *PlanController) PurchasePlan(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	var req models.PurchasePlanRequest
	if !bindJSON(c, &req) {
		return
	}

	plan, err := pc.planService.PurchasePlan(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Plan purchased successfully", plan)
}
