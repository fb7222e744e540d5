package controllers

import (
	"agrispray/models"
	"agrispray/services"
	"agrispray/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SprayerController struct {
	bookingService *services.BookingService
}

func NewSprayerController(bookingService *services.BookingService) *SprayerController {
	return &SprayerController{bookingService: bookingService}
}

// ListServices lists open bookings, or those with ?status=
func (sc *SprayerController) ListServices(c *gin.Context) {
	listings, err := sc.bookingService.ListServices(c.Request.Context(), c.Query("status"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Services retrieved successfully", listings)
}

// AssignSlot schedules a pending booking with a sprayer
func (sc *SprayerController) AssignSlot(c *gin.Context) {
	var req models.AssignSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	bookingID, ok := bodyID(c, "serviceId", req.ServiceID)
	if !ok {
		return
	}
	sprayerID, ok := actingSprayer(c, req.SprayerID)
	if !ok {
		return
	}

	booking, err := sc.bookingService.AssignSlot(c.Request.Context(), bookingID, sprayerID, req.ScheduleDate)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Slot assigned successfully", booking)
}

// AcceptService lets the sprayer start a pending booking now
func (sc *SprayerController) AcceptService(c *gin.Context) {
	var req models.ServiceActionRequest
	if !bindJSON(c, &req) {
		return
	}
	bookingID, ok := bodyID(c, "serviceId", req.ServiceID)
	if !ok {
		return
	}
	sprayerID, ok := actingSprayer(c, req.SprayerID)
	if !ok {
		return
	}

	booking, err := sc.bookingService.AcceptService(c.Request.Context(), bookingID, sprayerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Service accepted", booking)
}

// CompleteService marks the sprayer's in-progress booking completed
func (sc *SprayerController) CompleteService(c *gin.Context) {
	var req models.ServiceActionRequest
	if !bindJSON(c, &req) {
		return
	}
	bookingID, ok := bodyID(c, "serviceId", req.ServiceID)
	if !ok {
		return
	}
	sprayerID, ok := actingSprayer(c, req.SprayerID)
	if !ok {
		return
	}

	booking, err := sc.bookingService.CompleteService(c.Request.Context(), bookingID, sprayerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Service completed", booking)
}

// actingSprayer resolves who a sprayer action is performed as. Sprayers act as
// themselves; admins must name the sprayer.
func actingSprayer(c *gin.Context, requested string) (primitive.ObjectID, bool) {
	callerID, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "Account not found in context")
		return primitive.NilObjectID, false
	}

	if utils.GetRoleFromContext(c) == models.RoleAdmin {
		if requested == "" {
			utils.BadRequestResponse(c, "sprayerId is required")
			return primitive.NilObjectID, false
		}
		return bodyID(c, "sprayerId", requested)
	}

	if requested != "" && requested != callerID.Hex() {
		utils.ForbiddenResponse(c, "Sprayers can only act for themselves")
		return primitive.NilObjectID, false
	}
	return callerID, true
}
