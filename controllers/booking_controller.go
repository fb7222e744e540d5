package controllers

import (
	"agrispray/models"
	"agrispray/services"
	"agrispray/utils"

	"github.com/gin-gonic/gin"
)

type BookingController struct {
	bookingService *services.BookingService
}

func NewBookingController(bookingService *services.BookingService) *BookingController {
	return &BookingController{bookingService: bookingService}
}

// BookService creates a booking against the farmer's active plan
func (bc *BookingController) BookService(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	var req models.BookServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := bc.bookingService.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Service booked successfully", booking)
}

// EditBooking updates a pending booking
func (bc *BookingController) EditBooking(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	bookingID, ok := paramID(c, "bookingId")
	if !ok {
		return
	}

	var req models.EditBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := bc.bookingService.EditBooking(c.Request.Context(), userID, bookingID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking updated successfully", booking)
}

// CancelBooking cancels a pending booking
func (bc *BookingController) CancelBooking(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	bookingID, ok := paramID(c, "bookingId")
	if !ok {
		return
	}

	booking, err := bc.bookingService.CancelBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking cancelled successfully", booking)
}

// AddFeedback rates a completed booking on behalf of its farmer
func (bc *BookingController) AddFeedback(c *gin.Context) {
	userID, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "Account not found in context")
		return
	}
	bookingID, ok := paramID(c, "bookingId")
	if !ok {
		return
	}

	var req models.FeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := bc.bookingService.AddFeedback(c.Request.Context(), userID, bookingID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Feedback recorded", booking)
}
