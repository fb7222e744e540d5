package routes

import (
	"agrispray/controllers"
	"agrispray/middleware"
	"agrispray/models"

	"github.com/gin-gonic/gin"
)

func BookingRoutes(r *gin.RouterGroup, deps Dependencies) {
	bookingController := controllers.NewBookingController(deps.Bookings)
	self := middleware.RequireSelfOrAdmin("userId")

	r.POST("/book-service/:userId", self, bookingController.BookService)
	r.PUT("/edit-booking/:userId/:bookingId", self, bookingController.EditBooking)
	r.POST("/cancel-booking/:userId/:bookingId", self, bookingController.CancelBooking)
	r.POST("/services/:bookingId/feedback", middleware.RequireRoles(models.RoleFarmer), bookingController.AddFeedback)
}
