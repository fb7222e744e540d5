package routes

import (
	"agrispray/controllers"
	"agrispray/middleware"

	"github.com/gin-gonic/gin"
)

func PaymentRoutes(r *gin.Engine, deps Dependencies) {
	paymentController := controllers.NewPaymentController(deps.Payments)

	payments := r.Group("/api/payments")
	{
		// The provider calls the webhook without a bearer token
		payments.POST("/webhook", paymentController.Webhook)

		protected := payments.Group("/")
		protected.Use(middleware.AuthMiddleware(deps.Auth))
		{
			protected.POST("/create-order", paymentController.CreateOrder)
			protected.POST("/verify-payment", paymentController.VerifyPayment)
		}
	}
}
