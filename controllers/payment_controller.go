package controllers

import (
	"agrispray/models"
	"agrispray/services"
	"agrispray/utils"

	"github.com/gin-gonic/gin"
)

const webhookSignatureHeader = "X-Razorpay-Signature"

type PaymentController struct {
	paymentService *services.PaymentService
}

func NewPaymentController(paymentService *services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// CreateOrder opens a gateway order for a plan purchase
func (pc *PaymentController) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, _ := utils.GetUserIDFromContext(c)
	if utils.GetRoleFromContext(c) != models.RoleAdmin && req.UserID != callerID.Hex() {
		utils.ForbiddenResponse(c, "You can only create orders for your own account")
		return
	}

	order, err := pc.paymentService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Order created successfully", order)
}

// VerifyPayment confirms a checkout and activates the purchased plan
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := pc.paymentService.VerifyPayment(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	message := "Payment verified and plan activated"
	if result.AlreadyProcessed {
		message = "Payment already processed"
	}
	utils.SuccessResponse(c, message, result)
}

// Webhook receives provider notifications. The signature covers the raw body,
// so it is read before any decoding.
func (pc *PaymentController) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		utils.BadRequestResponse(c, "Unable to read request body")
		return
	}

	result, err := pc.paymentService.HandleWebhook(c.Request.Context(), body, c.GetHeader(webhookSignatureHeader))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Webhook processed", result)
}
