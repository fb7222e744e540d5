package controllers

import (
	"strconv"

	"agrispray/models"
	"agrispray/services"
	"agrispray/utils"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	userService *services.UserService
}

func NewUserController(userService *services.UserService) *UserController {
	return &UserController{userService: userService}
}

// ListUsers returns a page of accounts, optionally filtered by ?type=
func (uc *UserController) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	role := c.Query("type")
	if role != "" {
		if err := utils.ValidateVar(role, "account_role"); err != nil {
			utils.BadRequestResponse(c, "Invalid account type")
			return
		}
	}

	users, total, p, err := uc.userService.ListUsers(c.Request.Context(), role, services.Page{Number: page, Size: limit})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Users retrieved successfully", users, p.Number, p.Size, total)
}

// GetUser returns one account with its bookings
func (uc *UserController) GetUser(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	detail, err := uc.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "User retrieved successfully", detail)
}

// UpdateUser updates profile fields of an account
func (uc *UserController) UpdateUser(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := uc.userService.UpdateUser(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "User updated successfully", user)
}

// GetPurchases returns plans, payments and bookings of an account
func (uc *UserController) GetPurchases(c *gin.Context) {
	userID, ok := paramID(c, "id")
	if !ok {
		return
	}

	purchases, err := uc.userService.GetPurchases(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Purchases retrieved successfully", purchases)
}
