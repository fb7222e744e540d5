package controllers

import (
	"agrispray/services"
	"agrispray/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// handleServiceError writes the response for a failed service call. Internal
// failures are logged and answered with a generic message.
func handleServiceError(c *gin.Context, err error) {
	appErr := services.AsAppError(err)
	if appErr.Kind == services.KindInternal {
		utils.Logger.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		}).Error("Request failed")
		utils.InternalServerErrorResponse(c, appErr.Message)
		return
	}
	utils.ErrorResponse(c, appErr.Kind.HTTPStatus(), appErr.Message, map[string]interface{}{
		"code": appErr.Code,
	})
}

// bindJSON decodes and validates the request body, writing a 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := utils.StringToObjectID(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func bodyID(c *gin.Context, name, value string) (primitive.ObjectID, bool) {
	id, err := utils.StringToObjectID(value)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
