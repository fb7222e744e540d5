package controllers

import (
	"context"
	"net/http"
	"time"

	"agrispray/models"
	"agrispray/utils"

	"github.com/gin-gonic/gin"
)

// HealthCheck is a dependency probed by the health endpoint.
type HealthCheck interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthCheck.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

type HealthController struct {
	appName string
	version string
	checks  map[string]HealthCheck
}

func NewHealthController(appName, version string, checks map[string]HealthCheck) *HealthController {
	return &HealthController{appName: appName, version: version, checks: checks}
}

// Health probes every dependency; any failure answers 503
func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := models.HealthStatus{
		Status:   "healthy",
		Version:  hc.version,
		Services: make(map[string]string, len(hc.checks)),
	}
	for name, check := range hc.checks {
		if err := check.HealthCheck(ctx); err != nil {
			utils.Logger.WithError(err).WithField("service", name).Warn("Health check failed")
			status.Services[name] = "unhealthy"
			status.Status = "unhealthy"
			continue
		}
		status.Services[name] = "healthy"
	}

	if status.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, models.APIResponse{
			Success:   false,
			Message:   "Service unhealthy",
			Data:      status,
			Timestamp: time.Now(),
		})
		return
	}
	utils.SuccessResponse(c, "Service healthy", status)
}

// Version reports the application name and version
func (hc *HealthController) Version(c *gin.Context) {
	utils.SuccessResponse(c, "Version retrieved successfully", gin.H{
		"name":    hc.appName,
		"version": hc.version,
	})
}
