package middleware

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"agrispray/utils"
)

const maxLoggedBody = 1024

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r responseBodyWriter) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Request bodies on these paths carry credentials or signed payloads.
var unloggedBodyPaths = []string{"/register", "/login", "/refresh", "/users/", "/api/payments/"}

// LoggingMiddleware logs HTTP requests and responses
func LoggingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		var requestBody []byte
		if c.Request.Body != nil && logger.IsLevelEnabled(logrus.DebugLevel) && !hasUnloggedBody(path) {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		w := &responseBodyWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBufferString(""),
		}
		c.Writer = w

		c.Next()

		latency := time.Since(start)
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		var userID string
		if id, exists := utils.GetUserIDFromContext(c); exists {
			userID = id.Hex()
		}

		logEntry := logger.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency":     latency.String(),
			"client_ip":   c.ClientIP(),
			"method":      method,
			"path":        path,
			"user_agent":  c.Request.UserAgent(),
			"user_id":     userID,
			"role":        utils.GetRoleFromContext(c),
			"request_id":  c.GetString("request_id"),
		})

		if method != "GET" && len(requestBody) > 0 && len(requestBody) < maxLoggedBody {
			logEntry = logEntry.WithField("request_body", string(requestBody))
		}

		if statusCode >= 400 && w.body.Len() > 0 && w.body.Len() < maxLoggedBody {
			logEntry = logEntry.WithField("response_body", w.body.String())
		}

		message := fmt.Sprintf("%s %s %d", method, path, statusCode)

		switch {
		case statusCode >= 500:
			logEntry.Error(message)
		case statusCode >= 400:
			logEntry.Warn(message)
		default:
			logEntry.Info(message)
		}
	}
}

func hasUnloggedBody(path string) bool {
	for _, prefix := range unloggedBodyPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RequestIDMiddleware adds unique request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// SecurityHeadersMiddleware adds security headers
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
