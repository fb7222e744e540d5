package middleware

import (
	"context"
	"net/http"
	"strings"

	"agrispray/models"
	"agrispray/utils"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to the account it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Account, error)
}

// AuthMiddleware validates JWT tokens for account authentication
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "Authorization header required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		tokenParts := strings.Fields(authHeader)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
			utils.UnauthorizedResponse(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		account, err := auth.Authenticate(c.Request.Context(), tokenParts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		utils.SetAccountInContext(c, account)
		c.Next()
	}
}

// RequireRoles lets the request through only for the listed account types.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := utils.GetRoleFromContext(c)
		if role == "" {
			utils.UnauthorizedResponse(c, "Account context not found")
			c.Abort()
			return
		}
		if !utils.SliceContains(roles, role) {
			utils.AbortWithError(c, http.StatusForbidden, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

// RequireSelfOrAdmin restricts routes keyed by an account id path parameter
// to that account or an admin.
func RequireSelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := utils.GetUserIDFromContext(c)
		if !exists {
			utils.UnauthorizedResponse(c, "Account context not found")
			c.Abort()
			return
		}
		if !utils.IsValidObjectID(c.Param(param)) {
			utils.AbortWithError(c, http.StatusBadRequest, "Invalid "+param)
			return
		}
		if utils.GetRoleFromContext(c) == models.RoleAdmin {
			c.Next()
			return
		}
		if c.Param(param) != userID.Hex() {
			utils.AbortWithError(c, http.StatusForbidden, "You can only access your own account")
			return
		}
		c.Next()
	}
}
