package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/journal-editorial-api/internal/models"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
	"github.com/noah-isme/journal-editorial-api/pkg/response"
)

// RequireRoles lets the request through when the caller holds any of roles. Ownership
// and assigned-editor checks need the record and stay in the services.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if !models.HasAnyRole(claims, roles...) {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
