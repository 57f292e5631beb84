package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"dotk/api/internal/models"
	"dotk/api/internal/repository"
)

// CtxUser holds the freshly loaded user record after a role gate ran.
const CtxUser = "current_user"

type UserGetter interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
}

// RequireRole gates a route group on a minimum role. It must be
// composed after Auth. The user is loaded fresh from the store so a
// deactivated account is rejected even while its token is still valid;
// the token's role claim is not trusted for this decision.
func RequireRole(users UserGetter, min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		idVal, ok := c.Get(CtxUserID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		userID, ok := idVal.(int64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			// A vanished account is a denial; a failing store is not.
			if errors.Is(err, repository.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is inactive"})
			return
		}

		if !user.Role.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": fmt.Sprintf("forbidden: %s access required", min),
			})
			return
		}

		c.Set(CtxUser, user)

		c.Next()
	}
}
