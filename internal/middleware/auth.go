package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dotk/api/internal/security"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUserID   = "user_id"
	CtxUserRole = "user_role"
)

const bearerPrefix = "Bearer "

// Auth extracts and verifies the bearer token and attaches the caller's
// id and role to the request context. It does not touch the database;
// role gates load the user fresh (see RequireRole).
//
// Every verification failure is answered with 401. The underlying
// reason (expired vs. malformed vs. bad signature) is logged upstream
// but never exposed, so the response carries no token-internals oracle.
func Auth(tokens *security.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			// Some front-end proxies strip Authorization; the admin UI
			// repeats the credential in X-Authorization for that case.
			header = c.GetHeader("X-Authorization")
		}

		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing"})
			return
		}

		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserRole, claims.Role)

		c.Next()
	}
}
