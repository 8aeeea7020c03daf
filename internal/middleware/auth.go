package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LAMpbrien/adventures-of/internal/security"
)

const (
	currentUserKey  = "current_user_id"
	accessClaimsKey = "access_claims"
	bearerPrefix    = "Bearer "
)

// Auth verifies the bearer token issued by the identity provider and
// stores the caller's user id on the context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := security.ParseAccessToken(tokenStr, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		c.Set(accessClaimsKey, *claims)
		c.Set(currentUserKey, claims.User())

		c.Next()
	}
}

// CurrentUserID returns the authenticated user, or "" outside Auth.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(currentUserKey)
}
