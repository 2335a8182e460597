package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookshelf-backend/internal/shared"
	"bookshelf-backend/pkg/jwt"
)

const identityKey = "identity"

// AuthMiddleware resolves the caller identity from the bearer token.
// It does not own authentication; it only trusts and decodes the claims.
func AuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(401, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			c.JSON(401, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil || userID == uuid.Nil {
			c.JSON(401, gin.H{"error": "invalid user ID in token"})
			c.Abort()
			return
		}

		c.Set(identityKey, shared.Identity{
			UserID:  userID,
			Email:   claims.Email,
			IsAdmin: claims.Role == "admin",
			Bypass:  claims.Bypass,
		})

		c.Next()
	}
}

// IdentityFromContext returns the identity set by AuthMiddleware.
func IdentityFromContext(c *gin.Context) (shared.Identity, bool) {
	val, exists := c.Get(identityKey)
	if !exists {
		return shared.Identity{}, false
	}
	identity, ok := val.(shared.Identity)
	return identity, ok
}
