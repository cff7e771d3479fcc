package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/anishka-v/eco-dining/internal/auth"

	"github.com/gin-gonic/gin"
)

// TokenValidator is satisfied by *auth.Tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format, use 'Bearer <token>'"})
			c.Abort()
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token: " + err.Error()})
			c.Abort()
			return
		}

		slog.Debug("auth_ok",
			slog.String("user_id", claims.UserID),
			slog.String("role", claims.Role),
			slog.String("school_id", claims.SchoolID),
		)

		// Attach user info to request context
		c.Set("userID", claims.UserID)
		c.Set("userEmail", claims.Email)
		c.Set("userRole", claims.Role)
		c.Set("userSchoolID", claims.SchoolID)
		c.Next()
	}
}
