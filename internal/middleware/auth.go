package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"residence/internal/pkg/jwt"
	"residence/internal/pkg/response"
)

// Auth validates the Bearer token and stores the resident ID in the
// context under "user_id".
func Auth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.AbortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header")
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.ResidentID)
		c.Next()
	}
}
