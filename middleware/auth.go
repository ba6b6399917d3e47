package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ecopulse-analytics-api/services"

	"github.com/gin-gonic/gin"
)

const ClaimsKey = "claims"

// RequireRole rejects requests without a valid bearer token carrying role.
// A nil auth service disables the check.
func RequireRole(auth *services.AuthService, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			c.Next()
			return
		}
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Authentication required"})
			return
		}
		claims, err := auth.Authorize(token, role)
		if err != nil {
			c.AbortWithStatusJSON(AuthStatus(err), gin.H{"status": "error", "message": AuthMessage(err)})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter browsers use for websocket upgrades.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}

// AuthStatus maps an Authorize error to 403 for a wrong role and 401 otherwise.
func AuthStatus(err error) int {
	if errors.Is(err, services.ErrForbidden) {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

func AuthMessage(err error) string {
	if errors.Is(err, services.ErrForbidden) {
		return services.ErrForbidden.Error()
	}
	return services.ErrInvalidToken.Error()
}
