package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fitplan/fitplan/internal/server/auth"
)

const claimsContextKey = "authClaims"

// requireRole parses the bearer token and rejects requests whose claims do
// not carry the given role. The decoded claims are stashed in the gin
// context for handlers that want them.
func (s *Server) requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := auth.ParseToken(tokenString, s.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}
