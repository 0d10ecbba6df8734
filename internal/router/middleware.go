package router

import (
	"net/http"
	"strings"

	"interview-coach/internal/handlers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenAuthenticator resolves an access token to a username.
type TokenAuthenticator interface {
	Authenticate(token string) (string, error)
}

// bearerToken finds the access token in the Authorization header, the jwttoken header,
// or the token query parameter browsers use for WebSocket upgrades.
func bearerToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token := c.GetHeader("jwttoken"); token != "" {
		return token
	}
	return c.Query("token")
}

// AuthRequired rejects requests without a valid access token and stores the token's
// username in the context.
func AuthRequired(log *zap.Logger, auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No token provided"})
			return
		}

		username, err := auth.Authenticate(token)
		if err != nil {
			log.Debug("Rejected access token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			return
		}

		c.Set(handlers.UsernameContextKey, username)
		c.Next()
	}
}

// BodyLimit caps request bodies at limit bytes.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
