package router

import (
	"interview-coach/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	RequestIDContextKey = "request_id"
	requestIDHeader     = "X-Request-ID"
)

// RequestIDMiddleware tags each request with an ID, reusing one supplied by a proxy.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			var err error
			id, err = utils.GenerateSecureToken(12)
			if err != nil {
				panic("failed to generate request id")
			}
		}

		c.Set(RequestIDContextKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
