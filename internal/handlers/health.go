package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency whose reachability is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports service liveness and the state of optional dependencies.
func Health(deps map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{}
		for name, dep := range deps {
			if err := dep.Ping(c.Request.Context()); err != nil {
				status[name] = "unavailable"
			} else {
				status[name] = "ok"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Server is running", "dependencies": status})
	}
}
