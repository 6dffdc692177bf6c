package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleHealth reports liveness. It is mounted outside the rate limiter.
func HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReadiness reports the configured provider. The router is only built
// after config validation and client construction succeed, so reaching this
// handler means the service can take traffic.
// Used for Cloud Run startup probe
func HandleReadiness(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"provider": provider,
		})
	}
}
