package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/customeros/formlayer/interfaces"
)

// HealthCheck provides a simple health check endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Status returns the admin notices, e.g. an unreachable form host
func Status(statusService interfaces.StatusService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"notices": statusService.Notices(),
		})
	}
}
