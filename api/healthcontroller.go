package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterHealthRoutes registers liveness endpoints.
func (s *Server) RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)
}

// handleHealth reports process liveness.
// GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
