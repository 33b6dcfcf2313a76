package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tutorhub.io/tutorhub/internal/pkg/logger"
)

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: healthOK})
}

// GetReadiness handles GET /health/ready.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := make(map[string]string)
	allHealthy := true

	if s.db == nil {
		checks["database"] = "unconfigured"
		allHealthy = false
	} else if err := s.db.Ping(c.Request.Context()); err != nil {
		logger.FromContext(c.Request.Context()).Warn("readiness: database ping failed", zap.Error(err))
		checks["database"] = "error"
		allHealthy = false
	} else {
		checks["database"] = healthOK
	}

	status := healthOK
	httpStatus := http.StatusOK
	if !allHealthy {
		status = healthDegraded
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, healthResponse{Status: status, Checks: checks})
}
