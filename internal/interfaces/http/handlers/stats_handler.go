package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Monitor is the slice of the monitoring component the API needs.
type Monitor interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the operational counters as JSON.
type StatsHandler struct {
	monitor Monitor
	logger  *zap.Logger
}

func NewStatsHandler(monitor Monitor, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		monitor: monitor,
		logger:  logger,
	}
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	if h.monitor == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.monitor.GetStats())
}
