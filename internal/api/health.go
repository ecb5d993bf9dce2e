package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liamashdown/resolvewatch/internal/metrics"
)

func (s *Server) registerHealth(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
}

func (s *Server) health(c *gin.Context) {
	resolutions := s.deps.Service.Store().All()

	var lastResolution gin.H
	if n := len(resolutions); n > 0 {
		last := resolutions[n-1]
		lastResolution = gin.H{
			"marketId":   last.MarketID,
			"outcome":    last.Outcome,
			"resolvedAt": last.ResolvedAt,
		}
	}

	var schedulerStatus any
	if s.deps.Scheduler != nil {
		schedulerStatus = s.deps.Scheduler.Status()
	}

	metrics.RecordHealthCheck(true)
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    s.startedAt,
		"scheduler": schedulerStatus,
		"stats": gin.H{
			"totalMarkets":     s.deps.Registry.Count(),
			"totalResolutions": len(resolutions),
			"lastResolution":   lastResolution,
		},
	})
}

func (s *Server) ready(c *gin.Context) {
	if s.deps.AuditDB != nil {
		if err := s.deps.AuditDB.Ping(c.Request.Context()); err != nil {
			metrics.RecordHealthCheck(false)
			s.log.WithError(err).Warn("Audit database unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
			return
		}
	}
	metrics.RecordHealthCheck(true)
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
