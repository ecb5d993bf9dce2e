package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/liamashdown/resolvewatch/internal/market"
	"github.com/sirupsen/logrus"
)

func (s *Server) registerResolutions(r *gin.Engine) {
	r.POST("/trigger/:marketId", s.trigger)
	r.POST("/resolve", s.submit)
	r.GET("/resolutions", s.listResolutions)
	r.GET("/resolution/:marketId", s.getResolution)
}

func (s *Server) trigger(c *gin.Context) {
	marketID := c.Param("marketId")

	m, err := s.deps.Registry.GetMarket(c.Request.Context(), marketID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	if m == nil {
		Error(c, http.StatusNotFound, "Market not found")
		return
	}

	if existing := s.deps.Service.Store().Get(marketID); existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Market already resolved", "code": "ALREADY_RESOLVED", "resolution": existing})
		return
	}
	if s.deps.Service.IsProcessing(marketID) {
		ErrorWithCode(c, http.StatusConflict, "ALREADY_PROCESSING", "Market resolution already in progress", "")
		return
	}

	s.log.WithField("market_id", marketID).Info("Manual resolution triggered")

	go func() {
		if err := s.deps.Service.ResolveMarket(s.baseCtx, marketID); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"market_id": marketID,
				"code":      market.CodeName(err),
			}).Error("Resolution failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": fmt.Sprintf("Resolution triggered for market %s", marketID),
		"status":  "processing",
	})
}

func (s *Server) submit(c *gin.Context) {
	var sub market.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		ErrorWithCode(c, http.StatusBadRequest, "", "Invalid submission", err.Error())
		return
	}
	if err := sub.Validate(); err != nil {
		ErrorWithCode(c, http.StatusBadRequest, "", "Invalid submission", err.Error())
		return
	}
	if sub.Sources == nil {
		sub.Sources = []market.Source{}
	}

	rec, err := s.deps.Service.SubmitExternal(c.Request.Context(), sub)
	switch {
	case errors.Is(err, market.ErrMarketNotFound):
		Error(c, http.StatusNotFound, "Market not found")
	case errors.Is(err, market.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{
			"error":    "Market already resolved",
			"code":     "ALREADY_RESOLVED",
			"existing": s.deps.Service.Store().Get(sub.MarketID),
		})
	case errors.Is(err, market.ErrAlreadyProcessing):
		ErrorWithCode(c, http.StatusConflict, "ALREADY_PROCESSING", "Market resolution already in progress", "")
	case err != nil:
		s.log.WithError(err).WithField("market_id", sub.MarketID).Error("External submission failed")
		Error(c, http.StatusInternalServerError, err.Error())
	default:
		c.JSON(http.StatusCreated, gin.H{"success": true, "resolution": rec})
	}
}

func (s *Server) listResolutions(c *gin.Context) {
	resolutions := s.deps.Service.Store().All()
	c.JSON(http.StatusOK, gin.H{"resolutions": resolutions, "count": len(resolutions)})
}

func (s *Server) getResolution(c *gin.Context) {
	rec := s.deps.Service.Store().Get(c.Param("marketId"))
	if rec == nil {
		Error(c, http.StatusNotFound, "Resolution not found")
		return
	}
	c.JSON(http.StatusOK, rec)
}
