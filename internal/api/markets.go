package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liamashdown/resolvewatch/internal/gammaapi"
	"github.com/liamashdown/resolvewatch/internal/market"
	"github.com/sirupsen/logrus"
)

func (s *Server) registerMarkets(r *gin.Engine) {
	r.GET("/markets", s.listMarkets)
	r.POST("/markets", s.createMarket)
	r.POST("/markets/import/:gammaId", s.importMarket)
	r.GET("/market/:id", s.getMarket)
}

func (s *Server) listMarkets(c *gin.Context) {
	markets := s.deps.Registry.AllMarkets()
	c.JSON(http.StatusOK, gin.H{"markets": markets, "count": len(markets)})
}

func (s *Server) getMarket(c *gin.Context) {
	m, err := s.deps.Registry.GetMarket(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	if m == nil {
		Error(c, http.StatusNotFound, "Market not found")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) createMarket(c *gin.Context) {
	var m market.Market
	if err := c.ShouldBindJSON(&m); err != nil {
		ErrorWithCode(c, http.StatusBadRequest, "", "Invalid market data", err.Error())
		return
	}
	if err := m.Validate(); err != nil {
		ErrorWithCode(c, http.StatusBadRequest, "", "Invalid market data", err.Error())
		return
	}

	s.deps.Registry.AddMarket(m)
	s.log.WithField("market_id", m.ID).Info("Market created")
	c.JSON(http.StatusCreated, gin.H{"success": true, "market": m})
}

// importMarket pulls a market from Gamma by id, or by slug with ?by=slug
func (s *Server) importMarket(c *gin.Context) {
	if s.deps.Gamma == nil {
		Error(c, http.StatusServiceUnavailable, "Gamma import not configured")
		return
	}

	key := strings.TrimSpace(c.Param("gammaId"))
	ctx := c.Request.Context()

	var gm *gammaapi.Market
	var err error
	if c.Query("by") == "slug" {
		gm, err = s.deps.Gamma.GetMarketBySlug(ctx, key)
	} else {
		gm, err = s.deps.Gamma.GetMarketByID(ctx, key)
	}
	if errors.Is(err, gammaapi.ErrNotFound) {
		Error(c, http.StatusNotFound, "Gamma market not found")
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("gamma_key", key).Error("Gamma lookup failed")
		ErrorWithCode(c, http.StatusBadGateway, "", "Gamma API request failed", err.Error())
		return
	}

	m, err := gammaapi.ToMarket(gm, time.Now())
	if err != nil {
		ErrorWithCode(c, http.StatusUnprocessableEntity, "", "Gamma market cannot be imported", err.Error())
		return
	}

	s.deps.Registry.AddMarket(m)
	s.log.WithFields(logrus.Fields{
		"market_id": m.ID,
		"status":    m.Status,
	}).Info("Market imported from Gamma")
	c.JSON(http.StatusCreated, gin.H{"success": true, "market": m})
}
