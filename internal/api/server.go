package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liamashdown/resolvewatch/internal/gammaapi"
	"github.com/liamashdown/resolvewatch/internal/registry"
	"github.com/liamashdown/resolvewatch/internal/resolution"
	"github.com/liamashdown/resolvewatch/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// StatusProvider reports scheduler status for /health
type StatusProvider interface {
	Status() scheduler.Status
}

// Pinger is an optional dependency checked by /ready
type Pinger interface {
	Ping(ctx context.Context) error
}

// MarketFetcher looks markets up on Polymarket's Gamma API
type MarketFetcher interface {
	GetMarketByID(ctx context.Context, id string) (*gammaapi.Market, error)
	GetMarketBySlug(ctx context.Context, slug string) (*gammaapi.Market, error)
}

// Deps are the components the API serves. Scheduler, Gamma and AuditDB may
// be nil.
type Deps struct {
	Registry  *registry.Registry
	Service   *resolution.Service
	Scheduler StatusProvider
	Gamma     MarketFetcher
	AuditDB   Pinger
}

// Server is the HTTP API
type Server struct {
	deps      Deps
	engine    *gin.Engine
	startedAt time.Time
	baseCtx   context.Context
	log       *logrus.Entry
	srv       *http.Server
}

// New builds the router. baseCtx bounds resolutions triggered over HTTP,
// which outlive the request that started them.
func New(baseCtx context.Context, deps Deps, log *logrus.Logger) *Server {
	s := &Server{
		deps:      deps,
		engine:    gin.New(),
		startedAt: time.Now().UTC(),
		baseCtx:   baseCtx,
		log:       log.WithField("component", "api"),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(requestLogger(s.log))

	s.registerHealth(s.engine)
	s.registerMarkets(s.engine)
	s.registerResolutions(s.engine)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on port until Shutdown is called
func (s *Server) ListenAndServe(port int) error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.engine,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	s.log.WithField("port", port).Info("Starting HTTP server")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
