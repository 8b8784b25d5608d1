// Package api exposes the risk analyzer's query surface over HTTP. The
// handlers are thin adapters: all risk semantics live in internal/risk
// and all payloads are the plain JSON projections from pkg/models.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldelevate/risk-analyzer/internal/risk"
	"github.com/fieldelevate/risk-analyzer/internal/store"
	ws "github.com/fieldelevate/risk-analyzer/internal/websocket"
	"github.com/fieldelevate/risk-analyzer/pkg/metrics"
	"github.com/fieldelevate/risk-analyzer/pkg/models"
	"github.com/fieldelevate/risk-analyzer/pkg/utils/logger"
)

// Config holds the configuration for the API server.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string
}

// Server serves the portfolio and risk query surface.
type Server struct {
	config     Config
	engine     *gin.Engine
	httpServer *http.Server

	portfolio *models.Portfolio
	monitor   *risk.Monitor
	calc      *risk.Calculator
	store     store.Store
	hub       *ws.Hub
	recorder  *metrics.Recorder

	log *logger.Logger
}

// NewServer creates the API server around the live portfolio and its
// monitor.
func NewServer(config Config, portfolio *models.Portfolio, monitor *risk.Monitor, calc *risk.Calculator, st store.Store, hub *ws.Hub, recorder *metrics.Recorder) *Server {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:    config,
		engine:    gin.New(),
		portfolio: portfolio,
		monitor:   monitor,
		calc:      calc,
		store:     st,
		hub:       hub,
		recorder:  recorder,
		log:       logger.GetLogger("api.server"),
	}
	s.setupRoutes()
	return s
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.log.Infof("Starting API server on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info("Stopping API server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.engine.Use(s.loggingMiddleware(), s.metricsMiddleware(), gin.Recovery())

	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.GET("/ws/alerts", func(c *gin.Context) {
		s.hub.ServeWS(c.Writer, c.Request)
	})

	api := s.engine.Group("/api")

	portfolio := api.Group("/portfolio")
	portfolio.GET("", s.handleGetPortfolio)
	portfolio.GET("/positions", s.handleGetPositions)
	portfolio.POST("/update", s.handleUpdatePortfolio)

	riskGroup := api.Group("/risk")
	riskGroup.POST("/check", s.handleCheckRisk)
	riskGroup.POST("/evaluate", s.handleEvaluateTrade)
	riskGroup.GET("/report", s.handleRiskReport)
	riskGroup.GET("/limits", s.handleRiskLimits)
	riskGroup.GET("/metrics", s.handleRiskMetrics)

	stress := api.Group("/stress")
	stress.POST("/test", s.handleStressTest)
	stress.GET("/scenarios", s.handleStressScenarios)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Infof("%s %s %s %d %s",
			c.ClientIP(),
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if s.recorder != nil {
			s.recorder.RecordAPIRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
		}
	}
}
